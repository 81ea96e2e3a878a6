package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ride-dispatch/internal/domain/user"
	"ride-dispatch/internal/ports"
)

// UserStore is the in-memory rider principal table, keyed by id with a
// lowercase email index.
type UserStore struct {
	mu      sync.RWMutex
	nextID  int
	byID    map[string]*user.User
	byEmail map[string]string // normalized email -> id
	now     func() time.Time
}

func NewUserStore() *UserStore {
	return &UserStore{
		nextID:  1,
		byID:    make(map[string]*user.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

var _ ports.UserStore = (*UserStore)(nil)

// Create registers a new principal; user.ErrEmailTaken on duplicate email.
func (store *UserStore) Create(_ context.Context, email, passwordHash string) (user.User, error) {
	normalized := user.NormalizeEmail(email)
	if normalized == "" {
		return user.User{}, user.ErrEmailRequired
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	if _, taken := store.byEmail[normalized]; taken {
		return user.User{}, user.ErrEmailTaken
	}

	rec := &user.User{
		ID:           fmt.Sprintf("U-%d", store.nextID),
		Email:        normalized,
		PasswordHash: passwordHash,
		CreatedAt:    store.now().UTC(),
	}
	store.nextID++
	store.byID[rec.ID] = rec
	store.byEmail[normalized] = rec.ID

	return *rec, nil
}

func (store *UserStore) GetByEmail(_ context.Context, email string) (user.User, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	id, ok := store.byEmail[user.NormalizeEmail(email)]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return *store.byID[id], nil
}

func (store *UserStore) GetByID(_ context.Context, id string) (user.User, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	rec, ok := store.byID[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return *rec, nil
}
