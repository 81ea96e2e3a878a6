package service

import (
	"context"
	"testing"
	"time"

	"ride-dispatch/internal/domain/user"
	"ride-dispatch/internal/general/jwt"
	"ride-dispatch/internal/general/logger"
	"ride-dispatch/internal/ports"
	"ride-dispatch/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdentity() ports.IdentityService {
	return NewIdentityService(
		logger.New("identity-test"),
		memory.NewUserStore(),
		jwt.NewManager("test-secret", time.Hour),
	)
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	svc := newIdentity()
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Rider@Example.com", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "rider@example.com", registered.User.Email)
	assert.Equal(t, "U-1", registered.User.ID)

	loggedIn, err := svc.Login(ctx, "rider@example.com", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, loggedIn.Token)
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)

	verified, err := svc.Verify(ctx, loggedIn.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, verified.ID)
	assert.Equal(t, "rider@example.com", verified.Email)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newIdentity()
	ctx := context.Background()

	_, err := svc.Register(ctx, "rider@example.com", "hunter22")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "RIDER@example.com", "other-pass")
	assert.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestRegisterRejectsBlankCredentials(t *testing.T) {
	svc := newIdentity()
	ctx := context.Background()

	_, err := svc.Register(ctx, "   ", "hunter22")
	assert.ErrorIs(t, err, user.ErrEmailRequired)

	_, err = svc.Register(ctx, "rider@example.com", "   ")
	assert.ErrorIs(t, err, user.ErrPasswordRequired)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newIdentity()
	ctx := context.Background()

	_, err := svc.Register(ctx, "rider@example.com", "hunter22")
	require.NoError(t, err)

	// wrong password and unknown email are indistinguishable to the caller
	_, err = svc.Login(ctx, "rider@example.com", "wrong")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)
}

func TestVerifyRejectsGarbageToken(t *testing.T) {
	svc := newIdentity()

	_, err := svc.Verify(context.Background(), "not-a-token")
	assert.Error(t, err)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	svc := newIdentity()
	ctx := context.Background()

	foreign := jwt.NewManager("other-secret", time.Hour)
	token, _, err := foreign.IssueUserToken("U-1", "rider@example.com")
	require.NoError(t, err)

	_, err = svc.Verify(ctx, token)
	assert.Error(t, err)
}
