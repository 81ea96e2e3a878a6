package service

import (
	"context"
	"errors"

	"ride-dispatch/internal/domain/user"
	"ride-dispatch/internal/ports"

	"golang.org/x/crypto/bcrypt"
)

// Login checks credentials and returns a signed access token. Unknown emails
// and wrong passwords are indistinguishable to the caller.
func (service *identityService) Login(ctx context.Context, email, password string) (ports.AuthResult, error) {
	found, err := service.users.GetByEmail(ctx, email)
	if errors.Is(err, user.ErrNotFound) {
		return ports.AuthResult{}, user.ErrInvalidCredentials
	}
	if err != nil {
		return ports.AuthResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password)); err != nil {
		return ports.AuthResult{}, user.ErrInvalidCredentials
	}

	token, _, err := service.jwtMgr.IssueUserToken(found.ID, found.Email)
	if err != nil {
		service.logger.Error(ctx, "token_issue_failed", "Failed to issue token on login", err, map[string]any{
			"user_id": found.ID,
		})
		return ports.AuthResult{}, err
	}

	service.logger.Info(ctx, "user_logged_in", "Rider logged in", map[string]any{
		"user_id": found.ID,
	})

	return ports.AuthResult{Token: token, User: found}, nil
}
