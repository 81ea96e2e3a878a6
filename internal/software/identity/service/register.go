package service

import (
	"context"
	"strings"

	"ride-dispatch/internal/domain/user"
	"ride-dispatch/internal/ports"

	"golang.org/x/crypto/bcrypt"
)

// Register creates a rider account and returns a signed access token.
func (service *identityService) Register(ctx context.Context, email, password string) (ports.AuthResult, error) {
	if user.NormalizeEmail(email) == "" {
		return ports.AuthResult{}, user.ErrEmailRequired
	}
	if strings.TrimSpace(password) == "" {
		return ports.AuthResult{}, user.ErrPasswordRequired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return ports.AuthResult{}, err
	}

	created, err := service.users.Create(ctx, email, string(hash))
	if err != nil {
		return ports.AuthResult{}, err
	}

	token, _, err := service.jwtMgr.IssueUserToken(created.ID, created.Email)
	if err != nil {
		service.logger.Error(ctx, "token_issue_failed", "Failed to issue token after registration", err, map[string]any{
			"user_id": created.ID,
		})
		return ports.AuthResult{}, err
	}

	service.logger.Info(ctx, "user_registered", "Rider account created", map[string]any{
		"user_id": created.ID,
	})

	return ports.AuthResult{Token: token, User: created}, nil
}
