package service

import (
	"context"

	"ride-dispatch/internal/domain/user"
)

// Verify validates the token and returns the principal it identifies. No
// store lookup: the claims carry everything the request path needs.
func (service *identityService) Verify(_ context.Context, token string) (user.User, error) {
	_, claims, err := service.jwtMgr.ParseAndValidate(token)
	if err != nil {
		return user.User{}, err
	}
	return user.User{ID: claims.Subject, Email: claims.Email}, nil
}
