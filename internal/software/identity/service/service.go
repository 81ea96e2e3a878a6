package service

import (
	"ride-dispatch/internal/general/jwt"
	"ride-dispatch/internal/general/logger"
	"ride-dispatch/internal/ports"
)

const bcryptCost = 10

// identityService owns credential checks and token issuance for riders.
type identityService struct {
	logger *logger.Logger
	users  ports.UserStore
	jwtMgr *jwt.Manager
}

// NewIdentityService creates a new identity service.
func NewIdentityService(logger *logger.Logger, users ports.UserStore, jwtMgr *jwt.Manager) ports.IdentityService {
	return &identityService{
		logger: logger,
		users:  users,
		jwtMgr: jwtMgr,
	}
}
