// Package service holds the purchasing workflow and the caller resolution it depends on.
package service

import (
	"context"

	"stockflow/internal/models"
	"stockflow/internal/repository"
)

// Caller is an authenticated user resolved to its tenant.
type Caller struct {
	UserID    uint
	CompanyID uint
	Email     string
	Role      models.UserRole
	Company   *models.Company
}

// IsAdmin reports whether the caller may review and receive purchase requests.
func (c Caller) IsAdmin() bool {
	return c.Role == models.UserRoleAdmin
}

// Actor returns the caller as the acting identity of a workflow transition.
func (c Caller) Actor() Actor {
	return Actor{UserID: c.UserID, CompanyID: c.CompanyID, Role: c.Role}
}

type IdentityService struct {
	users repository.UserRepository
}

func NewIdentityService(users repository.UserRepository) *IdentityService {
	return &IdentityService{users: users}
}

// Resolve maps an authenticated user id to its user record and company.
// A zero id fails authentication; an unknown user, or one without a company, is USER_NOT_FOUND.
func (s *IdentityService) Resolve(ctx context.Context, userID uint) (*Caller, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return nil, models.NewUserNotFoundError(userID)
		}
		return nil, err
	}
	if user.CompanyID == 0 {
		return nil, models.NewUserNotFoundError(userID)
	}

	return &Caller{
		UserID:    user.ID,
		CompanyID: user.CompanyID,
		Email:     user.Email,
		Role:      user.Role,
		Company:   user.Company,
	}, nil
}
