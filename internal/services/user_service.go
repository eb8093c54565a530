package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/moneywise/internal/repo"
)

// UserService keeps user rows in sync with verified token claims.
type UserService struct {
	DB *gorm.DB
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// Touch records the user, refreshing email and name when the claims carry
// them.
func (s *UserService) Touch(ctx context.Context, userID, email, name string) error {
	return repo.UpsertUser(ctx, s.DB, userID, email, name)
}
