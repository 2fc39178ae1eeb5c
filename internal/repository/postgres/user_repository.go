package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/estateflow/publisher/internal/domain"
)

// userRepository implements domain.UserRepository
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &userRepository{
		db: db,
	}
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, userID int64) (*domain.User, error) {
	var user domain.User
	result := r.db.WithContext(ctx).First(&user, userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, domain.ErrDatabaseOperation
	}
	return &user, nil
}

// IsAdmin reports whether the user has the administrator role
func (r *userRepository) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}
	return user.Role == domain.RoleAdmin, nil
}
