package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/estateflow/publisher/internal/domain"
)

// objectRepository implements domain.ObjectRepository
type objectRepository struct {
	db *gorm.DB
}

// NewObjectRepository creates a new object repository
func NewObjectRepository(db *gorm.DB) domain.ObjectRepository {
	return &objectRepository{
		db: db,
	}
}

// GetByID retrieves an object by ID
func (r *objectRepository) GetByID(ctx context.Context, id uint) (*domain.Object, error) {
	var object domain.Object
	result := r.db.WithContext(ctx).First(&object, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrObjectNotFound
		}
		return nil, domain.ErrDatabaseOperation
	}
	return &object, nil
}
