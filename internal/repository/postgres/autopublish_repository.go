package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/estateflow/publisher/internal/domain"
)

// autopublishRepository implements domain.AutopublishConfigRepository
type autopublishRepository struct {
	db *gorm.DB
}

// NewAutopublishRepository creates a new autopublish config repository
func NewAutopublishRepository(db *gorm.DB) domain.AutopublishConfigRepository {
	return &autopublishRepository{
		db: db,
	}
}

// GetEnabled retrieves all enabled autopublish configs
func (r *autopublishRepository) GetEnabled(ctx context.Context) ([]domain.AutopublishConfig, error) {
	var configs []domain.AutopublishConfig
	result := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("id ASC").
		Find(&configs)

	if result.Error != nil {
		return nil, domain.ErrDatabaseOperation
	}
	return configs, nil
}
