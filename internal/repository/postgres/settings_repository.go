package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/estateflow/publisher/internal/domain"
)

// settingsRepository implements domain.SettingsRepository
type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *gorm.DB) domain.SettingsRepository {
	return &settingsRepository{
		db: db,
	}
}

// GetBool returns the stored value for key, or def when the key is absent
func (r *settingsRepository) GetBool(ctx context.Context, key string, def bool) (bool, error) {
	var setting domain.Setting
	result := r.db.WithContext(ctx).Where("key = ?", key).First(&setting)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return def, nil
		}
		return def, domain.ErrDatabaseOperation
	}
	return setting.Value, nil
}

// SetBool stores the value for key
func (r *settingsRepository) SetBool(ctx context.Context, key string, value bool) error {
	setting := domain.Setting{Key: key, Value: value}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&setting)

	if result.Error != nil {
		return domain.ErrDatabaseOperation
	}
	return nil
}
