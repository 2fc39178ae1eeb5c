package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/estateflow/publisher/internal/domain"
)

// historyRepository implements domain.PublicationHistoryRepository
type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a new publication history repository
func NewHistoryRepository(db *gorm.DB) domain.PublicationHistoryRepository {
	return &historyRepository{
		db: db,
	}
}

// Create records a successful send
func (r *historyRepository) Create(ctx context.Context, history *domain.PublicationHistory) error {
	result := r.db.WithContext(ctx).Create(history)
	if result.Error != nil {
		return domain.ErrDatabaseOperation
	}
	return nil
}

// FindRecent retrieves the most recent matching non-deleted history row
// published at or after since. The account dimension matches exactly: a nil
// accountID only matches rows without an account.
func (r *historyRepository) FindRecent(ctx context.Context, objectID, chatID uint, accountID *uint, since time.Time) (*domain.PublicationHistory, error) {
	query := r.db.WithContext(ctx).
		Where("object_id = ? AND chat_id = ?", objectID, chatID).
		Where("deleted = ?", false).
		Where("published_at >= ?", since)

	if accountID != nil {
		query = query.Where("account_id = ?", *accountID)
	} else {
		query = query.Where("account_id IS NULL")
	}

	var history domain.PublicationHistory
	result := query.Order("published_at DESC").First(&history)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, domain.ErrDatabaseOperation
	}

	return &history, nil
}

// MarkDeleted soft-deletes a history row
func (r *historyRepository) MarkDeleted(ctx context.Context, id uint, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&domain.PublicationHistory{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"deleted":    true,
			"deleted_at": now,
		})

	if result.Error != nil {
		return domain.ErrDatabaseOperation
	}
	return nil
}
