package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/estateflow/publisher/internal/domain"
)

// subscriptionRepository implements domain.ChatSubscriptionRepository
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new chat subscription task repository
func NewSubscriptionRepository(db *gorm.DB) domain.ChatSubscriptionRepository {
	return &subscriptionRepository{
		db: db,
	}
}

// Create creates a new subscription task
func (r *subscriptionRepository) Create(ctx context.Context, task *domain.ChatSubscriptionTask) error {
	if task.Status == "" {
		task.Status = domain.SubscriptionPending
	}
	result := r.db.WithContext(ctx).Create(task)
	if result.Error != nil {
		return domain.ErrDatabaseOperation
	}
	return nil
}

// GetByID retrieves a subscription task by ID
func (r *subscriptionRepository) GetByID(ctx context.Context, id uint) (*domain.ChatSubscriptionTask, error) {
	var task domain.ChatSubscriptionTask
	result := r.db.WithContext(ctx).First(&task, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSubscriptionTaskNotFound
		}
		return nil, domain.ErrDatabaseOperation
	}
	return &task, nil
}

// SelectRunnable retrieves tasks that are due for another step
func (r *subscriptionRepository) SelectRunnable(ctx context.Context, now time.Time, limit int) ([]domain.ChatSubscriptionTask, error) {
	var tasks []domain.ChatSubscriptionTask
	result := r.db.WithContext(ctx).
		Where("status IN ?", []domain.SubscriptionStatus{domain.SubscriptionPending, domain.SubscriptionProcessing}).
		Where("next_run_at IS NULL OR next_run_at <= ?", now).
		Order("created_at ASC").
		Limit(limit).
		Find(&tasks)

	if result.Error != nil {
		return nil, domain.ErrDatabaseOperation
	}
	return tasks, nil
}

// Update persists the task's mutable progress fields
func (r *subscriptionRepository) Update(ctx context.Context, task *domain.ChatSubscriptionTask) error {
	result := r.db.WithContext(ctx).
		Model(&domain.ChatSubscriptionTask{}).
		Where("id = ?", task.ID).
		Updates(map[string]interface{}{
			"status":           task.Status,
			"current_index":    task.CurrentIndex,
			"successful_count": task.SuccessfulCount,
			"flood_count":      task.FloodCount,
			"flood_wait_until": task.FloodWaitUntil,
			"next_run_at":      task.NextRunAt,
			"error_message":    task.ErrorMessage,
		})

	if result.Error != nil {
		return domain.ErrDatabaseOperation
	}

	if result.RowsAffected == 0 {
		return domain.ErrSubscriptionTaskNotFound
	}

	return nil
}

// Resume moves a flood_wait task back to processing. Operator action.
func (r *subscriptionRepository) Resume(ctx context.Context, id uint, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&domain.ChatSubscriptionTask{}).
		Where("id = ? AND status = ?", id, domain.SubscriptionFloodWait).
		Updates(map[string]interface{}{
			"status":      domain.SubscriptionProcessing,
			"flood_count": 0,
			"next_run_at": now,
		})

	if result.Error != nil {
		return domain.ErrDatabaseOperation
	}

	if result.RowsAffected == 0 {
		return domain.ErrSubscriptionTaskNotFound
	}

	return nil
}
