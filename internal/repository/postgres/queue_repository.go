package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/estateflow/publisher/internal/domain"
)

// queueRepository implements domain.PublicationQueueRepository
type queueRepository struct {
	db *gorm.DB
}

// NewQueueRepository creates a new publication queue repository
func NewQueueRepository(db *gorm.DB) domain.PublicationQueueRepository {
	return &queueRepository{
		db: db,
	}
}

// Create creates a new publication task
func (r *queueRepository) Create(ctx context.Context, task *domain.PublicationTask) error {
	if task.Status == "" {
		task.Status = domain.StatusPending
	}
	result := r.db.WithContext(ctx).Create(task)
	if result.Error != nil {
		return domain.ErrDatabaseOperation
	}
	return nil
}

// GetByID retrieves a task by ID
func (r *queueRepository) GetByID(ctx context.Context, id uint) (*domain.PublicationTask, error) {
	var task domain.PublicationTask
	result := r.db.WithContext(ctx).First(&task, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, domain.ErrDatabaseOperation
	}
	return &task, nil
}

// SelectDue retrieves due pending tasks: oldest intent first.
func (r *queueRepository) SelectDue(ctx context.Context, now time.Time, limit int) ([]domain.PublicationTask, error) {
	var tasks []domain.PublicationTask
	result := r.db.WithContext(ctx).
		Where("status IN ?", []domain.TaskStatus{domain.StatusPending, domain.StatusRetrying}).
		Where("scheduled_time IS NULL OR scheduled_time <= ?", now).
		Order("scheduled_time ASC NULLS LAST").
		Order("created_at ASC").
		Limit(limit).
		Find(&tasks)

	if result.Error != nil {
		return nil, domain.ErrDatabaseOperation
	}
	return tasks, nil
}

// Claim atomically transitions a task to processing. The guarded update is
// what prevents two workers from double-sending one task.
func (r *queueRepository) Claim(ctx context.Context, id uint, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&domain.PublicationTask{}).
		Where("id = ? AND status IN ?", id, []domain.TaskStatus{domain.StatusPending, domain.StatusRetrying}).
		Updates(map[string]interface{}{
			"status":     domain.StatusProcessing,
			"started_at": now,
		})

	if result.Error != nil {
		return domain.ErrDatabaseOperation
	}

	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrTaskAlreadyClaimed
	}

	return nil
}

// MarkCompleted transitions a processing task to completed. completed_at is
// set exactly once, here.
func (r *queueRepository) MarkCompleted(ctx context.Context, id uint, messageID int, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&domain.PublicationTask{}).
		Where("id = ? AND status = ?", id, domain.StatusProcessing).
		Updates(map[string]interface{}{
			"status":       domain.StatusCompleted,
			"completed_at": now,
			"message_id":   messageID,
		})

	if result.Error != nil {
		return domain.ErrDatabaseOperation
	}

	if result.RowsAffected == 0 {
		return domain.ErrInvalidTransition
	}

	return nil
}

// MarkFailed transitions a processing task to failed
func (r *queueRepository) MarkFailed(ctx context.Context, id uint, errMsg string, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&domain.PublicationTask{}).
		Where("id = ? AND status = ?", id, domain.StatusProcessing).
		Updates(map[string]interface{}{
			"status":        domain.StatusFailed,
			"error_message": errMsg,
			"attempts":      gorm.Expr("attempts + 1"),
		})

	if result.Error != nil {
		return domain.ErrDatabaseOperation
	}

	if result.RowsAffected == 0 {
		return domain.ErrInvalidTransition
	}

	return nil
}

// MarkFloodWait parks a processing task until the provider's advised wait expires
func (r *queueRepository) MarkFloodWait(ctx context.Context, id uint, resumeAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&domain.PublicationTask{}).
		Where("id = ? AND status = ?", id, domain.StatusProcessing).
		Updates(map[string]interface{}{
			"status":         domain.StatusFloodWait,
			"scheduled_time": resumeAt,
			"started_at":     nil,
		})

	if result.Error != nil {
		return domain.ErrDatabaseOperation
	}

	if result.RowsAffected == 0 {
		return domain.ErrInvalidTransition
	}

	return nil
}

// Release returns a processing task to pending for another attempt
func (r *queueRepository) Release(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&domain.PublicationTask{}).
		Where("id = ? AND status = ?", id, domain.StatusProcessing).
		Updates(map[string]interface{}{
			"status":        domain.StatusPending,
			"started_at":    nil,
			"error_message": "",
			"attempts":      gorm.Expr("attempts + 1"),
		})

	if result.Error != nil {
		return domain.ErrDatabaseOperation
	}

	if result.RowsAffected == 0 {
		return domain.ErrInvalidTransition
	}

	return nil
}

// Reschedule moves a pending task's due time forward
func (r *queueRepository) Reschedule(ctx context.Context, id uint, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&domain.PublicationTask{}).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Update("scheduled_time", at)

	if result.Error != nil {
		return domain.ErrDatabaseOperation
	}

	if result.RowsAffected == 0 {
		return domain.ErrInvalidTransition
	}

	return nil
}

// WakeFloodWaited returns expired flood_wait tasks to pending
func (r *queueRepository) WakeFloodWaited(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.PublicationTask{}).
		Where("status = ? AND scheduled_time <= ?", domain.StatusFloodWait, now).
		Update("status", domain.StatusPending)

	if result.Error != nil {
		return 0, domain.ErrDatabaseOperation
	}

	return result.RowsAffected, nil
}

// FindStuck retrieves processing tasks older than the cutoff
func (r *queueRepository) FindStuck(ctx context.Context, cutoff time.Time, limit int) ([]domain.PublicationTask, error) {
	var tasks []domain.PublicationTask
	result := r.db.WithContext(ctx).
		Where("status = ? AND started_at < ?", domain.StatusProcessing, cutoff).
		Order("started_at ASC").
		Limit(limit).
		Find(&tasks)

	if result.Error != nil {
		return nil, domain.ErrDatabaseOperation
	}
	return tasks, nil
}

// CountPending returns the number of tasks waiting for dispatch
func (r *queueRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&domain.PublicationTask{}).
		Where("status IN ?", []domain.TaskStatus{domain.StatusPending, domain.StatusRetrying}).
		Count(&count)

	if result.Error != nil {
		return 0, domain.ErrDatabaseOperation
	}
	return count, nil
}

// CountCreatedToday returns how many tasks were created for the account today
func (r *queueRepository) CountCreatedToday(ctx context.Context, accountID uint, dayStart time.Time) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&domain.PublicationTask{}).
		Where("account_id = ? AND created_at >= ?", accountID, dayStart).
		Count(&count)

	if result.Error != nil {
		return 0, domain.ErrDatabaseOperation
	}
	return count, nil
}
