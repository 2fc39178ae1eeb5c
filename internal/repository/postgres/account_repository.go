package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/estateflow/publisher/internal/domain"
)

// accountRepository implements domain.AccountRepository
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new telegram account repository
func NewAccountRepository(db *gorm.DB) domain.AccountRepository {
	return &accountRepository{
		db: db,
	}
}

// GetByID retrieves an account by ID
func (r *accountRepository) GetByID(ctx context.Context, id uint) (*domain.TelegramAccount, error) {
	var account domain.TelegramAccount
	result := r.db.WithContext(ctx).First(&account, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, domain.ErrDatabaseOperation
	}
	return &account, nil
}

// GetActive retrieves all active accounts
func (r *accountRepository) GetActive(ctx context.Context) ([]domain.TelegramAccount, error) {
	var accounts []domain.TelegramAccount
	result := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&accounts)

	if result.Error != nil {
		return nil, domain.ErrDatabaseOperation
	}
	return accounts, nil
}

// TouchLastUsed stamps last_used and clears last_error after a successful send
func (r *accountRepository) TouchLastUsed(ctx context.Context, id uint, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&domain.TelegramAccount{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_used":  now,
			"last_error": "",
		})

	if result.Error != nil {
		return domain.ErrDatabaseOperation
	}
	return nil
}

// SetLastError records the last failure reason on the account
func (r *accountRepository) SetLastError(ctx context.Context, id uint, errMsg string) error {
	result := r.db.WithContext(ctx).
		Model(&domain.TelegramAccount{}).
		Where("id = ?", id).
		Update("last_error", errMsg)

	if result.Error != nil {
		return domain.ErrDatabaseOperation
	}
	return nil
}
