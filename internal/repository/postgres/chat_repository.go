package postgres

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/estateflow/publisher/internal/domain"
)

// chatRepository implements domain.ChatRepository
type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *gorm.DB) domain.ChatRepository {
	return &chatRepository{
		db: db,
	}
}

// GetByID retrieves a chat by ID
func (r *chatRepository) GetByID(ctx context.Context, id uint) (*domain.Chat, error) {
	var chat domain.Chat
	result := r.db.WithContext(ctx).First(&chat, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrChatNotFound
		}
		return nil, domain.ErrDatabaseOperation
	}
	return &chat, nil
}

// MatchingChats returns active chats whose filter criteria match the object.
// Empty filter values match everything; districts are a comma-separated list.
func (r *chatRepository) MatchingChats(ctx context.Context, object *domain.Object) ([]domain.Chat, error) {
	var chats []domain.Chat
	result := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Find(&chats)

	if result.Error != nil {
		return nil, domain.ErrDatabaseOperation
	}

	matched := make([]domain.Chat, 0, len(chats))
	for _, chat := range chats {
		if chatMatches(&chat, object) {
			matched = append(matched, chat)
		}
	}
	return matched, nil
}

// chatMatches applies the chat's filter criteria to the object's attributes.
func chatMatches(chat *domain.Chat, object *domain.Object) bool {
	if chat.RoomType != "" && chat.RoomType != object.RoomType {
		return false
	}

	if chat.Districts != "" && object.District != "" {
		found := false
		for _, d := range strings.Split(chat.Districts, ",") {
			if strings.EqualFold(strings.TrimSpace(d), object.District) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if chat.PriceMin > 0 && object.Price < chat.PriceMin {
		return false
	}

	if chat.PriceMax > 0 && object.Price > chat.PriceMax {
		return false
	}

	return true
}

// IncrementPublications bumps the chat's daily and total publication counters
func (r *chatRepository) IncrementPublications(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"publications_today": gorm.Expr("publications_today + 1"),
			"publications_total": gorm.Expr("publications_total + 1"),
		})

	if result.Error != nil {
		return domain.ErrDatabaseOperation
	}
	return nil
}

// ResetDailyCounters zeroes publications_today for all chats
func (r *chatRepository) ResetDailyCounters(ctx context.Context) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("publications_today > 0").
		Update("publications_today", 0)

	if result.Error != nil {
		return domain.ErrDatabaseOperation
	}
	return nil
}
