package domain

import (
	"context"
	"time"
)

// PublicationQueueRepository defines the interface for the persisted work queue
type PublicationQueueRepository interface {
	// Create creates a new publication task
	Create(ctx context.Context, task *PublicationTask) error

	// GetByID retrieves a task by ID
	GetByID(ctx context.Context, id uint) (*PublicationTask, error)

	// SelectDue retrieves up to limit pending tasks whose scheduled time is null
	// or has passed, ordered by scheduled_time ascending (nulls last), then
	// created_at ascending.
	SelectDue(ctx context.Context, now time.Time, limit int) ([]PublicationTask, error)

	// Claim atomically transitions a task from pending (or retrying) to
	// processing and stamps started_at. Returns ErrTaskAlreadyClaimed when
	// another worker won the transition.
	Claim(ctx context.Context, id uint, now time.Time) error

	// MarkCompleted transitions a processing task to completed, recording the
	// provider message ID and completed_at. Rejects tasks not in processing.
	MarkCompleted(ctx context.Context, id uint, messageID int, now time.Time) error

	// MarkFailed transitions a processing task to failed, incrementing attempts
	// and recording the error message.
	MarkFailed(ctx context.Context, id uint, errMsg string, now time.Time) error

	// MarkFloodWait transitions a processing task to flood_wait and reschedules
	// it to resume at the given instant.
	MarkFloodWait(ctx context.Context, id uint, resumeAt time.Time) error

	// Release transitions a processing task back to pending, clearing
	// started_at and the error message, and incrementing attempts. Used by the
	// stuck-task reclaimer.
	Release(ctx context.Context, id uint) error

	// Reschedule moves a pending task's scheduled time forward without touching
	// its status.
	Reschedule(ctx context.Context, id uint, at time.Time) error

	// WakeFloodWaited transitions flood_wait tasks whose scheduled time has
	// passed back to pending. Returns the number of tasks woken.
	WakeFloodWaited(ctx context.Context, now time.Time) (int64, error)

	// FindStuck retrieves processing tasks whose started_at is older than the
	// given cutoff.
	FindStuck(ctx context.Context, cutoff time.Time, limit int) ([]PublicationTask, error)

	// CountPending returns the number of tasks currently waiting for dispatch.
	CountPending(ctx context.Context) (int64, error)

	// CountCreatedToday returns how many tasks were created for the account
	// since the given day start. Used for daily-limit accounting.
	CountCreatedToday(ctx context.Context, accountID uint, dayStart time.Time) (int64, error)
}

// PublicationHistoryRepository defines the interface for the send history
type PublicationHistoryRepository interface {
	// Create records a successful send. Called exactly once per publication.
	Create(ctx context.Context, history *PublicationHistory) error

	// FindRecent retrieves the most recent non-deleted history row for the
	// object+chat pair published at or after since. When accountID is non-nil
	// only rows with the same account match; when nil only rows without an
	// account match.
	FindRecent(ctx context.Context, objectID, chatID uint, accountID *uint, since time.Time) (*PublicationHistory, error)

	// MarkDeleted soft-deletes a history row (publication retracted).
	MarkDeleted(ctx context.Context, id uint, now time.Time) error
}

// SettingsRepository is keyed boolean configuration storage: the duplicate
// policy toggles and the global rate-limit flag.
type SettingsRepository interface {
	// GetBool returns the stored value for key, or def when the key is absent.
	GetBool(ctx context.Context, key string, def bool) (bool, error)

	// SetBool stores the value for key.
	SetBool(ctx context.Context, key string, value bool) error
}

// AccountRepository defines the interface for telegram account data access
type AccountRepository interface {
	// GetByID retrieves an account by ID
	GetByID(ctx context.Context, id uint) (*TelegramAccount, error)

	// GetActive retrieves all active accounts
	GetActive(ctx context.Context) ([]TelegramAccount, error)

	// TouchLastUsed stamps last_used and clears last_error after a successful send.
	TouchLastUsed(ctx context.Context, id uint, now time.Time) error

	// SetLastError records the last failure reason on the account.
	SetLastError(ctx context.Context, id uint, errMsg string) error
}

// ChatRepository defines the interface for chat data access
type ChatRepository interface {
	// GetByID retrieves a chat by ID
	GetByID(ctx context.Context, id uint) (*Chat, error)

	// MatchingChats returns the active chats whose filter criteria match the
	// object's attributes. Used by bot autopublish planning.
	MatchingChats(ctx context.Context, object *Object) ([]Chat, error)

	// IncrementPublications bumps the chat's daily and total publication counters.
	IncrementPublications(ctx context.Context, id uint) error

	// ResetDailyCounters zeroes publications_today for all chats.
	ResetDailyCounters(ctx context.Context) error
}

// ObjectRepository defines the interface for listing data access
type ObjectRepository interface {
	// GetByID retrieves an object by ID
	GetByID(ctx context.Context, id uint) (*Object, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, userID int64) (*User, error)

	// IsAdmin reports whether the user has the administrator role.
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

// AutopublishConfigRepository defines the interface for autopublish policies
type AutopublishConfigRepository interface {
	// GetEnabled retrieves all enabled autopublish configs.
	GetEnabled(ctx context.Context) ([]AutopublishConfig, error)
}

// ChatSubscriptionRepository defines the interface for chat subscription tasks
type ChatSubscriptionRepository interface {
	// Create creates a new subscription task
	Create(ctx context.Context, task *ChatSubscriptionTask) error

	// GetByID retrieves a subscription task by ID
	GetByID(ctx context.Context, id uint) (*ChatSubscriptionTask, error)

	// SelectRunnable retrieves pending and processing tasks whose next_run_at
	// is null or has passed.
	SelectRunnable(ctx context.Context, now time.Time, limit int) ([]ChatSubscriptionTask, error)

	// Update persists the task's mutable progress fields.
	Update(ctx context.Context, task *ChatSubscriptionTask) error

	// Resume moves a flood_wait task back to processing with next_run_at set to
	// now. Operator action.
	Resume(ctx context.Context, id uint, now time.Time) error
}

// SendResult is the provider acknowledgement for a sent message.
type SendResult struct {
	MessageID int
}

// BotSender is the bot-API send path. Implementations must signal flood
// control via FloodWaitError and unreachable chats via ErrChatUnreachable.
type BotSender interface {
	// SendText sends a text message to the chat.
	SendText(ctx context.Context, chatID int64, text string) (*SendResult, error)

	// SendPhoto sends a photo with caption to the chat.
	SendPhoto(ctx context.Context, chatID int64, caption, photoURL string) (*SendResult, error)
}

// AccountSender is the MTProto account send path, keyed by account phone.
// Same three-way outcome contract as BotSender.
type AccountSender interface {
	// SendText sends a text message through the account's session.
	SendText(ctx context.Context, phone string, chatID int64, text string) (*SendResult, error)

	// SendPhoto sends a photo with caption through the account's session.
	SendPhoto(ctx context.Context, phone string, chatID int64, caption, photoURL string) (*SendResult, error)

	// JoinChat subscribes the account to a chat by invite link or username.
	// Returns alreadyMember=true when the account was subscribed before.
	JoinChat(ctx context.Context, phone, link string) (alreadyMember bool, err error)
}

// TextRenderer produces the listing's display text. Pure; the engine treats
// the output as opaque.
type TextRenderer interface {
	Format(object *Object, user *User, isPreview bool, format string) string
}

// PublicationEvent is the payload for outbound publication events.
type PublicationEvent struct {
	TaskID    uint        `json:"task_id"`
	ObjectID  uint        `json:"object_id"`
	ChatID    uint        `json:"chat_id"`
	AccountID *uint       `json:"account_id,omitempty"`
	Kind      ActorKind   `json:"kind"`
	Mode      PublishMode `json:"mode"`
	MessageID int         `json:"message_id,omitempty"`
	Error     string      `json:"error,omitempty"`
	At        time.Time   `json:"at"`
}

// EventProducer publishes domain events for downstream services. Producer
// failures must never fail the publication itself: callers log and move on.
type EventProducer interface {
	// PublicationCompleted emits a publication.completed event
	PublicationCompleted(ctx context.Context, event PublicationEvent) error

	// PublicationFailed emits a publication.failed event
	PublicationFailed(ctx context.Context, event PublicationEvent) error

	// Close closes the producer
	Close() error
}

// RateLimitStatus is the limiter's view of one identity.
type RateLimitStatus struct {
	Allowed       bool
	WaitSeconds   float64
	SentInWindow  int
	Remaining     int
	NextAvailable time.Time
}

// RateLimiter is the per-account sliding-window throttle.
type RateLimiter interface {
	// CanSend reports whether the identity may send now, and if not, how many
	// seconds to wait.
	CanSend(ctx context.Context, identity string) (bool, float64)

	// RecordSent records a successful send for the identity.
	RecordSent(identity string)

	// Status returns the full limiter state for the identity.
	Status(ctx context.Context, identity string) RateLimitStatus
}
