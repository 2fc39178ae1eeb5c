package domain

import (
	"time"
)

// PublicationTask is a unit of publication work: one object sent to one chat by
// one actor. Bot-origin and account-origin jobs share this shape; Kind tells the
// dispatcher which send path to use.
type PublicationTask struct {
	ID        uint  `gorm:"primaryKey"`
	ObjectID  uint  `gorm:"not null;index"`
	ChatID    uint  `gorm:"not null;index"`
	AccountID *uint `gorm:"index"`
	UserID    *int64

	Kind   ActorKind   `gorm:"not null;default:bot"`
	Mode   PublishMode `gorm:"not null;default:immediate"`
	Status TaskStatus  `gorm:"not null;default:pending;index"`

	// ScheduledTime is the instant before which the task must not be dispatched.
	// Null means dispatch as soon as possible.
	ScheduledTime *time.Time `gorm:"index"`

	StartedAt    *time.Time
	CompletedAt  *time.Time
	Attempts     int    `gorm:"not null;default:0"`
	ErrorMessage string `gorm:"type:text"`

	// MessageID is the provider-assigned identifier once the message is sent.
	MessageID int

	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for PublicationTask
func (PublicationTask) TableName() string {
	return "publication_queue"
}

// PublicationHistory records an actually-sent message. Created exactly once per
// successful send and used as the ground truth for duplicate detection and
// per-chat statistics. Rows outlive the tasks that produced them.
type PublicationHistory struct {
	ID        uint  `gorm:"primaryKey"`
	ObjectID  uint  `gorm:"not null;index:idx_history_object_chat"`
	ChatID    uint  `gorm:"not null;index:idx_history_object_chat"`
	AccountID *uint `gorm:"index"`

	PublishedAt time.Time `gorm:"not null;index"`
	MessageID   int

	// Deleted marks a retracted publication; retracted rows do not count for
	// duplicate detection.
	Deleted   bool `gorm:"not null;default:false"`
	DeletedAt *time.Time

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for PublicationHistory
func (PublicationHistory) TableName() string {
	return "publication_history"
}

// AccountChats binds one account to the chats it publishes into, in order.
type AccountChats struct {
	AccountID uint   `json:"account_id"`
	ChatIDs   []uint `json:"chat_ids"`
}

// AutopublishConfig is the per (user, object) recurrence policy. It is written
// by the management UI and read-only to this engine; it generates tasks but does
// not itself participate in the task state machine.
type AutopublishConfig struct {
	ID       uint  `gorm:"primaryKey"`
	UserID   int64 `gorm:"not null;index"`
	ObjectID uint  `gorm:"not null;index"`

	Enabled    bool `gorm:"not null;default:false"`
	BotEnabled bool `gorm:"not null;default:false"`

	// AccountsConfig is a JSON-encoded ordered list of AccountChats entries.
	AccountsConfig string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for AutopublishConfig
func (AutopublishConfig) TableName() string {
	return "autopublish_configs"
}

// TelegramAccount is a user-owned sending identity with a capacity constraint
// (DailyLimit) and a cadence constraint (Mode).
type TelegramAccount struct {
	ID     uint  `gorm:"primaryKey"`
	UserID int64 `gorm:"not null;index"`

	Phone string     `gorm:"not null;uniqueIndex"`
	Mode  PacingMode `gorm:"not null;default:safe"`

	// FixIntervalMinutes is only meaningful when Mode is PacingFix.
	FixIntervalMinutes int `gorm:"not null;default:30"`

	DailyLimit int  `gorm:"not null;default:20"`
	IsActive   bool `gorm:"not null;default:true"`

	LastUsed  *time.Time
	LastError string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for TelegramAccount
func (TelegramAccount) TableName() string {
	return "telegram_accounts"
}

// Chat is a Telegram chat the platform publishes into, together with the filter
// criteria used to match listings during bot autopublish.
type Chat struct {
	ID         uint   `gorm:"primaryKey"`
	TelegramID int64  `gorm:"not null;uniqueIndex"`
	Title      string `gorm:"not null"`
	IsActive   bool   `gorm:"not null;default:true"`

	// Filter criteria. Empty values match everything.
	RoomType  string `gorm:"index"`
	Districts string `gorm:"type:text"`
	PriceMin  int
	PriceMax  int

	PublicationsToday int `gorm:"not null;default:0"`
	PublicationsTotal int `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for Chat
func (Chat) TableName() string {
	return "chats"
}

// Object is a property listing. Only the attributes the engine needs for chat
// matching and rendering are modeled here; the full CRUD shape lives in the
// management service.
type Object struct {
	ID     uint  `gorm:"primaryKey"`
	UserID int64 `gorm:"not null;index"`

	Title    string `gorm:"not null"`
	RoomType string
	District string
	Price    int
	Address  string
	Text     string `gorm:"type:text"`
	PhotoURL string

	IsActive bool `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for Object
func (Object) TableName() string {
	return "objects"
}

// User is the listing owner. The engine only cares about the role for the
// admin duplicate bypass.
type User struct {
	ID   int64  `gorm:"primaryKey"`
	Role string `gorm:"not null;default:user"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for User
func (User) TableName() string {
	return "users"
}

// RoleAdmin is the role granting the duplicate-policy bypass.
const RoleAdmin = "admin"

// Setting is one keyed boolean configuration value: duplicate policy toggles
// and the global rate-limit flag.
type Setting struct {
	Key       string    `gorm:"primaryKey"`
	Value     bool      `gorm:"not null;default:false"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for Setting
func (Setting) TableName() string {
	return "settings"
}

// ChatSubscriptionTask tracks progress subscribing one account to an ordered
// list of chat links. NextRunAt is a durable resumption timestamp: the periodic
// scanner picks the task up where it left off after any restart.
type ChatSubscriptionTask struct {
	ID        uint `gorm:"primaryKey"`
	AccountID uint `gorm:"not null;index"`

	Status SubscriptionStatus `gorm:"not null;default:pending;index"`

	// ChatLinks is a JSON-encoded ordered list of invite links / usernames.
	ChatLinks    string `gorm:"type:text"`
	CurrentIndex int    `gorm:"not null;default:0"`
	TotalChats   int    `gorm:"not null;default:0"`

	SuccessfulCount int `gorm:"not null;default:0"`
	FloodCount      int `gorm:"not null;default:0"`

	FloodWaitUntil *time.Time
	NextRunAt      *time.Time `gorm:"index"`

	// IntervalMode is the pacing between join attempts: safe or aggressive.
	IntervalMode string `gorm:"not null;default:safe"`

	ErrorMessage string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for ChatSubscriptionTask
func (ChatSubscriptionTask) TableName() string {
	return "chat_subscription_tasks"
}
