package usecase

import (
	"context"
	"time"

	"github.com/estateflow/publisher/internal/domain"
	"github.com/estateflow/publisher/internal/infrastructure/metrics"
)

// Prometheus collectors register globally; one shared instance serves every
// test in the package.
var testMetrics = metrics.NewMetrics()

// mockQueue is a mock implementation of domain.PublicationQueueRepository
type mockQueue struct {
	createFunc            func(ctx context.Context, task *domain.PublicationTask) error
	selectDueFunc         func(ctx context.Context, now time.Time, limit int) ([]domain.PublicationTask, error)
	claimFunc             func(ctx context.Context, id uint, now time.Time) error
	markCompletedFunc     func(ctx context.Context, id uint, messageID int, now time.Time) error
	markFailedFunc        func(ctx context.Context, id uint, errMsg string, now time.Time) error
	markFloodWaitFunc     func(ctx context.Context, id uint, resumeAt time.Time) error
	releaseFunc           func(ctx context.Context, id uint) error
	rescheduleFunc        func(ctx context.Context, id uint, at time.Time) error
	findStuckFunc         func(ctx context.Context, cutoff time.Time, limit int) ([]domain.PublicationTask, error)
	countCreatedTodayFunc func(ctx context.Context, accountID uint, dayStart time.Time) (int64, error)

	created []domain.PublicationTask
}

func (m *mockQueue) Create(ctx context.Context, task *domain.PublicationTask) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, task)
	}
	m.created = append(m.created, *task)
	return nil
}

func (m *mockQueue) GetByID(ctx context.Context, id uint) (*domain.PublicationTask, error) {
	return nil, domain.ErrTaskNotFound
}

func (m *mockQueue) SelectDue(ctx context.Context, now time.Time, limit int) ([]domain.PublicationTask, error) {
	if m.selectDueFunc != nil {
		return m.selectDueFunc(ctx, now, limit)
	}
	return nil, nil
}

func (m *mockQueue) Claim(ctx context.Context, id uint, now time.Time) error {
	if m.claimFunc != nil {
		return m.claimFunc(ctx, id, now)
	}
	return nil
}

func (m *mockQueue) MarkCompleted(ctx context.Context, id uint, messageID int, now time.Time) error {
	if m.markCompletedFunc != nil {
		return m.markCompletedFunc(ctx, id, messageID, now)
	}
	return nil
}

func (m *mockQueue) MarkFailed(ctx context.Context, id uint, errMsg string, now time.Time) error {
	if m.markFailedFunc != nil {
		return m.markFailedFunc(ctx, id, errMsg, now)
	}
	return nil
}

func (m *mockQueue) MarkFloodWait(ctx context.Context, id uint, resumeAt time.Time) error {
	if m.markFloodWaitFunc != nil {
		return m.markFloodWaitFunc(ctx, id, resumeAt)
	}
	return nil
}

func (m *mockQueue) Release(ctx context.Context, id uint) error {
	if m.releaseFunc != nil {
		return m.releaseFunc(ctx, id)
	}
	return nil
}

func (m *mockQueue) Reschedule(ctx context.Context, id uint, at time.Time) error {
	if m.rescheduleFunc != nil {
		return m.rescheduleFunc(ctx, id, at)
	}
	return nil
}

func (m *mockQueue) WakeFloodWaited(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func (m *mockQueue) FindStuck(ctx context.Context, cutoff time.Time, limit int) ([]domain.PublicationTask, error) {
	if m.findStuckFunc != nil {
		return m.findStuckFunc(ctx, cutoff, limit)
	}
	return nil, nil
}

func (m *mockQueue) CountPending(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *mockQueue) CountCreatedToday(ctx context.Context, accountID uint, dayStart time.Time) (int64, error) {
	if m.countCreatedTodayFunc != nil {
		return m.countCreatedTodayFunc(ctx, accountID, dayStart)
	}
	return 0, nil
}

// mockHistoryRepo is a mock implementation of domain.PublicationHistoryRepository
type mockHistoryRepo struct {
	createFunc     func(ctx context.Context, history *domain.PublicationHistory) error
	findRecentFunc func(ctx context.Context, objectID, chatID uint, accountID *uint, since time.Time) (*domain.PublicationHistory, error)

	created []domain.PublicationHistory
}

func (m *mockHistoryRepo) Create(ctx context.Context, history *domain.PublicationHistory) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, history)
	}
	m.created = append(m.created, *history)
	return nil
}

func (m *mockHistoryRepo) FindRecent(ctx context.Context, objectID, chatID uint, accountID *uint, since time.Time) (*domain.PublicationHistory, error) {
	if m.findRecentFunc != nil {
		return m.findRecentFunc(ctx, objectID, chatID, accountID, since)
	}
	return nil, nil
}

func (m *mockHistoryRepo) MarkDeleted(ctx context.Context, id uint, now time.Time) error {
	return nil
}

// mockSettingsRepo is a mock implementation of domain.SettingsRepository
type mockSettingsRepo struct {
	values map[string]bool
}

func (m *mockSettingsRepo) GetBool(ctx context.Context, key string, def bool) (bool, error) {
	if v, ok := m.values[key]; ok {
		return v, nil
	}
	return def, nil
}

func (m *mockSettingsRepo) SetBool(ctx context.Context, key string, value bool) error {
	return nil
}

// mockObjects is a mock implementation of domain.ObjectRepository
type mockObjects struct {
	getByIDFunc func(ctx context.Context, id uint) (*domain.Object, error)
}

func (m *mockObjects) GetByID(ctx context.Context, id uint) (*domain.Object, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &domain.Object{ID: id, UserID: 100, Title: "Квартира", IsActive: true}, nil
}

// mockChats is a mock implementation of domain.ChatRepository
type mockChats struct {
	getByIDFunc       func(ctx context.Context, id uint) (*domain.Chat, error)
	matchingChatsFunc func(ctx context.Context, object *domain.Object) ([]domain.Chat, error)

	incremented []uint
	resetCalled bool
}

func (m *mockChats) GetByID(ctx context.Context, id uint) (*domain.Chat, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &domain.Chat{ID: id, TelegramID: -100200300, IsActive: true}, nil
}

func (m *mockChats) MatchingChats(ctx context.Context, object *domain.Object) ([]domain.Chat, error) {
	if m.matchingChatsFunc != nil {
		return m.matchingChatsFunc(ctx, object)
	}
	return nil, nil
}

func (m *mockChats) IncrementPublications(ctx context.Context, id uint) error {
	m.incremented = append(m.incremented, id)
	return nil
}

func (m *mockChats) ResetDailyCounters(ctx context.Context) error {
	m.resetCalled = true
	return nil
}

// mockAccounts is a mock implementation of domain.AccountRepository
type mockAccounts struct {
	getByIDFunc func(ctx context.Context, id uint) (*domain.TelegramAccount, error)

	lastUsedTouched []uint
	lastErrors      map[uint]string
}

func (m *mockAccounts) GetByID(ctx context.Context, id uint) (*domain.TelegramAccount, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &domain.TelegramAccount{ID: id, Phone: "+79001234567", Mode: domain.PacingSafe, DailyLimit: 20, IsActive: true}, nil
}

func (m *mockAccounts) GetActive(ctx context.Context) ([]domain.TelegramAccount, error) {
	return nil, nil
}

func (m *mockAccounts) TouchLastUsed(ctx context.Context, id uint, now time.Time) error {
	m.lastUsedTouched = append(m.lastUsedTouched, id)
	return nil
}

func (m *mockAccounts) SetLastError(ctx context.Context, id uint, errMsg string) error {
	if m.lastErrors == nil {
		m.lastErrors = make(map[uint]string)
	}
	m.lastErrors[id] = errMsg
	return nil
}

// mockUsersRepo is a mock implementation of domain.UserRepository
type mockUsersRepo struct {
	admins map[int64]bool
}

func (m *mockUsersRepo) GetByID(ctx context.Context, userID int64) (*domain.User, error) {
	return &domain.User{ID: userID}, nil
}

func (m *mockUsersRepo) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	return m.admins[userID], nil
}

// mockConfigs is a mock implementation of domain.AutopublishConfigRepository
type mockConfigs struct {
	configs []domain.AutopublishConfig
}

func (m *mockConfigs) GetEnabled(ctx context.Context) ([]domain.AutopublishConfig, error) {
	return m.configs, nil
}

// mockSubscriptions is a mock implementation of domain.ChatSubscriptionRepository
type mockSubscriptions struct {
	selectRunnableFunc func(ctx context.Context, now time.Time, limit int) ([]domain.ChatSubscriptionTask, error)

	updated []domain.ChatSubscriptionTask
}

func (m *mockSubscriptions) Create(ctx context.Context, task *domain.ChatSubscriptionTask) error {
	return nil
}

func (m *mockSubscriptions) GetByID(ctx context.Context, id uint) (*domain.ChatSubscriptionTask, error) {
	return nil, domain.ErrSubscriptionTaskNotFound
}

func (m *mockSubscriptions) SelectRunnable(ctx context.Context, now time.Time, limit int) ([]domain.ChatSubscriptionTask, error) {
	if m.selectRunnableFunc != nil {
		return m.selectRunnableFunc(ctx, now, limit)
	}
	return nil, nil
}

func (m *mockSubscriptions) Update(ctx context.Context, task *domain.ChatSubscriptionTask) error {
	m.updated = append(m.updated, *task)
	return nil
}

func (m *mockSubscriptions) Resume(ctx context.Context, id uint, now time.Time) error {
	return nil
}

// mockBotSender is a mock implementation of domain.BotSender
type mockBotSender struct {
	sendTextFunc  func(ctx context.Context, chatID int64, text string) (*domain.SendResult, error)
	sendPhotoFunc func(ctx context.Context, chatID int64, caption, photoURL string) (*domain.SendResult, error)

	textSends  int
	photoSends int
}

func (m *mockBotSender) SendText(ctx context.Context, chatID int64, text string) (*domain.SendResult, error) {
	m.textSends++
	if m.sendTextFunc != nil {
		return m.sendTextFunc(ctx, chatID, text)
	}
	return &domain.SendResult{MessageID: 555}, nil
}

func (m *mockBotSender) SendPhoto(ctx context.Context, chatID int64, caption, photoURL string) (*domain.SendResult, error) {
	m.photoSends++
	if m.sendPhotoFunc != nil {
		return m.sendPhotoFunc(ctx, chatID, caption, photoURL)
	}
	return &domain.SendResult{MessageID: 556}, nil
}

// mockAccountSender is a mock implementation of domain.AccountSender
type mockAccountSender struct {
	sendTextFunc func(ctx context.Context, phone string, chatID int64, text string) (*domain.SendResult, error)
	joinChatFunc func(ctx context.Context, phone, link string) (bool, error)

	textSends int
	joins     []string
}

func (m *mockAccountSender) SendText(ctx context.Context, phone string, chatID int64, text string) (*domain.SendResult, error) {
	m.textSends++
	if m.sendTextFunc != nil {
		return m.sendTextFunc(ctx, phone, chatID, text)
	}
	return &domain.SendResult{MessageID: 777}, nil
}

func (m *mockAccountSender) SendPhoto(ctx context.Context, phone string, chatID int64, caption, photoURL string) (*domain.SendResult, error) {
	return &domain.SendResult{MessageID: 778}, nil
}

func (m *mockAccountSender) JoinChat(ctx context.Context, phone, link string) (bool, error) {
	m.joins = append(m.joins, link)
	if m.joinChatFunc != nil {
		return m.joinChatFunc(ctx, phone, link)
	}
	return false, nil
}

// mockRenderer is a mock implementation of domain.TextRenderer
type mockRenderer struct{}

func (m *mockRenderer) Format(object *domain.Object, user *domain.User, isPreview bool, format string) string {
	return object.Title
}

// mockEvents is a mock implementation of domain.EventProducer
type mockEvents struct {
	completed []domain.PublicationEvent
	failed    []domain.PublicationEvent
}

func (m *mockEvents) PublicationCompleted(ctx context.Context, event domain.PublicationEvent) error {
	m.completed = append(m.completed, event)
	return nil
}

func (m *mockEvents) PublicationFailed(ctx context.Context, event domain.PublicationEvent) error {
	m.failed = append(m.failed, event)
	return nil
}

func (m *mockEvents) Close() error {
	return nil
}

// mockLimiter is a mock implementation of domain.RateLimiter
type mockLimiter struct {
	canSendFunc func(ctx context.Context, identity string) (bool, float64)

	recorded []string
}

func (m *mockLimiter) CanSend(ctx context.Context, identity string) (bool, float64) {
	if m.canSendFunc != nil {
		return m.canSendFunc(ctx, identity)
	}
	return true, 0
}

func (m *mockLimiter) RecordSent(identity string) {
	m.recorded = append(m.recorded, identity)
}

func (m *mockLimiter) Status(ctx context.Context, identity string) domain.RateLimitStatus {
	allowed, wait := m.CanSend(ctx, identity)
	return domain.RateLimitStatus{Allowed: allowed, WaitSeconds: wait}
}
