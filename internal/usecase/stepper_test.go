package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/estateflow/publisher/internal/domain"
)

var stepNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestStepper(tasks *mockSubscriptions, accounts *mockAccounts, sender *mockAccountSender) *Stepper {
	s := NewStepper(tasks, accounts, sender, testMetrics, zerolog.Nop())
	s.now = func() time.Time { return stepNow }
	s.jitter = func() time.Duration { return 5 * time.Second }
	return s
}

func subscriptionTask(status domain.SubscriptionStatus, index int) *domain.ChatSubscriptionTask {
	return &domain.ChatSubscriptionTask{
		ID:           1,
		AccountID:    7,
		Status:       status,
		ChatLinks:    `["@chat_one","@chat_two","@chat_three"]`,
		CurrentIndex: index,
		IntervalMode: "safe",
	}
}

func lastUpdate(t *testing.T, tasks *mockSubscriptions) *domain.ChatSubscriptionTask {
	t.Helper()
	if len(tasks.updated) == 0 {
		t.Fatal("Expected the task to be persisted")
	}
	return &tasks.updated[len(tasks.updated)-1]
}

func TestStep_SuccessfulJoinAdvances(t *testing.T) {
	tasks := &mockSubscriptions{}
	sender := &mockAccountSender{}
	s := newTestStepper(tasks, &mockAccounts{}, sender)

	task := subscriptionTask(domain.SubscriptionPending, 0)
	if err := s.Step(context.Background(), task); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got := lastUpdate(t, tasks)
	if got.Status != domain.SubscriptionProcessing {
		t.Errorf("Expected status processing, got %s", got.Status)
	}
	if got.CurrentIndex != 1 {
		t.Errorf("Expected index advanced to 1, got %d", got.CurrentIndex)
	}
	if got.SuccessfulCount != 1 {
		t.Errorf("Expected 1 successful join, got %d", got.SuccessfulCount)
	}
	if got.TotalChats != 3 {
		t.Errorf("Expected total chats 3, got %d", got.TotalChats)
	}
	if got.NextRunAt == nil {
		t.Fatal("Expected a durable next run timestamp")
	}
	// Safe pacing plus the injected 5s jitter.
	want := stepNow.Add(10*time.Minute + 5*time.Second)
	if !got.NextRunAt.Equal(want) {
		t.Errorf("Expected next run at %v, got %v", want, *got.NextRunAt)
	}
	if len(sender.joins) != 1 || sender.joins[0] != "@chat_one" {
		t.Errorf("Expected join of @chat_one, got %v", sender.joins)
	}
}

func TestStep_AlreadyMemberUsesShortInterval(t *testing.T) {
	tasks := &mockSubscriptions{}
	sender := &mockAccountSender{
		joinChatFunc: func(ctx context.Context, phone, link string) (bool, error) {
			return true, nil
		},
	}
	s := newTestStepper(tasks, &mockAccounts{}, sender)

	task := subscriptionTask(domain.SubscriptionProcessing, 0)
	task.TotalChats = 3
	if err := s.Step(context.Background(), task); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got := lastUpdate(t, tasks)
	want := stepNow.Add(time.Minute + 5*time.Second)
	if !got.NextRunAt.Equal(want) {
		t.Errorf("Expected short interval for known chat, got next run %v", *got.NextRunAt)
	}
}

func TestStep_FloodWithinCeilingAutoResumes(t *testing.T) {
	tasks := &mockSubscriptions{}
	sender := &mockAccountSender{
		joinChatFunc: func(ctx context.Context, phone, link string) (bool, error) {
			return false, domain.NewFloodWaitError(120)
		},
	}
	s := newTestStepper(tasks, &mockAccounts{}, sender)

	task := subscriptionTask(domain.SubscriptionProcessing, 1)
	task.TotalChats = 3
	if err := s.Step(context.Background(), task); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got := lastUpdate(t, tasks)
	if got.Status != domain.SubscriptionProcessing {
		t.Errorf("Expected task to stay processing, got %s", got.Status)
	}
	if got.FloodCount != 1 {
		t.Errorf("Expected flood count 1, got %d", got.FloodCount)
	}
	if got.CurrentIndex != 1 {
		t.Errorf("Expected index preserved on flood, got %d", got.CurrentIndex)
	}
	want := stepNow.Add(120 * time.Second)
	if got.NextRunAt == nil || !got.NextRunAt.Equal(want) {
		t.Errorf("Expected auto-resume at %v, got %v", want, got.NextRunAt)
	}
	if got.FloodWaitUntil == nil || !got.FloodWaitUntil.Equal(want) {
		t.Errorf("Expected flood_wait_until %v, got %v", want, got.FloodWaitUntil)
	}
}

func TestStep_FourthFloodPausesTask(t *testing.T) {
	tasks := &mockSubscriptions{}
	sender := &mockAccountSender{
		joinChatFunc: func(ctx context.Context, phone, link string) (bool, error) {
			return false, domain.NewFloodWaitError(60)
		},
	}
	s := newTestStepper(tasks, &mockAccounts{}, sender)

	task := subscriptionTask(domain.SubscriptionProcessing, 1)
	task.TotalChats = 3
	task.FloodCount = 3
	if err := s.Step(context.Background(), task); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got := lastUpdate(t, tasks)
	if got.Status != domain.SubscriptionFloodWait {
		t.Errorf("Expected task paused in flood_wait, got %s", got.Status)
	}
	if got.NextRunAt != nil {
		t.Errorf("Expected no auto-resume for a paused task, got %v", *got.NextRunAt)
	}
	if !strings.Contains(got.ErrorMessage, "ручное возобновление") {
		t.Errorf("Expected pause explanation, got %q", got.ErrorMessage)
	}
}

func TestStep_FastFailLinkSkipped(t *testing.T) {
	tasks := &mockSubscriptions{}
	sender := &mockAccountSender{
		joinChatFunc: func(ctx context.Context, phone, link string) (bool, error) {
			return false, domain.ErrInvalidChatLink
		},
	}
	s := newTestStepper(tasks, &mockAccounts{}, sender)

	task := subscriptionTask(domain.SubscriptionProcessing, 0)
	task.TotalChats = 3
	if err := s.Step(context.Background(), task); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got := lastUpdate(t, tasks)
	if got.CurrentIndex != 1 {
		t.Errorf("Expected bad link skipped, index=%d", got.CurrentIndex)
	}
	if got.SuccessfulCount != 0 {
		t.Errorf("Expected no successful joins, got %d", got.SuccessfulCount)
	}
	if got.Status != domain.SubscriptionProcessing {
		t.Errorf("Expected task to continue, got %s", got.Status)
	}
	want := stepNow.Add(time.Minute + 5*time.Second)
	if got.NextRunAt == nil || !got.NextRunAt.Equal(want) {
		t.Errorf("Expected short retry interval after bad link, got %v", got.NextRunAt)
	}
}

func TestStep_SuccessResetsFloodCount(t *testing.T) {
	tasks := &mockSubscriptions{}
	s := newTestStepper(tasks, &mockAccounts{}, &mockAccountSender{})

	task := subscriptionTask(domain.SubscriptionProcessing, 0)
	task.TotalChats = 3
	task.FloodCount = 2
	if err := s.Step(context.Background(), task); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if got := lastUpdate(t, tasks); got.FloodCount != 0 {
		t.Errorf("Expected flood count reset after success, got %d", got.FloodCount)
	}
}

func TestStep_LastLinkCompletesTask(t *testing.T) {
	tasks := &mockSubscriptions{}
	s := newTestStepper(tasks, &mockAccounts{}, &mockAccountSender{})

	task := subscriptionTask(domain.SubscriptionProcessing, 2)
	task.TotalChats = 3
	task.SuccessfulCount = 2
	if err := s.Step(context.Background(), task); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got := lastUpdate(t, tasks)
	if got.Status != domain.SubscriptionCompleted {
		t.Errorf("Expected task completed, got %s", got.Status)
	}
	if got.NextRunAt != nil {
		t.Error("Expected no next run for a completed task")
	}
	if !strings.Contains(got.ErrorMessage, "3 из 3") {
		t.Errorf("Expected completion summary, got %q", got.ErrorMessage)
	}
}

func TestStep_MalformedLinksFailTask(t *testing.T) {
	tasks := &mockSubscriptions{}
	s := newTestStepper(tasks, &mockAccounts{}, &mockAccountSender{})

	task := subscriptionTask(domain.SubscriptionPending, 0)
	task.ChatLinks = "not json"
	if err := s.Step(context.Background(), task); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got := lastUpdate(t, tasks)
	if got.Status != domain.SubscriptionFailed {
		t.Errorf("Expected task failed, got %s", got.Status)
	}
}

func TestStep_MissingAccountFailsTask(t *testing.T) {
	tasks := &mockSubscriptions{}
	accounts := &mockAccounts{
		getByIDFunc: func(ctx context.Context, id uint) (*domain.TelegramAccount, error) {
			return nil, domain.ErrAccountNotFound
		},
	}
	s := newTestStepper(tasks, accounts, &mockAccountSender{})

	task := subscriptionTask(domain.SubscriptionProcessing, 0)
	task.TotalChats = 3
	if err := s.Step(context.Background(), task); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got := lastUpdate(t, tasks)
	if got.Status != domain.SubscriptionFailed {
		t.Errorf("Expected task failed, got %s", got.Status)
	}
	if got.NextRunAt != nil {
		t.Error("Expected no next run for a failed task")
	}
}

func TestProcessDue_StepsEveryRunnableTask(t *testing.T) {
	tasks := &mockSubscriptions{
		selectRunnableFunc: func(ctx context.Context, now time.Time, limit int) ([]domain.ChatSubscriptionTask, error) {
			return []domain.ChatSubscriptionTask{
				*subscriptionTask(domain.SubscriptionPending, 0),
				*subscriptionTask(domain.SubscriptionProcessing, 1),
			}, nil
		},
	}
	sender := &mockAccountSender{}
	s := newTestStepper(tasks, &mockAccounts{}, sender)

	if err := s.ProcessDue(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(sender.joins) != 2 {
		t.Errorf("Expected 2 join attempts, got %d", len(sender.joins))
	}
}

func TestProcessDue_SelectErrorPropagates(t *testing.T) {
	wantErr := errors.New("db down")
	tasks := &mockSubscriptions{
		selectRunnableFunc: func(ctx context.Context, now time.Time, limit int) ([]domain.ChatSubscriptionTask, error) {
			return nil, wantErr
		},
	}
	s := newTestStepper(tasks, &mockAccounts{}, &mockAccountSender{})

	if err := s.ProcessDue(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("Expected select error to propagate, got %v", err)
	}
}
