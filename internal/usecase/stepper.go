package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/estateflow/publisher/internal/domain"
	"github.com/estateflow/publisher/internal/infrastructure/metrics"
)

const (
	// Pacing between join attempts per interval mode.
	joinIntervalSafe       = 10 * time.Minute
	joinIntervalAggressive = 2 * time.Minute

	// joinIntervalShort is used after fast-fail links and for chats the
	// account already belongs to.
	joinIntervalShort = time.Minute

	// maxConsecutiveFloods is how many flood signals in a row are still
	// auto-resumed; one more pauses the task for an operator.
	maxConsecutiveFloods = 3

	stepperBatchSize = 20
)

// Stepper walks an account through subscribing to a list of chat links, one
// link per invocation. All waiting is expressed as a persisted next_run_at so
// a task spanning hours survives any restart mid-way.
type Stepper struct {
	tasks    domain.ChatSubscriptionRepository
	accounts domain.AccountRepository
	sender   domain.AccountSender

	metrics *metrics.Metrics
	logger  zerolog.Logger

	now    func() time.Time
	jitter func() time.Duration
}

// NewStepper creates a new chat subscription stepper
func NewStepper(
	tasks domain.ChatSubscriptionRepository,
	accounts domain.AccountRepository,
	sender domain.AccountSender,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Stepper {
	return &Stepper{
		tasks:    tasks,
		accounts: accounts,
		sender:   sender,
		metrics:  m,
		logger:   logger.With().Str("component", "subscription_stepper").Logger(),
		now:      time.Now,
		jitter:   defaultJitter,
	}
}

// defaultJitter spreads join attempts by a random 1-99 seconds so accounts
// stepping in parallel do not hit Telegram in lockstep.
func defaultJitter() time.Duration {
	return time.Duration(1+rand.Intn(99)) * time.Second
}

// ProcessDue advances every runnable subscription task by one link.
func (s *Stepper) ProcessDue(ctx context.Context) error {
	tasks, err := s.tasks.SelectRunnable(ctx, s.now(), stepperBatchSize)
	if err != nil {
		return err
	}

	for i := range tasks {
		if err := s.Step(ctx, &tasks[i]); err != nil {
			s.logger.Error().Err(err).Uint("task_id", tasks[i].ID).Msg("Subscription step failed")
		}
	}

	return nil
}

// Step attempts the next unsubscribed chat link of the task and persists the
// resulting state. Per-link errors are isolated to that link; they never fail
// the whole task.
func (s *Stepper) Step(ctx context.Context, task *domain.ChatSubscriptionTask) error {
	log := s.logger.With().
		Uint("task_id", task.ID).
		Uint("account_id", task.AccountID).
		Int("index", task.CurrentIndex).
		Logger()

	var links []string
	if err := json.Unmarshal([]byte(task.ChatLinks), &links); err != nil {
		task.Status = domain.SubscriptionFailed
		task.ErrorMessage = "некорректный список чатов"
		task.NextRunAt = nil
		return s.tasks.Update(ctx, task)
	}

	if task.Status == domain.SubscriptionPending {
		task.Status = domain.SubscriptionProcessing
		task.TotalChats = len(links)
	}

	if task.CurrentIndex >= len(links) {
		return s.complete(ctx, task, log)
	}

	account, err := s.accounts.GetByID(ctx, task.AccountID)
	if err != nil {
		task.Status = domain.SubscriptionFailed
		task.ErrorMessage = fmt.Sprintf("аккаунт не найден: %v", err)
		task.NextRunAt = nil
		return s.tasks.Update(ctx, task)
	}

	now := s.now()
	link := links[task.CurrentIndex]

	alreadyMember, joinErr := s.sender.JoinChat(ctx, account.Phone, link)

	if joinErr != nil {
		if wait, ok := domain.AsFloodWait(joinErr); ok {
			return s.handleFlood(ctx, task, wait, now, log)
		}

		// Fast-fail link: expired invite, chat not found, malformed link.
		// The link is not worth retrying; advance past it.
		s.metrics.ChatJoinErrors.Inc()
		log.Warn().Err(joinErr).Str("link", link).Msg("Chat join failed, link skipped")

		task.CurrentIndex++
		task.ErrorMessage = fmt.Sprintf("чат %s: %v", link, joinErr)
		return s.scheduleNext(ctx, task, len(links), joinIntervalShort, now, log)
	}

	task.CurrentIndex++
	task.SuccessfulCount++
	task.FloodCount = 0
	s.metrics.ChatJoinsTotal.Inc()

	interval := s.interval(task)
	if alreadyMember {
		interval = joinIntervalShort
	}

	log.Info().Str("link", link).Bool("already_member", alreadyMember).Msg("Chat joined")
	return s.scheduleNext(ctx, task, len(links), interval, now, log)
}

// interval returns the base pacing for the task's interval mode.
func (s *Stepper) interval(task *domain.ChatSubscriptionTask) time.Duration {
	if task.IntervalMode == "aggressive" {
		return joinIntervalAggressive
	}
	return joinIntervalSafe
}

// scheduleNext persists the resumption instant for the following link, or
// completes the task when none remain.
func (s *Stepper) scheduleNext(ctx context.Context, task *domain.ChatSubscriptionTask, total int, base time.Duration, now time.Time, log zerolog.Logger) error {
	if task.CurrentIndex >= total {
		return s.complete(ctx, task, log)
	}

	next := now.Add(base + s.jitter())
	task.NextRunAt = &next
	task.Status = domain.SubscriptionProcessing
	return s.tasks.Update(ctx, task)
}

// handleFlood applies the flood escalation policy: up to maxConsecutiveFloods
// signals auto-resume after the advised wait; one more pauses the task until
// an operator resumes it. The current index is preserved either way.
func (s *Stepper) handleFlood(ctx context.Context, task *domain.ChatSubscriptionTask, wait time.Duration, now time.Time, log zerolog.Logger) error {
	task.FloodCount++
	s.metrics.FloodWaitsTotal.WithLabelValues("subscription").Inc()

	if task.FloodCount <= maxConsecutiveFloods {
		until := now.Add(wait)
		task.FloodWaitUntil = &until
		task.NextRunAt = &until
		task.Status = domain.SubscriptionProcessing
		log.Warn().Dur("wait", wait).Int("flood_count", task.FloodCount).Msg("Flood wait, auto-resume scheduled")
		return s.tasks.Update(ctx, task)
	}

	task.Status = domain.SubscriptionFloodWait
	task.NextRunAt = nil
	task.ErrorMessage = fmt.Sprintf("приостановлено после %d flood-ошибок подряд, требуется ручное возобновление", task.FloodCount)
	s.metrics.SubscriptionsPaused.Inc()
	log.Warn().Int("flood_count", task.FloodCount).Msg("Too many consecutive floods, task paused")
	return s.tasks.Update(ctx, task)
}

// complete finishes the task with a human-readable summary.
func (s *Stepper) complete(ctx context.Context, task *domain.ChatSubscriptionTask, log zerolog.Logger) error {
	task.Status = domain.SubscriptionCompleted
	task.NextRunAt = nil
	task.ErrorMessage = fmt.Sprintf("Подписка завершена: %d из %d чатов", task.SuccessfulCount, task.TotalChats)
	log.Info().Int("successful", task.SuccessfulCount).Int("total", task.TotalChats).Msg("Subscription task completed")
	return s.tasks.Update(ctx, task)
}
