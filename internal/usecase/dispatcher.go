package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/estateflow/publisher/config"
	"github.com/estateflow/publisher/internal/domain"
	"github.com/estateflow/publisher/internal/dupguard"
	"github.com/estateflow/publisher/internal/infrastructure/metrics"
	"github.com/estateflow/publisher/internal/schedule"
)

// Dispatcher drains due publication tasks: claims them one at a time, performs
// the send through the actor matching the task kind, and settles the task's
// final state. One bad task never aborts the rest of the cycle.
type Dispatcher struct {
	queue    domain.PublicationQueueRepository
	history  domain.PublicationHistoryRepository
	objects  domain.ObjectRepository
	chats    domain.ChatRepository
	accounts domain.AccountRepository
	users    domain.UserRepository

	guard    *dupguard.Guard
	limiter  domain.RateLimiter
	renderer domain.TextRenderer

	botSender     domain.BotSender
	accountSender domain.AccountSender
	events        domain.EventProducer

	window      schedule.Window
	batchSize   int
	maxAttempts int

	metrics *metrics.Metrics
	logger  zerolog.Logger

	now func() time.Time
}

// DispatcherParams groups the dispatcher's many collaborators.
type DispatcherParams struct {
	fx.In

	Queue    domain.PublicationQueueRepository
	History  domain.PublicationHistoryRepository
	Objects  domain.ObjectRepository
	Chats    domain.ChatRepository
	Accounts domain.AccountRepository
	Users    domain.UserRepository

	Guard    *dupguard.Guard
	Limiter  domain.RateLimiter
	Renderer domain.TextRenderer

	BotSender     domain.BotSender
	AccountSender domain.AccountSender
	Events        domain.EventProducer

	Config  *config.DispatchConfig
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

// NewDispatcher creates a new dispatch worker
func NewDispatcher(p DispatcherParams) *Dispatcher {
	return &Dispatcher{
		queue:         p.Queue,
		history:       p.History,
		objects:       p.Objects,
		chats:         p.Chats,
		accounts:      p.Accounts,
		users:         p.Users,
		guard:         p.Guard,
		limiter:       p.Limiter,
		renderer:      p.Renderer,
		botSender:     p.BotSender,
		accountSender: p.AccountSender,
		events:        p.Events,
		window: schedule.Window{
			StartHour: p.Config.WindowStartHour,
			EndHour:   p.Config.WindowEndHour,
		},
		batchSize:   p.Config.BatchSize,
		maxAttempts: p.Config.MaxAttempts,
		metrics:     p.Metrics,
		logger:      p.Logger.With().Str("component", "dispatcher").Logger(),
		now:         time.Now,
	}
}

// RunCycle wakes expired flood_wait tasks, selects the due batch and executes
// it. Per-task errors are recorded on the task row and never propagate.
func (d *Dispatcher) RunCycle(ctx context.Context) error {
	now := d.now()

	woken, err := d.queue.WakeFloodWaited(ctx, now)
	if err != nil {
		d.logger.Error().Err(err).Msg("Failed to wake flood_wait tasks")
	} else if woken > 0 {
		d.logger.Info().Int64("count", woken).Msg("Flood wait expired, tasks returned to pending")
	}

	tasks, err := d.queue.SelectDue(ctx, now, d.batchSize)
	if err != nil {
		return fmt.Errorf("failed to select due tasks: %w", err)
	}

	for i := range tasks {
		d.ExecuteTask(ctx, &tasks[i])
	}

	if pending, err := d.queue.CountPending(ctx); err == nil {
		d.metrics.PendingTasks.Set(float64(pending))
	}

	return nil
}

// ExecuteTask runs one publication task to a settled state: completed, failed,
// flood_wait, or back to pending for a later retry.
func (d *Dispatcher) ExecuteTask(ctx context.Context, task *domain.PublicationTask) {
	started := d.now()
	defer func() {
		d.metrics.DispatchDuration.Observe(d.now().Sub(started).Seconds())
	}()

	log := d.logger.With().
		Uint("task_id", task.ID).
		Uint("object_id", task.ObjectID).
		Uint("chat_id", task.ChatID).
		Str("kind", string(task.Kind)).
		Str("mode", string(task.Mode)).
		Logger()

	now := d.now()

	// Bot autopublish only fires inside the daily window; outside it the task
	// is pushed to the window's next opening and stays pending.
	if task.Kind == domain.ActorBot && task.Mode == domain.ModeAutopublish && !d.window.Contains(now) {
		next := d.window.NextOpening(now)
		if err := d.queue.Reschedule(ctx, task.ID, next); err != nil {
			log.Error().Err(err).Msg("Failed to reschedule task outside publish window")
			return
		}
		log.Info().Time("next", next).Msg("Outside publish window, task rescheduled")
		return
	}

	if err := d.queue.Claim(ctx, task.ID, now); err != nil {
		if errors.Is(err, domain.ErrTaskAlreadyClaimed) {
			log.Debug().Msg("Task already claimed by another worker")
			return
		}
		log.Error().Err(err).Msg("Failed to claim task")
		return
	}

	object, err := d.objects.GetByID(ctx, task.ObjectID)
	if err != nil {
		d.failTask(ctx, task, fmt.Sprintf("объект не найден: %v", err), log)
		return
	}

	chat, err := d.chats.GetByID(ctx, task.ChatID)
	if err != nil {
		d.failTask(ctx, task, fmt.Sprintf("чат не найден: %v", err), log)
		return
	}

	userID := object.UserID
	if task.UserID != nil {
		userID = *task.UserID
	}

	// Autopublish is exempt from the 24h duplicate rule: each recurrence is an
	// intentional re-publish.
	if task.Mode != domain.ModeAutopublish {
		decision, err := d.guard.CanPublish(ctx, task.ObjectID, task.ChatID, task.AccountID, publicationType(task), userID)
		if err != nil {
			log.Error().Err(err).Msg("Duplicate check failed")
			d.retryOrFail(ctx, task, fmt.Sprintf("ошибка проверки дубликатов: %v", err), log)
			return
		}
		if !decision.Allowed {
			d.metrics.DuplicatesBlocked.Inc()
			d.failTask(ctx, task, decision.Reason, log)
			return
		}
	}

	user, err := d.users.GetByID(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load user, rendering without owner data")
	}

	text := d.renderer.Format(object, user, false, "")

	var account *domain.TelegramAccount
	if task.Kind == domain.ActorAccount {
		account, err = d.resolveAccount(ctx, task, log)
		if err != nil {
			return // task already settled
		}

		// The sliding-window limiter is orthogonal to the pacing schedule:
		// both must allow the send.
		if allowed, wait := d.limiter.CanSend(ctx, account.Phone); !allowed {
			d.metrics.RateLimitDeferrals.Inc()
			resume := now.Add(time.Duration(wait * float64(time.Second)))
			if err := d.queue.MarkFloodWait(ctx, task.ID, resume); err != nil {
				log.Error().Err(err).Msg("Failed to defer rate-limited task")
			} else {
				log.Info().Float64("wait_seconds", wait).Msg("Rate limit reached, task deferred")
			}
			return
		}
	}

	result, sendErr := d.send(ctx, task, chat, account, text, object.PhotoURL)
	if sendErr != nil {
		d.handleSendError(ctx, task, account, sendErr, log)
		return
	}

	d.settleSuccess(ctx, task, account, result, log)
}

// resolveAccount loads and validates the sending account; it settles the task
// itself when the account cannot serve and returns a non-nil error.
func (d *Dispatcher) resolveAccount(ctx context.Context, task *domain.PublicationTask, log zerolog.Logger) (*domain.TelegramAccount, error) {
	if task.AccountID == nil {
		d.failTask(ctx, task, "задача аккаунта без ссылки на аккаунт", log)
		return nil, domain.ErrAccountNotFound
	}

	account, err := d.accounts.GetByID(ctx, *task.AccountID)
	if err != nil {
		d.failTask(ctx, task, fmt.Sprintf("аккаунт не найден: %v", err), log)
		return nil, err
	}

	if !account.IsActive {
		d.failTask(ctx, task, "аккаунт отключён", log)
		return nil, domain.ErrAccountInactive
	}

	return account, nil
}

// send routes the message through the actor matching the task kind.
func (d *Dispatcher) send(ctx context.Context, task *domain.PublicationTask, chat *domain.Chat, account *domain.TelegramAccount, text, photoURL string) (*domain.SendResult, error) {
	if task.Kind == domain.ActorAccount {
		if photoURL != "" {
			return d.accountSender.SendPhoto(ctx, account.Phone, chat.TelegramID, text, photoURL)
		}
		return d.accountSender.SendText(ctx, account.Phone, chat.TelegramID, text)
	}

	if photoURL != "" {
		return d.botSender.SendPhoto(ctx, chat.TelegramID, text, photoURL)
	}
	return d.botSender.SendText(ctx, chat.TelegramID, text)
}

// handleSendError settles a task whose send failed, per the error taxonomy:
// flood waits park the task, configuration and hard provider errors are
// terminal, everything else retries up to the attempt ceiling.
func (d *Dispatcher) handleSendError(ctx context.Context, task *domain.PublicationTask, account *domain.TelegramAccount, sendErr error, log zerolog.Logger) {
	if account != nil {
		if err := d.accounts.SetLastError(ctx, account.ID, sendErr.Error()); err != nil {
			log.Error().Err(err).Msg("Failed to record account error")
		}
	}

	if wait, ok := domain.AsFloodWait(sendErr); ok {
		d.metrics.FloodWaitsTotal.WithLabelValues(string(task.Kind)).Inc()
		resume := d.now().Add(wait)
		if err := d.queue.MarkFloodWait(ctx, task.ID, resume); err != nil {
			log.Error().Err(err).Msg("Failed to park flood-waited task")
			return
		}
		log.Warn().Dur("wait", wait).Msg("Flood wait received, task parked")
		return
	}

	if domain.IsConfigurationError(sendErr) || errors.Is(sendErr, domain.ErrChatUnreachable) {
		d.failTask(ctx, task, sendErr.Error(), log)
		return
	}

	d.retryOrFail(ctx, task, sendErr.Error(), log)
}

// retryOrFail releases the task for another attempt, or fails it once the
// attempt ceiling is reached.
func (d *Dispatcher) retryOrFail(ctx context.Context, task *domain.PublicationTask, errMsg string, log zerolog.Logger) {
	if task.Attempts+1 >= d.maxAttempts {
		d.failTask(ctx, task, errMsg, log)
		return
	}

	if err := d.queue.Release(ctx, task.ID); err != nil {
		log.Error().Err(err).Msg("Failed to release task for retry")
		return
	}
	log.Warn().Str("error", errMsg).Int("attempts", task.Attempts+1).Msg("Transient send error, task released for retry")
}

// failTask terminally fails the task and emits the failure event.
func (d *Dispatcher) failTask(ctx context.Context, task *domain.PublicationTask, errMsg string, log zerolog.Logger) {
	if err := d.queue.MarkFailed(ctx, task.ID, errMsg, d.now()); err != nil {
		log.Error().Err(err).Msg("Failed to mark task failed")
		return
	}

	d.metrics.PublicationErrors.WithLabelValues(string(task.Kind), "terminal").Inc()
	log.Warn().Str("error", errMsg).Msg("Task failed")

	event := domain.PublicationEvent{
		TaskID:    task.ID,
		ObjectID:  task.ObjectID,
		ChatID:    task.ChatID,
		AccountID: task.AccountID,
		Kind:      task.Kind,
		Mode:      task.Mode,
		Error:     errMsg,
		At:        d.now(),
	}
	if err := d.events.PublicationFailed(ctx, event); err != nil {
		log.Error().Err(err).Msg("Failed to emit publication.failed event")
	}
}

// settleSuccess writes history, bumps counters, completes the task and, for
// autopublish, synthesizes tomorrow's task.
func (d *Dispatcher) settleSuccess(ctx context.Context, task *domain.PublicationTask, account *domain.TelegramAccount, result *domain.SendResult, log zerolog.Logger) {
	now := d.now()

	if account != nil {
		d.limiter.RecordSent(account.Phone)
		if err := d.accounts.TouchLastUsed(ctx, account.ID, now); err != nil {
			log.Error().Err(err).Msg("Failed to stamp account last_used")
		}
	}

	// History is written before the task is closed: it is the ground truth for
	// duplicate detection, so a crash between the two leaves a conservative
	// state (duplicate blocked, task re-sent never happens).
	history := &domain.PublicationHistory{
		ObjectID:    task.ObjectID,
		ChatID:      task.ChatID,
		AccountID:   task.AccountID,
		PublishedAt: now,
		MessageID:   result.MessageID,
	}
	if err := d.history.Create(ctx, history); err != nil {
		log.Error().Err(err).Msg("Failed to write publication history")
		d.retryOrFail(ctx, task, "не удалось записать историю публикации", log)
		return
	}

	if err := d.chats.IncrementPublications(ctx, task.ChatID); err != nil {
		log.Error().Err(err).Msg("Failed to bump chat publication counters")
	}

	if err := d.queue.MarkCompleted(ctx, task.ID, result.MessageID, now); err != nil {
		log.Error().Err(err).Msg("Failed to mark task completed")
		return
	}

	d.metrics.PublicationsTotal.WithLabelValues(string(task.Kind), string(task.Mode)).Inc()
	log.Info().Int("message_id", result.MessageID).Msg("Publication sent")

	event := domain.PublicationEvent{
		TaskID:    task.ID,
		ObjectID:  task.ObjectID,
		ChatID:    task.ChatID,
		AccountID: task.AccountID,
		Kind:      task.Kind,
		Mode:      task.Mode,
		MessageID: result.MessageID,
		At:        now,
	}
	if err := d.events.PublicationCompleted(ctx, event); err != nil {
		log.Error().Err(err).Msg("Failed to emit publication.completed event")
	}

	if task.Mode == domain.ModeAutopublish {
		d.scheduleRecurrence(ctx, task, now, log)
	}
}

// scheduleRecurrence creates a fresh task for the same (object, chat, account)
// at tomorrow's window opening. The completed row is never reused: recurrence
// by row recreation keeps history append-only.
func (d *Dispatcher) scheduleRecurrence(ctx context.Context, task *domain.PublicationTask, now time.Time, log zerolog.Logger) {
	next := d.window.OpenAt(now.AddDate(0, 0, 1))

	recurrence := &domain.PublicationTask{
		ObjectID:      task.ObjectID,
		ChatID:        task.ChatID,
		AccountID:     task.AccountID,
		UserID:        task.UserID,
		Kind:          task.Kind,
		Mode:          domain.ModeAutopublish,
		Status:        domain.StatusPending,
		ScheduledTime: &next,
	}

	if err := d.queue.Create(ctx, recurrence); err != nil {
		log.Error().Err(err).Msg("Failed to schedule autopublish recurrence")
		return
	}

	log.Info().Time("next", next).Msg("Autopublish recurrence scheduled")
}

// publicationType maps a task to its duplicate-policy type key.
func publicationType(task *domain.PublicationTask) domain.PublicationType {
	if task.Mode == domain.ModeAutopublish {
		if task.Kind == domain.ActorAccount {
			return domain.TypeAutopublishAccount
		}
		return domain.TypeAutopublishBot
	}
	if task.Kind == domain.ActorAccount {
		return domain.TypeManualAccount
	}
	return domain.TypeManualBot
}
