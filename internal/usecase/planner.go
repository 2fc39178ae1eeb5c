package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/estateflow/publisher/internal/domain"
	"github.com/estateflow/publisher/internal/schedule"
)

// Planner turns enabled autopublish policies into today's publication tasks.
// It runs once per day at the window opening; overflow beyond an account's
// daily limit is simply left for tomorrow's run.
type Planner struct {
	configs  domain.AutopublishConfigRepository
	objects  domain.ObjectRepository
	chats    domain.ChatRepository
	accounts domain.AccountRepository
	queue    domain.PublicationQueueRepository

	calc   *schedule.Calculator
	logger zerolog.Logger

	now func() time.Time
}

// NewPlanner creates a new autopublish planner
func NewPlanner(
	configs domain.AutopublishConfigRepository,
	objects domain.ObjectRepository,
	chats domain.ChatRepository,
	accounts domain.AccountRepository,
	queue domain.PublicationQueueRepository,
	calc *schedule.Calculator,
	logger zerolog.Logger,
) *Planner {
	return &Planner{
		configs:  configs,
		objects:  objects,
		chats:    chats,
		accounts: accounts,
		queue:    queue,
		calc:     calc,
		logger:   logger.With().Str("component", "autopublish_planner").Logger(),
		now:      time.Now,
	}
}

// Run generates today's task batch from all enabled configs. Per-config
// failures are logged and skipped; a broken policy never blocks the others.
func (p *Planner) Run(ctx context.Context) error {
	now := p.now()

	if err := p.chats.ResetDailyCounters(ctx); err != nil {
		p.logger.Error().Err(err).Msg("Failed to reset daily chat counters")
	}

	configs, err := p.configs.GetEnabled(ctx)
	if err != nil {
		return err
	}

	p.logger.Info().Int("configs", len(configs)).Msg("Planning autopublish tasks")

	for i := range configs {
		p.planConfig(ctx, &configs[i], now)
	}

	return nil
}

func (p *Planner) planConfig(ctx context.Context, cfg *domain.AutopublishConfig, now time.Time) {
	log := p.logger.With().Uint("config_id", cfg.ID).Uint("object_id", cfg.ObjectID).Logger()

	object, err := p.objects.GetByID(ctx, cfg.ObjectID)
	if err != nil {
		log.Warn().Err(err).Msg("Autopublish object missing, config skipped")
		return
	}
	if !object.IsActive {
		log.Debug().Msg("Object inactive, config skipped")
		return
	}

	if cfg.BotEnabled {
		p.planBotTasks(ctx, cfg, object, now, log)
	}

	if cfg.AccountsConfig != "" {
		p.planAccountTasks(ctx, cfg, now, log)
	}
}

// planBotTasks creates bot tasks for every chat whose filters match the
// object, spaced at the normal cadence from the window opening.
func (p *Planner) planBotTasks(ctx context.Context, cfg *domain.AutopublishConfig, object *domain.Object, now time.Time, log zerolog.Logger) {
	chats, err := p.chats.MatchingChats(ctx, object)
	if err != nil {
		log.Error().Err(err).Msg("Failed to match chats for bot autopublish")
		return
	}
	if len(chats) == 0 {
		log.Debug().Msg("No chats match the object filters")
		return
	}

	start := p.calc.Window().NextOpening(now)
	times := p.calc.Times(domain.PacingNormal, len(chats), len(chats), start, 0)

	created := 0
	for i, chat := range chats {
		t := times[i]
		task := &domain.PublicationTask{
			ObjectID:      cfg.ObjectID,
			ChatID:        chat.ID,
			UserID:        &cfg.UserID,
			Kind:          domain.ActorBot,
			Mode:          domain.ModeAutopublish,
			Status:        domain.StatusPending,
			ScheduledTime: &t,
		}
		if err := p.queue.Create(ctx, task); err != nil {
			log.Error().Err(err).Uint("chat_id", chat.ID).Msg("Failed to create bot autopublish task")
			continue
		}
		created++
	}

	log.Info().Int("created", created).Msg("Bot autopublish tasks planned")
}

// planAccountTasks creates account tasks per the config's account/chat
// bindings, paced by each account's mode and capped by its remaining daily
// limit.
func (p *Planner) planAccountTasks(ctx context.Context, cfg *domain.AutopublishConfig, now time.Time, log zerolog.Logger) {
	var entries []domain.AccountChats
	if err := json.Unmarshal([]byte(cfg.AccountsConfig), &entries); err != nil {
		log.Error().Err(err).Msg("Malformed accounts config, skipped")
		return
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := p.calc.Window().NextOpening(now)

	for _, entry := range entries {
		account, err := p.accounts.GetByID(ctx, entry.AccountID)
		if err != nil {
			log.Warn().Err(err).Uint("account_id", entry.AccountID).Msg("Autopublish account missing, entry skipped")
			continue
		}
		if !account.IsActive {
			log.Debug().Uint("account_id", account.ID).Msg("Account inactive, entry skipped")
			continue
		}

		used, err := p.queue.CountCreatedToday(ctx, account.ID, dayStart)
		if err != nil {
			log.Error().Err(err).Uint("account_id", account.ID).Msg("Failed to count today's tasks")
			continue
		}

		remaining := account.DailyLimit - int(used)
		if remaining <= 0 {
			log.Debug().Uint("account_id", account.ID).Msg("Daily limit exhausted, entry skipped")
			continue
		}

		fix := time.Duration(account.FixIntervalMinutes) * time.Minute
		times := p.calc.TimesBounded(account.Mode, len(entry.ChatIDs), remaining, start, fix)

		created := 0
		for i := range times {
			chatID := entry.ChatIDs[i]
			t := times[i]
			accountID := account.ID
			task := &domain.PublicationTask{
				ObjectID:      cfg.ObjectID,
				ChatID:        chatID,
				AccountID:     &accountID,
				UserID:        &cfg.UserID,
				Kind:          domain.ActorAccount,
				Mode:          domain.ModeAutopublish,
				Status:        domain.StatusPending,
				ScheduledTime: &t,
			}
			if err := p.queue.Create(ctx, task); err != nil {
				log.Error().Err(err).Uint("chat_id", chatID).Msg("Failed to create account autopublish task")
				continue
			}
			created++
		}

		log.Info().
			Uint("account_id", account.ID).
			Str("mode", string(account.Mode)).
			Int("created", created).
			Int("requested", len(entry.ChatIDs)).
			Msg("Account autopublish tasks planned")
	}
}
