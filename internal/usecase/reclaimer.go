package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/estateflow/publisher/config"
	"github.com/estateflow/publisher/internal/domain"
	"github.com/estateflow/publisher/internal/infrastructure/metrics"
)

// reclaimBatchSize bounds one reclaim pass.
const reclaimBatchSize = 100

// Reclaimer heals tasks left in processing by a crashed or restarted worker:
// without it such tasks would be unpickable forever.
type Reclaimer struct {
	queue domain.PublicationQueueRepository

	threshold   time.Duration
	maxAttempts int

	metrics *metrics.Metrics
	logger  zerolog.Logger

	now func() time.Time
}

// NewReclaimer creates a new stuck-task reclaimer
func NewReclaimer(
	queue domain.PublicationQueueRepository,
	cfg *config.DispatchConfig,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Reclaimer {
	return &Reclaimer{
		queue:       queue,
		threshold:   cfg.StuckThreshold,
		maxAttempts: cfg.MaxAttempts,
		metrics:     m,
		logger:      logger.With().Str("component", "reclaimer").Logger(),
		now:         time.Now,
	}
}

// Run resolves all tasks stuck in processing beyond the threshold: each gets
// its attempt counter bumped, then either goes back to pending for a retry or,
// at the ceiling, is failed with a timeout explanation.
func (r *Reclaimer) Run(ctx context.Context) error {
	now := r.now()
	cutoff := now.Add(-r.threshold)

	tasks, err := r.queue.FindStuck(ctx, cutoff, reclaimBatchSize)
	if err != nil {
		return err
	}

	for i := range tasks {
		task := &tasks[i]
		log := r.logger.With().Uint("task_id", task.ID).Int("attempts", task.Attempts).Logger()

		if task.Attempts+1 >= r.maxAttempts {
			msg := "задача прервана: превышено время обработки отправки"
			if err := r.queue.MarkFailed(ctx, task.ID, msg, now); err != nil {
				log.Error().Err(err).Msg("Failed to fail stuck task")
				continue
			}
			r.metrics.TasksTimedOut.Inc()
			log.Warn().Msg("Stuck task reached attempt ceiling, failed")
			continue
		}

		if err := r.queue.Release(ctx, task.ID); err != nil {
			log.Error().Err(err).Msg("Failed to release stuck task")
			continue
		}
		r.metrics.TasksReclaimed.Inc()
		log.Info().Msg("Stuck task returned to pending")
	}

	return nil
}
