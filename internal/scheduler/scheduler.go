// Package scheduler drives the engine's background loops: the dispatch cycle,
// the stuck-task reclaimer, the chat subscription stepper and the daily
// autopublish planner.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/estateflow/publisher/config"
	"github.com/estateflow/publisher/internal/usecase"
)

const (
	reclaimInterval = time.Minute
	stepperInterval = 30 * time.Second
	plannerInterval = time.Minute
)

// Scheduler owns the periodic loops around the use cases.
type Scheduler struct {
	dispatcher *usecase.Dispatcher
	planner    *usecase.Planner
	reclaimer  *usecase.Reclaimer
	stepper    *usecase.Stepper
	cfg        *config.DispatchConfig
	logger     zerolog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup

	// lastPlannedDay guards the planner against running twice on one day.
	lastPlannedDay string
}

// NewScheduler creates a new background scheduler
func NewScheduler(
	dispatcher *usecase.Dispatcher,
	planner *usecase.Planner,
	reclaimer *usecase.Reclaimer,
	stepper *usecase.Stepper,
	cfg *config.DispatchConfig,
	logger zerolog.Logger,
) *Scheduler {
	return &Scheduler{
		dispatcher: dispatcher,
		planner:    planner,
		reclaimer:  reclaimer,
		stepper:    stepper,
		cfg:        cfg,
		logger:     logger.With().Str("component", "scheduler").Logger(),
	}
}

// Start launches the background loops.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.logger.Info().
		Dur("dispatch_interval", s.cfg.Interval).
		Dur("reclaim_interval", reclaimInterval).
		Dur("stepper_interval", stepperInterval).
		Msg("Starting background loops")

	s.loop(ctx, "dispatch", s.cfg.Interval, s.dispatcher.RunCycle)
	s.loop(ctx, "reclaim", reclaimInterval, s.reclaimer.Run)
	s.loop(ctx, "subscription_stepper", stepperInterval, s.stepper.ProcessDue)
	s.loop(ctx, "planner", plannerInterval, s.runPlannerIfDue)
}

// Stop cancels the loops and waits for in-flight iterations to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info().Msg("Background loops stopped")
}

// loop runs fn every interval until ctx is cancelled. Iterations never
// overlap: a slow run simply delays the next tick.
func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) {
	var running atomic.Bool

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !running.CompareAndSwap(false, true) {
					s.logger.Warn().Str("loop", name).Msg("Previous iteration still running, skipping tick")
					continue
				}
				if err := fn(ctx); err != nil {
					s.logger.Error().Err(err).Str("loop", name).Msg("Loop iteration failed")
				}
				running.Store(false)
			}
		}
	}()
}

// runPlannerIfDue runs the autopublish planner once per day, at or after the
// publish window's opening hour.
func (s *Scheduler) runPlannerIfDue(ctx context.Context) error {
	now := time.Now().UTC()
	if now.Hour() < s.cfg.WindowStartHour {
		return nil
	}

	day := now.Format("2006-01-02")
	if day == s.lastPlannedDay {
		return nil
	}

	if err := s.planner.Run(ctx); err != nil {
		return err
	}

	s.lastPlannedDay = day
	return nil
}
