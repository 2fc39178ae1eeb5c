package scheduler

import (
	"context"

	"go.uber.org/fx"
)

// Module provides the background scheduler for fx DI
var Module = fx.Module("scheduler",
	fx.Provide(NewScheduler),
	fx.Invoke(registerSchedulerLifecycle),
)

// registerSchedulerLifecycle starts and stops the loops with the app.
func registerSchedulerLifecycle(lc fx.Lifecycle, scheduler *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			scheduler.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			scheduler.Stop()
			return nil
		},
	})
}
