package schedule

import (
	"go.uber.org/fx"

	"github.com/estateflow/publisher/config"
)

// Module provides the schedule calculator for fx DI
var Module = fx.Module("schedule",
	fx.Provide(
		func(cfg *config.DispatchConfig) *Calculator {
			return NewCalculator(Window{
				StartHour: cfg.WindowStartHour,
				EndHour:   cfg.WindowEndHour,
			})
		},
	),
)
