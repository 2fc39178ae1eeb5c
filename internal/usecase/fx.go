package usecase

import (
	"go.uber.org/fx"
)

// Module provides the dispatch engine use cases for fx DI
var Module = fx.Module("usecase",
	fx.Provide(
		NewDispatcher,
		NewPlanner,
		NewReclaimer,
		NewStepper,
	),
)
