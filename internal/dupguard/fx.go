package dupguard

import (
	"go.uber.org/fx"
)

// Module provides the duplicate guard for fx DI
var Module = fx.Module("dupguard",
	fx.Provide(New),
)
