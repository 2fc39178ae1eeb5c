package database

import (
	"go.uber.org/fx"
)

// Module provides database connection for fx DI
var Module = fx.Module("database",
	fx.Provide(NewPostgresDB),
)
