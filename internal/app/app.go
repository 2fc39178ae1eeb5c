// Package app contains application bootstrap
package app

import (
	"go.uber.org/fx"

	"github.com/estateflow/publisher/config"
	"github.com/estateflow/publisher/internal/dupguard"
	"github.com/estateflow/publisher/internal/infrastructure/database"
	"github.com/estateflow/publisher/internal/infrastructure/httpserver"
	"github.com/estateflow/publisher/internal/infrastructure/kafka"
	"github.com/estateflow/publisher/internal/infrastructure/logger"
	"github.com/estateflow/publisher/internal/infrastructure/metrics"
	"github.com/estateflow/publisher/internal/infrastructure/render"
	"github.com/estateflow/publisher/internal/infrastructure/telegram"
	"github.com/estateflow/publisher/internal/ratelimit"
	"github.com/estateflow/publisher/internal/repository/postgres"
	"github.com/estateflow/publisher/internal/schedule"
	"github.com/estateflow/publisher/internal/scheduler"
	"github.com/estateflow/publisher/internal/usecase"
)

// CreateApp creates fx application with all modules
func CreateApp() fx.Option {
	return fx.Options(
		// Configuration
		fx.Provide(config.Out),

		// Infrastructure
		logger.Module,
		database.Module,
		metrics.Module,
		kafka.Module,
		telegram.Module,
		render.Module,
		httpserver.Module,

		// Persistence
		postgres.Module,

		// Policies
		ratelimit.Module,
		schedule.Module,
		dupguard.Module,

		// Engine
		usecase.Module,
		scheduler.Module,
	)
}
