package ratelimit

import (
	"go.uber.org/fx"

	"github.com/estateflow/publisher/internal/domain"
)

// Module provides the rate limiter for fx DI
var Module = fx.Module("ratelimit",
	fx.Provide(
		fx.Annotate(New, fx.As(new(domain.RateLimiter))),
	),
)
