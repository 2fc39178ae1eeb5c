package httpserver

import (
	"context"

	"go.uber.org/fx"
)

// Module provides the operational HTTP server for fx DI
var Module = fx.Module("httpserver",
	fx.Provide(NewServer),
	fx.Invoke(registerServerLifecycle),
)

// registerServerLifecycle starts and stops the HTTP server with the app.
func registerServerLifecycle(lc fx.Lifecycle, server *Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return server.Start()
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}
