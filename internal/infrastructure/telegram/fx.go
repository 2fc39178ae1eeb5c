package telegram

import (
	"context"

	"go.uber.org/fx"

	"github.com/estateflow/publisher/internal/domain"
)

// Module provides the Telegram send paths for fx DI
var Module = fx.Module("telegram",
	fx.Provide(
		fx.Annotate(NewBotSender, fx.As(new(domain.BotSender))),
		NewAccountSender,
		func(s *AccountSender) domain.AccountSender { return s },
	),
	fx.Invoke(registerAccountSenderShutdown),
)

// registerAccountSenderShutdown disconnects all account clients on app stop.
func registerAccountSenderShutdown(lc fx.Lifecycle, sender *AccountSender) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sender.Close(ctx)
			return nil
		},
	})
}
