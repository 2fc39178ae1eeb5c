package postgres

import (
	"go.uber.org/fx"
)

// Module provides all repositories for fx DI
var Module = fx.Module("repository",
	fx.Provide(
		NewQueueRepository,
		NewHistoryRepository,
		NewSettingsRepository,
		NewAccountRepository,
		NewChatRepository,
		NewObjectRepository,
		NewUserRepository,
		NewAutopublishRepository,
		NewSubscriptionRepository,
	),
)
