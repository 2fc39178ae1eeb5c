package kafka

import (
	"context"

	"go.uber.org/fx"

	"github.com/estateflow/publisher/internal/domain"
)

// Module provides the Kafka event producer for fx DI
var Module = fx.Module("kafka",
	fx.Provide(
		NewProducer,
		func(p *Producer) domain.EventProducer { return p },
	),
	fx.Invoke(registerProducerShutdown),
)

// registerProducerShutdown closes the producer on app stop.
func registerProducerShutdown(lc fx.Lifecycle, producer *Producer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return producer.Close()
		},
	})
}
