// Package kafka emits publication lifecycle events for downstream services
// (bot UI notifications, admin dashboard statistics).
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/estateflow/publisher/config"
	"github.com/estateflow/publisher/internal/domain"
)

// Producer writes publication events to Kafka.
type Producer struct {
	writer         *kafka.Writer
	topicCompleted string
	topicFailed    string
	logger         zerolog.Logger
}

// NewProducer creates a new Kafka event producer
func NewProducer(cfg *config.KafkaConfig, logger zerolog.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic_completed", cfg.TopicCompleted).
		Str("topic_failed", cfg.TopicFailed).
		Msg("Kafka producer initialized")

	return &Producer{
		writer:         writer,
		topicCompleted: cfg.TopicCompleted,
		topicFailed:    cfg.TopicFailed,
		logger:         logger.With().Str("component", "kafka_producer").Logger(),
	}
}

// PublicationCompleted emits a publication.completed event
func (p *Producer) PublicationCompleted(ctx context.Context, event domain.PublicationEvent) error {
	return p.emit(ctx, p.topicCompleted, event)
}

// PublicationFailed emits a publication.failed event
func (p *Producer) PublicationFailed(ctx context.Context, event domain.PublicationEvent) error {
	return p.emit(ctx, p.topicFailed, event)
}

func (p *Producer) emit(ctx context.Context, topic string, event domain.PublicationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	key := fmt.Sprintf("task-%d", event.TaskID)

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	})
	if err != nil {
		return fmt.Errorf("failed to write event to %s: %w", topic, err)
	}

	p.logger.Debug().
		Str("topic", topic).
		Uint("task_id", event.TaskID).
		Msg("Publication event emitted")

	return nil
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// Ensure Producer implements domain.EventProducer interface
var _ domain.EventProducer = (*Producer)(nil)
