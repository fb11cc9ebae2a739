package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/agentfloat-wallet-ledger/internal/config"
)

// FundingExecutionProducer publishes funding execution messages consumed by
// the funding worker. Writes are synchronous: a funding request must not be
// acknowledged to the caller before its execution message is durable.
type FundingExecutionProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewFundingExecutionProducer creates the producer and ensures the funding
// topic exists.
func NewFundingExecutionProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*FundingExecutionProducer, error) {
	if cfg.FundingTopic == "" {
		return nil, fmt.Errorf("kafka funding topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for funding execution producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.FundingTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure funding topic %s exists: %w", cfg.FundingTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.FundingTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write funding execution messages", "topic", cfg.FundingTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Successfully wrote funding execution messages", "topic", cfg.FundingTopic, "count", len(messages))
			}
		},
	}

	return &FundingExecutionProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.FundingTopic,
	}, nil
}

func (p *FundingExecutionProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal funding execution message: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish funding execution message",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish funding execution message to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published funding execution message",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *FundingExecutionProducer) Close() error {
	p.logger.Info("Closing funding execution Kafka producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close funding execution kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
