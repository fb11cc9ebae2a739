package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/agentfloat-wallet-ledger/internal/domain/funding"
	"github.com/agentfloat-wallet-ledger/internal/funding_worker/service"
	"github.com/agentfloat-wallet-ledger/internal/platform/messaging/producers"
)

// FundingEventHandler handles incoming funding execution messages from Kafka
type FundingEventHandler struct {
	executionService service.ExecutionService
	producer         producers.DeadLetterPublisher
	logger           *slog.Logger
}

// NewFundingEventHandler creates a new handler
func NewFundingEventHandler(
	logger *slog.Logger,
	executionService service.ExecutionService,
	producer producers.DeadLetterPublisher,
) *FundingEventHandler {
	return &FundingEventHandler{
		executionService: executionService,
		producer:         producer,
		logger:           logger,
	}
}

// HandleMessage processes Kafka messages
func (h *FundingEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var msg funding.ExecutionMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal funding execution message from Kafka"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		// Send to DLQ if available
		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
			} else {
				h.logger.Info("Successfully published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				// Message handled, commit offset
				return nil
			}
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	if msg.FundingRequestID == "" {
		h.logger.Error("Funding execution message is missing funding_request_id", "message_key", string(key))
		if h.producer != nil {
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, "missing funding_request_id"); dlqErr == nil {
				return nil
			}
		}
		return fmt.Errorf("funding execution message missing funding_request_id")
	}

	logger := h.logger
	if msg.CorrelationID != "" {
		logger = h.logger.With("correlation_id", msg.CorrelationID)
	}

	logger.Info("Received funding execution message", "funding_request_id", msg.FundingRequestID)

	if err := h.executionService.ExecuteFunding(ctx, &msg); err != nil {
		logger.Error("Failed to execute funding request",
			"funding_request_id", msg.FundingRequestID,
			"error", err,
		)
		return fmt.Errorf("executing funding request %s failed: %w", msg.FundingRequestID, err)
	}

	logger.Info("Successfully executed funding request", "funding_request_id", msg.FundingRequestID)
	return nil // Success, commit offset
}
