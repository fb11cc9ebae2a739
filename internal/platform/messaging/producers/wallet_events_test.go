package producers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockKafkaWriter mocks KafkaWriter interface
type MockKafkaWriter struct {
	mock.Mock
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestWalletEventsProducer_Publish(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	topic := "test-wallet-events"
	ctx := context.Background()

	t.Run("SuccessfulPublish", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &WalletEventsProducer{
			logger: logger,
			writer: mockWriter,
			topic:  topic,
		}

		key := "init-abc"
		value := map[string]string{"operation": "credit_initial_float", "txn_id": "init-abc"}
		expectedJSONValue, _ := json.Marshal(value)

		mockWriter.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 {
				return false
			}
			msg := msgs[0]
			return string(msg.Key) == key && string(msg.Value) == string(expectedJSONValue)
		})).Return(nil).Once()

		err := producer.Publish(ctx, key, value)
		require.NoError(t, err)
		mockWriter.AssertExpectations(t)
	})

	t.Run("PublishReturnsErrorOnWriterError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &WalletEventsProducer{
			logger: logger,
			writer: mockWriter,
			topic:  topic,
		}

		writerError := errors.New("kafka write error")
		mockWriter.On("WriteMessages", ctx, mock.AnythingOfType("[]kafka.Message")).Return(writerError).Once()

		err := producer.Publish(ctx, "key", map[string]string{"data": "x"})
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), writerError.Error()))
		mockWriter.AssertExpectations(t)
	})
}

func TestFundingExecutionProducer_Publish(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	t.Run("SuccessfulPublish", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &FundingExecutionProducer{
			logger: logger,
			writer: mockWriter,
			topic:  "test-funding",
		}

		mockWriter.On("WriteMessages", ctx, mock.AnythingOfType("[]kafka.Message")).Return(nil).Once()

		err := producer.Publish(ctx, "req-1", map[string]string{"funding_request_id": "req-1"})
		require.NoError(t, err)
		mockWriter.AssertExpectations(t)
	})

	t.Run("CloseClosesWriter", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &FundingExecutionProducer{
			logger: logger,
			writer: mockWriter,
			topic:  "test-funding",
		}

		mockWriter.On("Close").Return(nil).Once()
		require.NoError(t, producer.Close())
		mockWriter.AssertExpectations(t)
	})
}

func TestDLQProducer_Publish(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	t.Run("WrapsOriginalMessage", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &DLQProducer{
			logger:   logger,
			writer:   mockWriter,
			dlqTopic: "test-dlq",
		}

		original := []byte(`{"funding_request_id":`)
		reason := "unmarshal failure"

		mockWriter.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 {
				return false
			}
			msg := msgs[0]
			var payload struct {
				OriginalKey   string `json:"original_key"`
				OriginalValue string `json:"original_value"`
				DLQReason     string `json:"dlq_reason"`
			}
			if err := json.Unmarshal(msg.Value, &payload); err != nil {
				return false
			}
			return payload.OriginalKey == "key-1" &&
				payload.OriginalValue == string(original) &&
				payload.DLQReason == reason &&
				len(msg.Headers) == 1 && msg.Headers[0].Key == "dlq-reason"
		})).Return(nil).Once()

		err := producer.PublishToDLQ(ctx, "key-1", original, reason)
		require.NoError(t, err)
		mockWriter.AssertExpectations(t)
	})

	t.Run("NilProducerReturnsError", func(t *testing.T) {
		var producer *DLQProducer
		err := producer.PublishToDLQ(ctx, "key-1", []byte("x"), "reason")
		assert.Error(t, err)
	})
}
