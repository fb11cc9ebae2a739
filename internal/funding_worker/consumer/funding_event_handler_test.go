package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/agentfloat-wallet-ledger/internal/domain/funding"
)

// MockExecutionService mocks the ExecutionService interface
type MockExecutionService struct {
	mock.Mock
}

func (m *MockExecutionService) ExecuteFunding(ctx context.Context, msg *funding.ExecutionMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockDLQPublisher mocks the DeadLetterPublisher interface
type MockDLQPublisher struct {
	mock.Mock
}

func (m *MockDLQPublisher) PublishToDLQ(ctx context.Context, key string, value []byte, reason string) error {
	args := m.Called(ctx, key, value, reason)
	return args.Error(0)
}

func (m *MockDLQPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestHandleMessage_Success(t *testing.T) {
	mockService := new(MockExecutionService)
	handler := NewFundingEventHandler(testLogger(), mockService, nil)

	msg := funding.ExecutionMessage{FundingRequestID: "req-1", CorrelationID: "corr-1"}
	value, _ := json.Marshal(msg)

	mockService.On("ExecuteFunding", mock.Anything, &msg).Return(nil).Once()

	err := handler.HandleMessage(context.Background(), []byte("req-1"), value)
	require.NoError(t, err)
	mockService.AssertExpectations(t)
}

func TestHandleMessage_ExecutionErrorPropagates(t *testing.T) {
	mockService := new(MockExecutionService)
	handler := NewFundingEventHandler(testLogger(), mockService, nil)

	msg := funding.ExecutionMessage{FundingRequestID: "req-1"}
	value, _ := json.Marshal(msg)

	execErr := errors.New("mongo unavailable")
	mockService.On("ExecuteFunding", mock.Anything, &msg).Return(execErr).Once()

	err := handler.HandleMessage(context.Background(), []byte("req-1"), value)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "req-1")
	mockService.AssertExpectations(t)
}

func TestHandleMessage_UnmarshalErrorGoesToDLQ(t *testing.T) {
	mockService := new(MockExecutionService)
	mockDLQ := new(MockDLQPublisher)
	handler := NewFundingEventHandler(testLogger(), mockService, mockDLQ)

	garbage := []byte(`{"funding_request_id":`)

	mockDLQ.On("PublishToDLQ", mock.Anything, "key-1", garbage, mock.AnythingOfType("string")).Return(nil).Once()

	// DLQ succeeded, so the offset commits
	err := handler.HandleMessage(context.Background(), []byte("key-1"), garbage)
	require.NoError(t, err)

	mockDLQ.AssertExpectations(t)
	mockService.AssertNotCalled(t, "ExecuteFunding")
}

func TestHandleMessage_UnmarshalErrorWithoutDLQRetries(t *testing.T) {
	mockService := new(MockExecutionService)
	handler := NewFundingEventHandler(testLogger(), mockService, nil)

	err := handler.HandleMessage(context.Background(), []byte("key-1"), []byte("not json"))
	require.Error(t, err)
	mockService.AssertNotCalled(t, "ExecuteFunding")
}

func TestHandleMessage_MissingRequestIDGoesToDLQ(t *testing.T) {
	mockService := new(MockExecutionService)
	mockDLQ := new(MockDLQPublisher)
	handler := NewFundingEventHandler(testLogger(), mockService, mockDLQ)

	value, _ := json.Marshal(funding.ExecutionMessage{})

	mockDLQ.On("PublishToDLQ", mock.Anything, "key-1", value, "missing funding_request_id").Return(nil).Once()

	err := handler.HandleMessage(context.Background(), []byte("key-1"), value)
	require.NoError(t, err)
	mockDLQ.AssertExpectations(t)
	mockService.AssertNotCalled(t, "ExecuteFunding")
}
