package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

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

func TestWorkerPoolExecutionService_ExecuteFunding(t *testing.T) {
	mockBaseService := &MockExecutionService{}
	logger := slog.Default()

	msg := &funding.ExecutionMessage{
		FundingRequestID: "req-1",
		CorrelationID:    "corr-1",
	}

	workerPoolService, err := NewWorkerPoolExecutionService(
		mockBaseService,
		WorkerPoolConfig{
			Size: 2,
		},
		logger,
	)
	assert.NoError(t, err)
	defer workerPoolService.Shutdown()

	tests := []struct {
		name          string
		setupMocks    func()
		expectedError error
	}{
		{
			name: "successful execution",
			setupMocks: func() {
				mockBaseService.On("ExecuteFunding", mock.Anything, msg).Return(nil).Once()
			},
			expectedError: nil,
		},
		{
			name: "execution error",
			setupMocks: func() {
				mockBaseService.On("ExecuteFunding", mock.Anything, msg).Return(errors.New("execution error")).Once()
			},
			expectedError: errors.New("execution error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMocks()

			err := workerPoolService.ExecuteFunding(context.Background(), msg)
			if tt.expectedError != nil {
				assert.EqualError(t, err, tt.expectedError.Error())
			} else {
				assert.NoError(t, err)
			}

			mockBaseService.AssertExpectations(t)
		})
	}
}

func TestWorkerPoolExecutionService_ConcurrentExecutions(t *testing.T) {
	mockBaseService := &MockExecutionService{}
	logger := slog.Default()

	workerPoolService, err := NewWorkerPoolExecutionService(
		mockBaseService,
		WorkerPoolConfig{
			Size: 4,
		},
		logger,
	)
	assert.NoError(t, err)
	defer workerPoolService.Shutdown()

	mockBaseService.On("ExecuteFunding", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		time.Sleep(10 * time.Millisecond)
	}).Return(nil).Times(8)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			msg := &funding.ExecutionMessage{FundingRequestID: "req-" + string(rune('a'+n))}
			assert.NoError(t, workerPoolService.ExecuteFunding(context.Background(), msg))
		}(i)
	}
	wg.Wait()

	mockBaseService.AssertExpectations(t)
	assert.Equal(t, 4, workerPoolService.Capacity())
}
