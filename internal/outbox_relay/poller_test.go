package outbox_relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/payment-webhook-ledger/internal/config"
	"github.com/payment-webhook-ledger/internal/domain/outbox"
	"github.com/payment-webhook-ledger/internal/domain/shared"
)

func TestPoller_ProcessPendingMessages(t *testing.T) {
	logger := slog.Default()
	cfg := &config.OutboxConfig{
		PollingInterval:  time.Second,
		BatchSize:        10,
		MaxRetryAttempts: 3,
	}

	var (
		mockOutboxRepo *MockOutboxRepo
		mockPublisher  *MockEventPublisher
		mockDLQ        *MockDeadLetterPublisher
	)

	tests := []struct {
		name          string
		setupMocks    func()
		expectedError string
	}{
		{
			name: "successful processing of pending messages",
			setupMocks: func() {
				message1, message2 := newTestMessage(t, 1, 0), newTestMessage(t, 2, 0)
				mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{message1, message2}, nil).Once()
				mockPublisher.On("PublishEvent", mock.Anything, message1).Return(nil).Once()
				mockPublisher.On("PublishEvent", mock.Anything, message2).Return(nil).Once()
			},
		},
		{
			name: "error getting pending messages",
			setupMocks: func() {
				mockOutboxRepo.On("GetPending", mock.Anything, 10).Return(nil, errors.New("db error")).Once()
			},
			expectedError: "failed to get pending outbox messages",
		},
		{
			name: "no pending messages",
			setupMocks: func() {
				mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{}, nil).Once()
			},
		},
		{
			name: "publish failure below retry limit",
			setupMocks: func() {
				message1, message2 := newTestMessage(t, 1, 0), newTestMessage(t, 2, 0)
				mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{message1, message2}, nil).Once()
				mockPublisher.On("PublishEvent", mock.Anything, message1).Return(errors.New("publish error")).Once()
				mockOutboxRepo.On("IncrementAttempts", mock.Anything, int64(1)).Return(nil).Once()
				mockPublisher.On("PublishEvent", mock.Anything, message2).Return(nil).Once()
			},
		},
		{
			name: "max retry attempts reached",
			setupMocks: func() {
				exhausted := newTestMessage(t, 3, 2)
				mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{exhausted}, nil).Once()
				mockPublisher.On("PublishEvent", mock.Anything, exhausted).Return(errors.New("publish error")).Once()
				mockOutboxRepo.On("IncrementAttempts", mock.Anything, int64(3)).Return(nil).Once()
				mockOutboxRepo.On("UpdateStatus", mock.Anything, int64(3), shared.OutboxStatusFailedToPublish).Return(nil).Once()
				mockDLQ.On("PublishToDLQ", mock.Anything, "txn_001", []byte(exhausted.Payload),
					fmt.Sprintf("publish failed after %d attempts: %s", 3, "publish error")).Return(nil).Once()
			},
		},
		{
			name: "increment failure skips dead lettering",
			setupMocks: func() {
				exhausted := newTestMessage(t, 4, 2)
				mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{exhausted}, nil).Once()
				mockPublisher.On("PublishEvent", mock.Anything, exhausted).Return(errors.New("publish error")).Once()
				mockOutboxRepo.On("IncrementAttempts", mock.Anything, int64(4)).Return(errors.New("db error")).Once()
			},
		},
		{
			name: "undecodable payload is not retried",
			setupMocks: func() {
				bad := newTestMessage(t, 5, 0)
				mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{bad}, nil).Once()
				mockPublisher.On("PublishEvent", mock.Anything, bad).Return(fmt.Errorf("%w: outbox 5", ErrUndecodablePayload)).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockOutboxRepo = &MockOutboxRepo{}
			mockPublisher = &MockEventPublisher{}
			mockDLQ = &MockDeadLetterPublisher{}
			poller := NewPoller(cfg, mockOutboxRepo, mockPublisher, mockDLQ, logger)

			tt.setupMocks()

			err := poller.processPendingMessages(context.Background())

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			} else {
				assert.NoError(t, err)
			}

			mockOutboxRepo.AssertExpectations(t)
			mockPublisher.AssertExpectations(t)
			mockDLQ.AssertExpectations(t)
		})
	}
}

func TestPoller_Start(t *testing.T) {
	mockOutboxRepo := &MockOutboxRepo{}
	cfg := &config.OutboxConfig{
		PollingInterval:  10 * time.Millisecond,
		BatchSize:        10,
		MaxRetryAttempts: 3,
	}
	poller := NewPoller(cfg, mockOutboxRepo, &MockEventPublisher{}, &MockDeadLetterPublisher{}, slog.Default())

	polled := make(chan struct{}, 1)
	mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{}, nil).Run(func(mock.Arguments) {
		select {
		case polled <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Start(ctx)
		close(done)
	}()

	select {
	case <-polled:
	case <-time.After(time.Second):
		t.Fatal("poller never polled")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancellation")
	}
}
