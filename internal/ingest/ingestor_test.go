package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/comebin/ecobin-bot/internal/domain"
	"github.com/comebin/ecobin-bot/pkg/config"
)

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) Credit(ctx context.Context, userID int64, delta int64, description string) (int64, error) {
	args := m.Called(ctx, userID, delta, description)
	return args.Get(0).(int64), args.Error(1)
}

type mockSessions struct {
	mock.Mock
}

func (m *mockSessions) GetActive(ctx context.Context) (*domain.User, error) {
	args := m.Called(ctx)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Enqueue(recipient int64, text string) {
	m.Called(recipient, text)
}

func activeUser() *domain.User {
	return &domain.User{
		ID:         1,
		TelegramID: 555,
		Name:       "Alice",
		Points:     40,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestParseDisposal(t *testing.T) {
	testCases := []struct {
		name           string
		payload        string
		expectCategory string
		expectPoints   int64
		expectErr      bool
	}{
		{name: "plastic", payload: `{"rubbish_type":"plastic"}`, expectCategory: "plastic", expectPoints: 10},
		{name: "metal", payload: `{"rubbish_type":"metal"}`, expectCategory: "metal", expectPoints: 25},
		{name: "paper", payload: `{"rubbish_type":"paper"}`, expectCategory: "paper", expectPoints: 5},
		{name: "glass", payload: `{"rubbish_type":"glass"}`, expectCategory: "glass", expectPoints: 15},
		{name: "case and whitespace normalized", payload: `{"rubbish_type":" Metal "}`, expectCategory: "metal", expectPoints: 25},
		{name: "unknown category", payload: `{"rubbish_type":"styrofoam"}`, expectErr: true},
		{name: "missing category", payload: `{"throw_time":"2026-09-01T10:00:00Z"}`, expectErr: true},
		{name: "malformed json", payload: `{"rubbish_type":`, expectErr: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			category, points, err := parseDisposal([]byte(tc.payload))
			if tc.expectErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tc.expectCategory, category)
			assert.Equal(t, tc.expectPoints, points)
		})
	}
}

func TestIngestor_OnSensorEvent_CreditsActiveOperator(t *testing.T) {
	ledger := &mockLedger{}
	sessions := &mockSessions{}
	notifier := &mockNotifier{}

	operator := activeUser()
	sessions.On("GetActive", mock.Anything).Return(operator, nil).Once()
	ledger.On("Credit", mock.Anything, operator.ID, int64(25), "Disposed metal from the bin").
		Return(int64(65), nil).Once()
	notifier.On("Enqueue", operator.TelegramID, mock.MatchedBy(func(text string) bool {
		return text != ""
	})).Once()

	ing := NewIngestor(config.BrokerConfig{}, ledger, sessions, notifier, testLogger())
	ing.OnSensorEvent(context.Background(), []byte(`{"rubbish_type":"metal"}`))

	ledger.AssertExpectations(t)
	sessions.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestIngestor_OnSensorEvent_DropsUnknownCategory(t *testing.T) {
	ledger := &mockLedger{}
	sessions := &mockSessions{}
	notifier := &mockNotifier{}

	ing := NewIngestor(config.BrokerConfig{}, ledger, sessions, notifier, testLogger())
	ing.OnSensorEvent(context.Background(), []byte(`{"rubbish_type":"styrofoam"}`))

	sessions.AssertNotCalled(t, "GetActive", mock.Anything)
	ledger.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestIngestor_OnSensorEvent_DropsMalformedPayload(t *testing.T) {
	ledger := &mockLedger{}
	sessions := &mockSessions{}
	notifier := &mockNotifier{}

	ing := NewIngestor(config.BrokerConfig{}, ledger, sessions, notifier, testLogger())
	ing.OnSensorEvent(context.Background(), []byte(`not json`))

	sessions.AssertNotCalled(t, "GetActive", mock.Anything)
	ledger.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestor_OnSensorEvent_DropsWithoutOperator(t *testing.T) {
	ledger := &mockLedger{}
	sessions := &mockSessions{}
	notifier := &mockNotifier{}

	sessions.On("GetActive", mock.Anything).Return((*domain.User)(nil), nil).Once()

	ing := NewIngestor(config.BrokerConfig{}, ledger, sessions, notifier, testLogger())
	ing.OnSensorEvent(context.Background(), []byte(`{"rubbish_type":"plastic"}`))

	sessions.AssertExpectations(t)
	ledger.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestIngestor_OnSensorEvent_NoNotificationOnCreditFailure(t *testing.T) {
	ledger := &mockLedger{}
	sessions := &mockSessions{}
	notifier := &mockNotifier{}

	operator := activeUser()
	sessions.On("GetActive", mock.Anything).Return(operator, nil).Once()
	ledger.On("Credit", mock.Anything, operator.ID, int64(10), "Disposed plastic from the bin").
		Return(int64(0), errors.New("db down")).Once()

	ing := NewIngestor(config.BrokerConfig{}, ledger, sessions, notifier, testLogger())
	ing.OnSensorEvent(context.Background(), []byte(`{"rubbish_type":"plastic"}`))

	ledger.AssertExpectations(t)
	notifier.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
