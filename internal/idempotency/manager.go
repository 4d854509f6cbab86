// Package idempotency suppresses duplicate Telegram update deliveries.
// Telegram may redeliver the same update after timeouts or reconnects, so
// every handler execution is guarded by an update-scoped key.
package idempotency

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrInProgress means another delivery of the same update is being processed.
var ErrInProgress = errors.New("update is already being processed")

const lockTTL = 5 * time.Minute

// Manager runs an operation at most once per key.
type Manager interface {
	// Execute runs fn unless the key was already processed or is in flight.
	// It reports whether fn ran. A failed fn leaves no completion marker, so
	// a later redelivery may retry it.
	Execute(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) (bool, error)
}

type manager struct {
	store Store
	log   *slog.Logger
}

// NewManager creates a Manager on top of the given Store.
func NewManager(store Store, log *slog.Logger) Manager {
	if log == nil {
		log = slog.Default()
	}

	return &manager{
		store: store,
		log:   log,
	}
}

func (m *manager) Execute(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) (bool, error) {
	if fn == nil {
		return false, errors.New("operation fn cannot be nil")
	}

	done, err := m.store.IsDone(ctx, key)
	if err != nil {
		return false, err
	}
	if done {
		m.log.Debug("skipping duplicate update", slog.String("key", key))
		return false, nil
	}

	locked, err := m.store.Lock(ctx, key, lockTTL)
	if err != nil {
		return false, err
	}
	if !locked {
		return false, ErrInProgress
	}
	defer func() {
		if err := m.store.ReleaseLock(ctx, key); err != nil {
			m.log.Warn("failed to release dedup lock", slog.String("key", key), slog.Any("error", err))
		}
	}()

	if err := fn(ctx); err != nil {
		return true, err
	}

	if err := m.store.MarkDone(ctx, key, ttl); err != nil {
		m.log.Warn("failed to mark update as processed", slog.String("key", key), slog.Any("error", err))
	}

	return true, nil
}
