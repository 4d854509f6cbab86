package idempotency

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func setupStore(t *testing.T) Store {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})

	return NewRedisStore(client, testLogger())
}

func TestManager_ExecutesOnce(t *testing.T) {
	m := NewManager(setupStore(t), testLogger())
	ctx := context.Background()

	calls := 0
	fn := func(context.Context) error {
		calls++
		return nil
	}

	executed, err := m.Execute(ctx, "msg:1:100", time.Hour, fn)
	assert.NoError(t, err)
	assert.True(t, executed)

	executed, err = m.Execute(ctx, "msg:1:100", time.Hour, fn)
	assert.NoError(t, err)
	assert.False(t, executed)

	assert.Equal(t, 1, calls)
}

func TestManager_DistinctKeysRunIndependently(t *testing.T) {
	m := NewManager(setupStore(t), testLogger())
	ctx := context.Background()

	calls := 0
	fn := func(context.Context) error {
		calls++
		return nil
	}

	for _, key := range []string{"msg:1:100", "msg:1:101", "cb:abc"} {
		executed, err := m.Execute(ctx, key, time.Hour, fn)
		assert.NoError(t, err)
		assert.True(t, executed)
	}

	assert.Equal(t, 3, calls)
}

func TestManager_FailedOperationCanRetry(t *testing.T) {
	m := NewManager(setupStore(t), testLogger())
	ctx := context.Background()

	boom := errors.New("handler failed")
	calls := 0

	executed, err := m.Execute(ctx, "msg:2:200", time.Hour, func(context.Context) error {
		calls++
		return boom
	})
	assert.True(t, executed)
	assert.ErrorIs(t, err, boom)

	// No completion marker was written, so a redelivery runs the operation again.
	executed, err = m.Execute(ctx, "msg:2:200", time.Hour, func(context.Context) error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, executed)
	assert.Equal(t, 2, calls)
}

func TestManager_ConcurrentDeliveryRejected(t *testing.T) {
	store := setupStore(t)
	m := NewManager(store, testLogger())
	ctx := context.Background()

	locked, err := store.Lock(ctx, "msg:3:300", time.Minute)
	assert.NoError(t, err)
	assert.True(t, locked)

	executed, err := m.Execute(ctx, "msg:3:300", time.Hour, func(context.Context) error {
		t.Fatal("operation must not run while another delivery holds the lock")
		return nil
	})
	assert.False(t, executed)
	assert.ErrorIs(t, err, ErrInProgress)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
