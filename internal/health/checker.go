// Package health aggregates readiness checks for the bot's dependencies and
// serves them over the ops HTTP endpoint.
package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	telebot "gopkg.in/telebot.v3"
)

// Checkable represents a component that can report its health status.
type Checkable interface {
	HealthCheck(ctx context.Context) error
}

// CheckFunc adapts a function to the Checkable interface.
type CheckFunc func(ctx context.Context) error

// HealthCheck implements Checkable.
func (f CheckFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}

const checkTimeout = 5 * time.Second

// Checker aggregates health checks for multiple components.
type Checker struct {
	log    *slog.Logger
	checks map[string]Checkable
}

// NewChecker instantiates a Checker with the provided logger.
func NewChecker(log *slog.Logger) *Checker {
	if log == nil {
		log = slog.Default()
	}

	return &Checker{
		log:    log,
		checks: make(map[string]Checkable),
	}
}

// Register adds a named component to the check set.
func (c *Checker) Register(name string, check Checkable) {
	if check == nil {
		return
	}
	c.checks[name] = check
}

// Check runs all registered checks and returns per-component errors.
func (c *Checker) Check(ctx context.Context) map[string]error {
	results := make(map[string]error, len(c.checks))

	for name, check := range c.checks {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := check.HealthCheck(checkCtx)
		cancel()

		if err != nil {
			c.log.Warn("health check failed", slog.String("component", name), slog.Any("error", err))
		}
		results[name] = err
	}

	return results
}

// Handler serves the aggregated health state as JSON. It returns 503 when any
// component is unhealthy.
func (c *Checker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		results := c.Check(r.Context())

		healthy := true
		components := make(map[string]string, len(results))
		for name, err := range results {
			if err != nil {
				healthy = false
				components[name] = err.Error()
				continue
			}
			components[name] = "ok"
		}

		status := "ok"
		code := http.StatusOK
		if !healthy {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":     status,
			"components": components,
		})
	})
}

// DBCheck pings the database.
func DBCheck(db *sql.DB) Checkable {
	return CheckFunc(func(ctx context.Context) error {
		if db == nil {
			return errors.New("database is not configured")
		}
		return db.PingContext(ctx)
	})
}

// RedisCheck pings Redis.
func RedisCheck(client *redis.Client) Checkable {
	return CheckFunc(func(ctx context.Context) error {
		if client == nil {
			return errors.New("redis is not configured")
		}
		return client.Ping(ctx).Err()
	})
}

// TelegramCheck verifies the bot API session is alive.
func TelegramCheck(bot *telebot.Bot) Checkable {
	return CheckFunc(func(_ context.Context) error {
		if bot == nil || bot.Me == nil {
			return errors.New("telegram bot is not connected")
		}
		return nil
	})
}
