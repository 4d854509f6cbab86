package middleware

import (
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/comebin/ecobin-bot/internal/bot/handlers"
	"github.com/comebin/ecobin-bot/pkg/metrics"
)

// Metrics measures execution time and status for bot handlers, reporting them to Prometheus.
func Metrics(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)

		command := extractCommandName(c)
		status := "ok"
		if err != nil {
			status = "error"
		}

		metrics.RecordCommand(command, status, time.Since(start))

		return err
	}
}

// extractCommandName keeps label cardinality bounded: callback payload ids and
// command arguments are stripped before reporting.
func extractCommandName(c telebot.Context) string {
	if c == nil {
		return "unknown"
	}

	if cb := c.Callback(); cb != nil && cb.Data != "" {
		data := strings.TrimPrefix(cb.Data, "\f")
		if i := strings.LastIndex(data, "_"); i > 0 {
			if isNumeric(data[i+1:]) {
				return data[:i]
			}
		}
		return data
	}

	if text := c.Text(); text != "" {
		if strings.HasPrefix(text, "/") {
			cmd, _, _ := strings.Cut(text, " ")
			return cmd
		}
		return "text"
	}

	if msg := c.Message(); msg != nil && msg.Contact != nil {
		return "contact"
	}

	return "unknown"
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
