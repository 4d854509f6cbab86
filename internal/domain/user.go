package domain

import "time"

// User represents a registered participant identified by their Telegram account.
// Points mirror the sum of the user's transaction deltas at all times.
type User struct {
	ID          int64
	TelegramID  int64
	PhoneNumber string
	Name        string
	Points      int64
	CreatedAt   time.Time
}
