package domain

import "time"

// Event is a community event shown in the bot menu. Read-only for the bot.
type Event struct {
	ID          int64
	Name        string
	Description string
	Date        time.Time
	PosterURL   string
}
