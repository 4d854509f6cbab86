package state

import "time"

// State represents a step in the registration conversation.
type State string

const (
	// StateIdle indicates a registered user navigating the main menu.
	StateIdle State = "idle"
	// StateAwaitingPhone indicates the bot asked the user to share their contact.
	StateAwaitingPhone State = "awaiting_phone"
	// StateAwaitingName indicates the contact was stored and the bot expects a display name.
	StateAwaitingName State = "awaiting_name"
)

// UserState captures the current conversation state for a Telegram user.
// It is persisted outside process memory so registration survives restarts.
type UserState struct {
	UserID       int64                  `json:"user_id"`
	CurrentState State                  `json:"current_state"`
	Context      map[string]interface{} `json:"context"`
	UpdatedAt    time.Time              `json:"updated_at"`
}
