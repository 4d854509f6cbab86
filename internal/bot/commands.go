package bot

// Command constants for Telegram bot commands.
const (
	CommandStart      = "/start"
	CommandActiveUser = "/active_user"
)

// StartPayloadActivateBin is the deep-link payload that binds the sender as
// the bin operator, e.g. t.me/<bot>?start=activate_bin.
const StartPayloadActivateBin = "activate_bin"

// Callback prefix constants for inline button interactions.
const (
	CallbackCheckBalance    = "check_balance"
	CallbackRedeemRewards   = "redeem_rewards"
	CallbackRedeemPrefix    = "redeem_"
	CallbackViewEvents      = "view_events"
	CallbackEventPrefix     = "event_"
	CallbackLeaderboard     = "leaderboard"
	CallbackDisposalHistory = "view_disposal_history"
	CallbackMainMenu        = "main_menu"
)
