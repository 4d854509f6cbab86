package bot

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	telebot "gopkg.in/telebot.v3"

	"github.com/comebin/ecobin-bot/internal/bot/handlers"
)

func TestRouter_FindCallbackHandler(t *testing.T) {
	r := NewRouter(nil, testLogger())

	var hit string
	record := func(name string) handlers.CallbackHandler {
		return func(c telebot.Context) error {
			hit = name
			return nil
		}
	}

	r.RegisterCallback(CallbackRedeemRewards, record("redeem_rewards"))
	r.RegisterCallback(CallbackRedeemPrefix, record("redeem_item"))
	r.RegisterCallback(CallbackMainMenu, record("main_menu"))

	testCases := []struct {
		name   string
		data   string
		expect string
	}{
		{name: "exact match wins over prefix", data: "redeem_rewards", expect: "redeem_rewards"},
		{name: "prefix match for item callbacks", data: "redeem_42", expect: "redeem_item"},
		{name: "plain exact match", data: "main_menu", expect: "main_menu"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			hit = ""
			handler := r.findCallbackHandler(tc.data)
			if assert.NotNil(t, handler) {
				assert.NoError(t, handler(nil))
				assert.Equal(t, tc.expect, hit)
			}
		})
	}

	assert.Nil(t, r.findCallbackHandler("unknown_callback"))
}

func TestCommandName(t *testing.T) {
	testCases := []struct {
		text   string
		expect string
	}{
		{text: "/start", expect: "/start"},
		{text: "/start activate_bin", expect: "/start"},
		{text: "/start@ecobin_bot", expect: "/start"},
		{text: "/active_user", expect: "/active_user"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expect, commandName(tc.text), "input %q", tc.text)
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
