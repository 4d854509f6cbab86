package notify

import (
	"fmt"
	"time"

	telebot "gopkg.in/telebot.v3"
)

const defaultSendTimeout = 15 * time.Second

// TelegramSender delivers notifications through the Telegram bot API with a
// bounded per-send timeout so a stalled transport cannot block the consumer
// loop indefinitely.
type TelegramSender struct {
	bot     *telebot.Bot
	timeout time.Duration
}

// NewTelegramSender wraps the given bot as a Sender.
func NewTelegramSender(bot *telebot.Bot, timeout time.Duration) *TelegramSender {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}

	return &TelegramSender{
		bot:     bot,
		timeout: timeout,
	}
}

// Send delivers text to the recipient chat.
func (s *TelegramSender) Send(recipient int64, text string) error {
	if s.bot == nil {
		return fmt.Errorf("telegram bot is not configured")
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.bot.Send(&telebot.User{ID: recipient}, text, telebot.ModeMarkdown)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(s.timeout):
		return fmt.Errorf("send to %d timed out after %s", recipient, s.timeout)
	}
}
