package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/comebin/ecobin-bot/internal/bot/keyboard"
	"github.com/comebin/ecobin-bot/internal/state"
)

const activateBinPayload = "activate_bin"

// NewStartHandler returns the /start command handler. A plain /start greets a
// registered user or begins registration; the activate_bin deep link binds the
// sender as the active bin operator. When menuImageURL is set the menu is sent
// as a photo caption instead of plain text.
func NewStartHandler(users Users, sessions SessionRegistry, notifier Notifier, fsm state.StateMachine, kb *keyboard.Builder, menuImageURL string, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			log.Warn("start handler invoked without sender")
			return nil
		}

		ctx := context.Background()
		sender := c.Sender()

		user, err := users.FindByTelegramID(ctx, sender.ID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("look up user %d: %w", sender.ID, err)
		}

		if user == nil {
			return beginRegistration(ctx, c, fsm, kb, log)
		}

		if startPayload(c) == activateBinPayload {
			previous, err := sessions.Activate(ctx, user.ID)
			if err != nil {
				return fmt.Errorf("activate bin for user %d: %w", user.ID, err)
			}

			if previous != nil && notifier != nil {
				notifier.Enqueue(previous.TelegramID, fmt.Sprintf(
					"👋 Hi %s, someone else just scanned the bin, so it is no longer linked to you.",
					previous.Name,
				))
			}

			if err := c.Send(fmt.Sprintf(
				"♻️ You're all set, %s! The bin is now linked to you.\n\nEvery item you dispose will earn you points.",
				user.Name,
			)); err != nil {
				return err
			}

			return sendMenu(c, kb, menuImageURL, "What would you like to do?")
		}

		return sendMenu(c, kb, menuImageURL, fmt.Sprintf("Welcome back, %s! 🌱\n\nWhat would you like to do?", user.Name))
	}
}

func sendMenu(c telebot.Context, kb *keyboard.Builder, imageURL, text string) error {
	if imageURL != "" {
		photo := &telebot.Photo{
			File:    telebot.FromURL(imageURL),
			Caption: text,
		}
		return c.Send(photo, kb.MainMenu())
	}

	return c.Send(text, kb.MainMenu())
}

// NewActiveUserHandler returns the /active_user command handler, which reports
// who is currently bound to the bin.
func NewActiveUserHandler(sessions SessionRegistry, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}

		operator, err := sessions.GetActive(context.Background())
		if err != nil {
			return fmt.Errorf("resolve active bin operator: %w", err)
		}

		if operator == nil {
			return c.Send("Nobody is linked to the bin right now. Scan the bin's QR code to link yourself.")
		}

		return c.Send(fmt.Sprintf("🗑 The bin is currently linked to *%s*.", operator.Name), telebot.ModeMarkdown)
	}
}

func beginRegistration(ctx context.Context, c telebot.Context, fsm state.StateMachine, kb *keyboard.Builder, log *slog.Logger) error {
	userID := c.Sender().ID

	if err := fsm.SetState(ctx, userID, state.StateAwaitingPhone, nil); err != nil {
		log.Error("failed to start registration", slog.Int64("telegram_id", userID), slog.Any("error", err))
		return fmt.Errorf("set registration state: %w", err)
	}

	return c.Send(
		"Welcome to EcoBin! 🌱\n\nTo get started, please share your phone number using the button below.",
		kb.ContactRequest(),
	)
}

// startPayload extracts the /start deep-link payload. telebot only fills
// Message.Payload for command endpoints, and commands are routed through
// OnText here, so fall back to splitting the raw text.
func startPayload(c telebot.Context) string {
	msg := c.Message()
	if msg == nil {
		return ""
	}

	if payload := strings.TrimSpace(msg.Payload); payload != "" {
		return payload
	}

	_, rest, _ := strings.Cut(msg.Text, " ")
	return strings.TrimSpace(rest)
}
