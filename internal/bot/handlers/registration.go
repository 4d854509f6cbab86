package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/comebin/ecobin-bot/internal/bot/keyboard"
	"github.com/comebin/ecobin-bot/internal/domain"
	"github.com/comebin/ecobin-bot/internal/state"
)

// NewContactHandler processes the shared contact during registration. It only
// acts while the user is awaiting_phone; stray contacts are ignored.
func NewContactHandler(users Users, fsm state.StateMachine, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil || c.Message() == nil || c.Message().Contact == nil {
			return nil
		}

		ctx := context.Background()
		sender := c.Sender()
		contact := c.Message().Contact

		userState, err := fsm.GetState(ctx, sender.ID)
		if err != nil && !errors.Is(err, state.ErrStateNotFound) {
			return fmt.Errorf("get state for user %d: %w", sender.ID, err)
		}
		if userState == nil || userState.CurrentState != state.StateAwaitingPhone {
			return nil
		}

		if contact.UserID != 0 && contact.UserID != sender.ID {
			return c.Send("Please share your own contact, not someone else's.")
		}

		existing, err := users.FindByTelegramID(ctx, sender.ID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("look up user %d: %w", sender.ID, err)
		}
		if existing != nil {
			if err := fsm.TransitionTo(ctx, sender.ID, state.StateIdle); err != nil {
				log.Warn("failed to reset state for registered user", slog.Int64("telegram_id", sender.ID), slog.Any("error", err))
			}
			return c.Send("You're already registered! Use /start to open the menu.", &telebot.ReplyMarkup{RemoveKeyboard: true})
		}

		user := &domain.User{
			TelegramID:  sender.ID,
			PhoneNumber: contact.PhoneNumber,
			Name:        strings.TrimSpace(sender.FirstName),
			Points:      0,
			CreatedAt:   time.Now().UTC(),
		}

		if err := users.Create(ctx, user); err != nil {
			return fmt.Errorf("create user %d: %w", sender.ID, err)
		}

		if err := fsm.TransitionTo(ctx, sender.ID, state.StateAwaitingName); err != nil {
			return fmt.Errorf("advance registration state: %w", err)
		}

		return c.Send(
			"Thanks! 📱\n\nNow, what name should we call you?",
			&telebot.ReplyMarkup{RemoveKeyboard: true},
		)
	}
}

// NewAwaitingPhoneHandler reminds users mid-registration to use the contact
// button instead of typing their number.
func NewAwaitingPhoneHandler(kb *keyboard.Builder) Handler {
	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}
		return c.Send("Please use the button below to share your phone number.", kb.ContactRequest())
	}
}

// NewNameHandler stores the display name entered during registration and
// completes the flow.
func NewNameHandler(users Users, fsm state.StateMachine, kb *keyboard.Builder, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		ctx := context.Background()
		sender := c.Sender()

		name := strings.TrimSpace(c.Text())
		if name == "" || strings.HasPrefix(name, "/") {
			return c.Send("Please send the name you'd like to use.")
		}

		user, err := users.FindByTelegramID(ctx, sender.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				log.Warn("name received for unregistered user", slog.Int64("telegram_id", sender.ID))
				return c.Send("Something went wrong with your registration. Please run /start again.")
			}
			return fmt.Errorf("look up user %d: %w", sender.ID, err)
		}

		if err := users.UpdateName(ctx, user.ID, name); err != nil {
			return fmt.Errorf("save name for user %d: %w", user.ID, err)
		}

		if err := fsm.TransitionTo(ctx, sender.ID, state.StateIdle); err != nil {
			return fmt.Errorf("complete registration state: %w", err)
		}

		if err := c.Send(fmt.Sprintf(
			"You're all set, %s! 🎉\n\nScan the bin's QR code to link it to your account and start earning points.",
			name,
		)); err != nil {
			return err
		}

		return c.Send("What would you like to do?", kb.MainMenu())
	}
}

// NewDefaultHandler nudges users who send free text outside any flow.
func NewDefaultHandler(kb *keyboard.Builder) Handler {
	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}
		return c.Send("I didn't catch that. Use the menu below or send /start.", kb.MainMenu())
	}
}
