package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	apperrors "github.com/comebin/ecobin-bot/internal/errors"

	"github.com/comebin/ecobin-bot/internal/bot/keyboard"
)

const (
	eventDataPrefix      = "event_"
	leaderboardSize      = 10
	disposalHistorySize  = 10
	disposalHistoryMatch = "Disposed"
)

// HandleCheckBalance shows the user's current point balance.
func HandleCheckBalance(users Users, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		user, err := users.FindByTelegramID(context.Background(), c.Sender().ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return respondNotRegistered(c)
			}
			return fmt.Errorf("look up user %d: %w", c.Sender().ID, err)
		}

		if err := ackCallback(c); err != nil {
			return err
		}

		return c.Edit(
			fmt.Sprintf("💰 *Your balance:* %d points.\n\nKeep disposing to earn more!", user.Points),
			kb.BackToMenu(),
			telebot.ModeMarkdown,
		)
	}
}

// HandleViewEvents lists upcoming community events.
func HandleViewEvents(events Events, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}

		list, err := events.List(context.Background())
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}

		if err := ackCallback(c); err != nil {
			return err
		}

		if len(list) == 0 {
			return c.Edit("📅 No upcoming events right now. Check back soon!", kb.BackToMenu())
		}

		return c.Edit("📅 *Upcoming events*\n\nTap an event for details:", kb.EventList(list), telebot.ModeMarkdown)
	}
}

// HandleEventDetails shows one event, with its poster when available.
func HandleEventDetails(events Events, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	return func(c telebot.Context) error {
		if c == nil || c.Callback() == nil {
			return nil
		}

		data := strings.TrimPrefix(strings.TrimPrefix(c.Callback().Data, "\f"), eventDataPrefix)
		eventID, err := strconv.ParseInt(data, 10, 64)
		if err != nil {
			return respondCallback(c, "Unknown event.", true)
		}

		event, err := events.FindByID(context.Background(), eventID)
		if err != nil {
			if errors.Is(err, apperrors.ErrEventNotFound) || errors.Is(err, sql.ErrNoRows) {
				return respondCallback(c, "This event is no longer available.", true)
			}
			return fmt.Errorf("find event %d: %w", eventID, err)
		}

		if err := ackCallback(c); err != nil {
			return err
		}

		text := fmt.Sprintf(
			"📅 *%s*\n🗓 %s\n\n%s",
			event.Name,
			event.Date.Format("Monday, January 2, 2006 at 15:04"),
			event.Description,
		)

		if event.PosterURL != "" {
			photo := &telebot.Photo{
				File:    telebot.FromURL(event.PosterURL),
				Caption: text,
			}
			return c.Send(photo, kb.BackToMenu(), telebot.ModeMarkdown)
		}

		return c.Edit(text, kb.BackToMenu(), telebot.ModeMarkdown)
	}
}

// HandleLeaderboard shows the top users by points.
func HandleLeaderboard(users Users, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}

		top, err := users.Leaderboard(context.Background(), leaderboardSize)
		if err != nil {
			return fmt.Errorf("load leaderboard: %w", err)
		}

		if err := ackCallback(c); err != nil {
			return err
		}

		if len(top) == 0 {
			return c.Edit("🏆 The leaderboard is empty. Be the first to earn points!", kb.BackToMenu())
		}

		var sb strings.Builder
		sb.WriteString("🏆 *Leaderboard*\n\n")
		for i, user := range top {
			sb.WriteString(fmt.Sprintf("%s %s — %d points\n", rankLabel(i+1), user.Name, user.Points))
		}

		return c.Edit(sb.String(), kb.BackToMenu(), telebot.ModeMarkdown)
	}
}

// HandleDisposalHistory shows the user's recent disposal credits.
func HandleDisposalHistory(users Users, ledger Ledger, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		ctx := context.Background()
		user, err := users.FindByTelegramID(ctx, c.Sender().ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return respondNotRegistered(c)
			}
			return fmt.Errorf("look up user %d: %w", c.Sender().ID, err)
		}

		history, err := ledger.History(ctx, user.ID, disposalHistoryMatch, disposalHistorySize)
		if err != nil {
			return fmt.Errorf("load disposal history for user %d: %w", user.ID, err)
		}

		if err := ackCallback(c); err != nil {
			return err
		}

		if len(history) == 0 {
			return c.Edit("🗑 No disposals yet. Link the bin and start earning!", kb.BackToMenu())
		}

		var sb strings.Builder
		sb.WriteString("🗑 *Your recent disposals*\n\n")
		for _, tx := range history {
			sb.WriteString(fmt.Sprintf(
				"• %s (+%d pts) — %s\n",
				tx.Description,
				tx.PointsChange,
				tx.CreatedAt.Format("Jan 2, 15:04"),
			))
		}

		return c.Edit(sb.String(), kb.BackToMenu(), telebot.ModeMarkdown)
	}
}

// HandleMainMenu returns the user to the main menu.
func HandleMainMenu(kb *keyboard.Builder) CallbackHandler {
	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}

		if err := ackCallback(c); err != nil {
			return err
		}

		return c.Edit("What would you like to do?", kb.MainMenu())
	}
}

func rankLabel(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return fmt.Sprintf("%d.", rank)
	}
}

func ackCallback(c telebot.Context) error {
	if c.Callback() == nil {
		return nil
	}
	return c.Respond(&telebot.CallbackResponse{})
}

func respondCallback(c telebot.Context, text string, alert bool) error {
	if c == nil {
		return nil
	}
	return c.Respond(&telebot.CallbackResponse{
		Text:      text,
		ShowAlert: alert,
	})
}

func respondNotRegistered(c telebot.Context) error {
	return respondCallback(c, "You're not registered yet. Send /start to sign up.", true)
}
