// Package keyboard renders the inline and reply keyboards shown by the bot.
package keyboard

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/comebin/ecobin-bot/internal/domain"
)

// Builder creates keyboards for the bot menus.
type Builder struct {
	log *slog.Logger
}

// NewBuilder returns a new Builder instance.
func NewBuilder(log *slog.Logger) *Builder {
	return &Builder{log: log}
}

// MainMenu builds the idle state menu.
func (b *Builder) MainMenu() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	markup.InlineKeyboard = [][]telebot.InlineButton{
		{
			{
				Text: "💰 Check Balance",
				Data: "check_balance",
			},
		},
		{
			{
				Text: "🎁 Redeem Rewards",
				Data: "redeem_rewards",
			},
		},
		{
			{
				Text: "📅 View Events",
				Data: "view_events",
			},
		},
		{
			{
				Text: "🏆 Leaderboard",
				Data: "leaderboard",
			},
		},
		{
			{
				Text: "🗑 View Disposal History",
				Data: "view_disposal_history",
			},
		},
	}
	return markup
}

// RewardList builds one button per reward, labelled with its point price,
// plus a row that returns to the main menu.
func (b *Builder) RewardList(rewards []*domain.Reward) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	rows := make([][]telebot.InlineButton, 0, len(rewards)+1)

	for _, reward := range rewards {
		rows = append(rows, []telebot.InlineButton{
			{
				Text: fmt.Sprintf("%s — %d pts", reward.Name, reward.PointsRequired),
				Data: fmt.Sprintf("redeem_%d", reward.ID),
			},
		})
	}

	rows = append(rows, backRow())
	markup.InlineKeyboard = rows
	return markup
}

// EventList builds one button per upcoming event plus a back row.
func (b *Builder) EventList(events []*domain.Event) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	rows := make([][]telebot.InlineButton, 0, len(events)+1)

	for _, event := range events {
		rows = append(rows, []telebot.InlineButton{
			{
				Text: event.Name,
				Data: fmt.Sprintf("event_%d", event.ID),
			},
		})
	}

	rows = append(rows, backRow())
	markup.InlineKeyboard = rows
	return markup
}

// BackToMenu builds a single button returning to the main menu.
func (b *Builder) BackToMenu() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	markup.InlineKeyboard = [][]telebot.InlineButton{backRow()}
	return markup
}

// ContactRequest builds a one-time reply keyboard asking the user to share
// their phone number during registration.
func (b *Builder) ContactRequest() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}

	shareBtn := markup.Contact("📱 Share my phone number")
	markup.Reply(markup.Row(shareBtn))

	return markup
}

func backRow() []telebot.InlineButton {
	return []telebot.InlineButton{
		{
			Text: "⬅️ Back to Menu",
			Data: "main_menu",
		},
	}
}
