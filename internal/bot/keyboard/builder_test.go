package keyboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/comebin/ecobin-bot/internal/domain"
)

func TestBuilder_MainMenu(t *testing.T) {
	kb := NewBuilder(nil)
	markup := kb.MainMenu()

	var data []string
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			data = append(data, btn.Data)
		}
	}

	assert.Equal(t, []string{
		"check_balance",
		"redeem_rewards",
		"view_events",
		"leaderboard",
		"view_disposal_history",
	}, data)
}

func TestBuilder_RewardList(t *testing.T) {
	kb := NewBuilder(nil)

	rewards := []*domain.Reward{
		{ID: 1, Name: "Tote Bag", PointsRequired: 50},
		{ID: 7, Name: "Coffee Voucher", PointsRequired: 120},
	}

	markup := kb.RewardList(rewards)

	assert.Len(t, markup.InlineKeyboard, 3)
	assert.Equal(t, "redeem_1", markup.InlineKeyboard[0][0].Data)
	assert.Contains(t, markup.InlineKeyboard[0][0].Text, "Tote Bag")
	assert.Contains(t, markup.InlineKeyboard[0][0].Text, "50")
	assert.Equal(t, "redeem_7", markup.InlineKeyboard[1][0].Data)

	backRow := markup.InlineKeyboard[len(markup.InlineKeyboard)-1]
	assert.Equal(t, "main_menu", backRow[0].Data)
}

func TestBuilder_EventList(t *testing.T) {
	kb := NewBuilder(nil)

	events := []*domain.Event{
		{ID: 3, Name: "River Cleanup", Date: time.Now()},
	}

	markup := kb.EventList(events)

	assert.Len(t, markup.InlineKeyboard, 2)
	assert.Equal(t, "event_3", markup.InlineKeyboard[0][0].Data)
	assert.Equal(t, "River Cleanup", markup.InlineKeyboard[0][0].Text)
	assert.Equal(t, "main_menu", markup.InlineKeyboard[1][0].Data)
}

func TestBuilder_ContactRequest(t *testing.T) {
	kb := NewBuilder(nil)
	markup := kb.ContactRequest()

	assert.True(t, markup.ResizeKeyboard)
	assert.True(t, markup.OneTimeKeyboard)
	if assert.Len(t, markup.ReplyKeyboard, 1) && assert.Len(t, markup.ReplyKeyboard[0], 1) {
		assert.True(t, markup.ReplyKeyboard[0][0].Contact)
	}
}
