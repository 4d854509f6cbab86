// Package handlers implements the bot's command, callback, and state
// handlers on top of narrow service interfaces so tests can stub them.
package handlers

import (
	"context"

	telebot "gopkg.in/telebot.v3"

	"github.com/comebin/ecobin-bot/internal/domain"
	"github.com/comebin/ecobin-bot/internal/redemption"
)

// Handler processes bot commands.
type Handler func(c telebot.Context) error

// CallbackHandler processes inline callback events.
type CallbackHandler func(c telebot.Context) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

// Users is the subset of the user repository the handlers need.
type Users interface {
	FindByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	UpdateName(ctx context.Context, userID int64, name string) error
	Leaderboard(ctx context.Context, limit int) ([]*domain.User, error)
}

// Rewards lists redeemable rewards.
type Rewards interface {
	List(ctx context.Context) ([]*domain.Reward, error)
}

// Events lists and resolves upcoming events.
type Events interface {
	List(ctx context.Context) ([]*domain.Event, error)
	FindByID(ctx context.Context, id int64) (*domain.Event, error)
}

// Ledger reads a user's transaction history.
type Ledger interface {
	History(ctx context.Context, userID int64, filter string, limit int) ([]*domain.Transaction, error)
}

// Arbiter settles reward redemptions.
type Arbiter interface {
	Redeem(ctx context.Context, userID, rewardID int64) (*redemption.Receipt, error)
}

// SessionRegistry binds and resolves the active bin operator.
type SessionRegistry interface {
	Activate(ctx context.Context, userID int64) (*domain.User, error)
	GetActive(ctx context.Context) (*domain.User, error)
}

// Notifier enqueues an outbound message without blocking.
type Notifier interface {
	Enqueue(recipient int64, text string)
}
