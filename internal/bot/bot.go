// Package bot wires the Telegram surface: the telebot instance, the update
// router, state dispatch, and all command and callback handlers.
package bot

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/comebin/ecobin-bot/internal/bot/handlers"
	"github.com/comebin/ecobin-bot/internal/bot/keyboard"
	errors "github.com/comebin/ecobin-bot/internal/errors"
	"github.com/comebin/ecobin-bot/internal/idempotency"
	"github.com/comebin/ecobin-bot/internal/middleware"
	"github.com/comebin/ecobin-bot/internal/state"
	"github.com/comebin/ecobin-bot/pkg/config"
)

// Services groups the domain dependencies the handlers need.
type Services struct {
	Users    handlers.Users
	Rewards  handlers.Rewards
	Events   handlers.Events
	Ledger   handlers.Ledger
	Arbiter  handlers.Arbiter
	Sessions handlers.SessionRegistry
	Notifier handlers.Notifier
}

// Bot wraps telebot.Bot with application dependencies required for handling updates.
type Bot struct {
	telebot            *telebot.Bot
	log                *slog.Logger
	cfg                config.Config
	fsm                state.StateMachine
	rateLimitMw        *middleware.RateLimitMiddleware
	router             *Router
	dispatcher         *Dispatcher
	keyboard           *keyboard.Builder
	errHandler         *errors.Handler
	idempotencyManager idempotency.Manager
	services           Services
}

// New builds a telegram bot instance configured according to the application settings.
func New(
	cfg config.Config,
	log *slog.Logger,
	fsm state.StateMachine,
	idempotencyManager idempotency.Manager,
	rateLimitMw *middleware.RateLimitMiddleware,
	services Services,
) (*Bot, error) {
	settings := telebot.Settings{
		Token: cfg.Bot.Token,
	}

	if cfg.Bot.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen: cfg.Server.Port,
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Bot.Timeout,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	kb := keyboard.NewBuilder(log)
	dispatcher := NewDispatcher(fsm, log)
	router := NewRouter(dispatcher, log)
	errHandler := errors.NewHandler(log, cfg.Sentry.Enabled)

	b := &Bot{
		telebot:            tb,
		log:                log,
		cfg:                cfg,
		fsm:                fsm,
		rateLimitMw:        rateLimitMw,
		router:             router,
		dispatcher:         dispatcher,
		keyboard:           kb,
		errHandler:         errHandler,
		idempotencyManager: idempotencyManager,
		services:           services,
	}

	b.setupRouter()

	if b.rateLimitMw != nil {
		b.telebot.Use(b.rateLimitMw.Handle)
	}

	b.registerTelebotHandlers()

	return b, nil
}

// Start runs the telegram bot event loop.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	if b.log != nil {
		b.log.Info("stopping telegram bot...")
	}

	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as
// the notification sender and health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

func (b *Bot) setupRouter() {
	if b.router == nil {
		return
	}

	b.router.Use(RecoveryMiddleware(b.log, b.errHandler))
	b.router.Use(middleware.Idempotency(b.idempotencyManager, b.log))
	b.router.Use(ErrorHandlingMiddleware(b.errHandler))
	b.router.Use(LoggingMiddleware(b.log))
	b.router.Use(middleware.Metrics)

	svc := b.services

	b.router.RegisterCommand(CommandStart,
		handlers.NewStartHandler(svc.Users, svc.Sessions, svc.Notifier, b.fsm, b.keyboard, b.cfg.Notifications.MenuImageURL, b.log))
	b.router.RegisterCommand(CommandActiveUser,
		handlers.NewActiveUserHandler(svc.Sessions, b.log))

	b.router.RegisterCallback(CallbackCheckBalance, handlers.HandleCheckBalance(svc.Users, b.keyboard, b.log))
	b.router.RegisterCallback(CallbackRedeemRewards, handlers.HandleRedeemRewards(svc.Rewards, b.keyboard, b.log))
	b.router.RegisterCallback(CallbackRedeemPrefix, handlers.HandleRedeem(svc.Users, svc.Arbiter, b.keyboard, b.log))
	b.router.RegisterCallback(CallbackViewEvents, handlers.HandleViewEvents(svc.Events, b.keyboard, b.log))
	b.router.RegisterCallback(CallbackEventPrefix, handlers.HandleEventDetails(svc.Events, b.keyboard, b.log))
	b.router.RegisterCallback(CallbackLeaderboard, handlers.HandleLeaderboard(svc.Users, b.keyboard, b.log))
	b.router.RegisterCallback(CallbackDisposalHistory, handlers.HandleDisposalHistory(svc.Users, svc.Ledger, b.keyboard, b.log))
	b.router.RegisterCallback(CallbackMainMenu, handlers.HandleMainMenu(b.keyboard))

	b.dispatcher.RegisterStateHandler(state.StateAwaitingPhone,
		handlers.NewAwaitingPhoneHandler(b.keyboard))
	b.dispatcher.RegisterStateHandler(state.StateAwaitingName,
		handlers.NewNameHandler(svc.Users, b.fsm, b.keyboard, b.log))

	b.router.SetDefault(handlers.NewDefaultHandler(b.keyboard))
}

func (b *Bot) registerTelebotHandlers() {
	if b.telebot == nil || b.router == nil {
		return
	}

	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnCallback, b.router.Route)

	contactHandler := handlers.NewContactHandler(b.services.Users, b.fsm, b.log)
	b.telebot.Handle(telebot.OnContact, func(c telebot.Context) error {
		return b.router.executeHandler(contactHandler, c)
	})
}
