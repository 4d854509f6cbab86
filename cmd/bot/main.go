package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sentry "github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/comebin/ecobin-bot/internal/bot"
	"github.com/comebin/ecobin-bot/internal/database"
	"github.com/comebin/ecobin-bot/internal/health"
	"github.com/comebin/ecobin-bot/internal/idempotency"
	"github.com/comebin/ecobin-bot/internal/ingest"
	"github.com/comebin/ecobin-bot/internal/ledger"
	"github.com/comebin/ecobin-bot/internal/middleware"
	"github.com/comebin/ecobin-bot/internal/notify"
	"github.com/comebin/ecobin-bot/internal/ratelimit"
	"github.com/comebin/ecobin-bot/internal/redemption"
	"github.com/comebin/ecobin-bot/internal/repository"
	"github.com/comebin/ecobin-bot/internal/session"
	"github.com/comebin/ecobin-bot/internal/state"
	"github.com/comebin/ecobin-bot/pkg/config"
	"github.com/comebin/ecobin-bot/pkg/graceful"
	"github.com/comebin/ecobin-bot/pkg/logger"
	"github.com/comebin/ecobin-bot/pkg/metrics"
	redisclient "github.com/comebin/ecobin-bot/pkg/redis"

	_ "github.com/lib/pq"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		return 1
	}

	log := logger.New(*cfg)
	log.Info("starting ecobin bot",
		slog.String("env", cfg.AppEnv),
		slog.String("ops_port", cfg.Server.Port),
		slog.String("log_level", cfg.Logger.Level),
	)

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			log.Error("failed to initialize sentry", slog.Any("error", err))
			return 1
		}
		defer sentry.Flush(2 * time.Second)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Error("failed to open database", slog.Any("error", err))
		return 1
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Error("error closing database", slog.Any("error", cerr))
		}
	}()

	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to ping database", slog.Any("error", err))
		return 1
	}

	migrationsDir := cfg.Database.MigrationsDir
	if migrationsDir == "" {
		migrationsDir = "migrations"
	}
	if err := database.NewMigrator(db, log).ApplyDir(ctx, migrationsDir); err != nil {
		log.Error("failed to apply migrations", slog.Any("error", err))
		return 1
	}

	rdb, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", slog.Any("error", err))
		return 1
	}
	defer func() {
		if cerr := rdb.Close(); cerr != nil {
			log.Error("error closing redis", slog.Any("error", cerr))
		}
	}()

	fsm := state.NewStateMachine(state.NewRedisStorage(rdb.Client, log), log, rdb.Client)
	idm := idempotency.NewManager(idempotency.NewRedisStore(rdb.Client, log), log)

	var rateLimitMw *middleware.RateLimitMiddleware
	if cfg.RateLimit.Enabled {
		rateLimitMw = middleware.NewRateLimitMiddleware(
			ratelimit.NewRedisLimiter(rdb.Client, log),
			ratelimit.NewRules(cfg.RateLimit),
			log,
		)
	}

	users := repository.NewUserRepository(db, log)
	rewards := repository.NewRewardRepository(db, log)
	events := repository.NewEventRepository(db, log)
	ledgerSvc := ledger.NewService(db, log)
	arbiter := redemption.NewArbiter(db, log)
	sessions := session.NewRegistry(db, log)
	dispatcher := notify.NewDispatcher(cfg.Bot.QueueSize, log)

	b, err := bot.New(*cfg, log, fsm, idm, rateLimitMw, bot.Services{
		Users:    users,
		Rewards:  rewards,
		Events:   events,
		Ledger:   ledgerSvc,
		Arbiter:  arbiter,
		Sessions: sessions,
		Notifier: dispatcher,
	})
	if err != nil {
		log.Error("failed to initialize telegram bot", slog.Any("error", err))
		return 1
	}

	sender := notify.NewTelegramSender(b.Telebot(), cfg.Bot.SendTimeout)
	go dispatcher.Run(ctx, sender)

	ingestor := ingest.NewIngestor(cfg.Broker, ledgerSvc, sessions, dispatcher, log)
	if err := ingestor.Start(); err != nil {
		log.Error("failed to start sensor ingestor", slog.Any("error", err))
		return 1
	}
	defer ingestor.Stop()

	go metrics.NewStateCollector(fsm).Run(ctx)

	checker := health.NewChecker(log)
	checker.Register("database", health.DBCheck(db))
	checker.Register("redis", health.RedisCheck(rdb.Client))
	checker.Register("telegram", health.TelegramCheck(b.Telebot()))
	checker.Register("broker", ingestor)

	mux := http.NewServeMux()
	mux.Handle("/healthz", checker.Handler())
	mux.Handle("/metrics", promhttp.Handler())

	ops := graceful.NewServer(log, &http.Server{
		Addr:    cfg.Server.Port,
		Handler: logger.Middleware(mux),
	}, cfg.Server.ShutdownTimeout)

	go func() {
		if err := ops.ListenAndServe(ctx); err != nil {
			log.Error("ops server failed", slog.Any("error", err))
		}
	}()

	config.Watch(v, func(updated *config.Config) {
		logger.SetLevel(updated.Logger.Level)
		log.Info("configuration reloaded", slog.String("log_level", updated.Logger.Level))
	})

	go b.Start()

	<-ctx.Done()

	log.Info("shutting down ecobin bot")
	b.Stop()

	return 0
}
