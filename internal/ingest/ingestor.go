// Package ingest consumes bin sensor events from MQTT and turns them into
// point credits for the active bin operator. Sensor traffic is fire and
// forget: malformed payloads, unknown categories, and an unbound bin are all
// logged and dropped without surfacing errors upstream.
package ingest

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/comebin/ecobin-bot/internal/domain"
	"github.com/comebin/ecobin-bot/pkg/config"
	"github.com/comebin/ecobin-bot/pkg/metrics"
)

// Ledger credits points to a user.
type Ledger interface {
	Credit(ctx context.Context, userID int64, delta int64, description string) (int64, error)
}

// Sessions resolves the user currently bound to the bin.
type Sessions interface {
	GetActive(ctx context.Context) (*domain.User, error)
}

// Notifier enqueues an outbound message without blocking.
type Notifier interface {
	Enqueue(recipient int64, text string)
}

const handleTimeout = 10 * time.Second

// Ingestor subscribes to the sensor topic and processes disposal events.
type Ingestor struct {
	cfg      config.BrokerConfig
	ledger   Ledger
	sessions Sessions
	notifier Notifier
	log      *slog.Logger

	client mqtt.Client
}

// NewIngestor builds an Ingestor; Start connects and subscribes.
func NewIngestor(cfg config.BrokerConfig, ledger Ledger, sessions Sessions, notifier Notifier, log *slog.Logger) *Ingestor {
	if log == nil {
		log = slog.Default()
	}

	return &Ingestor{
		cfg:      cfg,
		ledger:   ledger,
		sessions: sessions,
		notifier: notifier,
		log:      log,
	}
}

// Start connects to the broker and subscribes to the disposal topic. The
// client reconnects and resubscribes on its own; the subscription lives for
// the process lifetime.
func (i *Ingestor) Start() error {
	opts := mqtt.NewClientOptions().
		AddBroker(i.cfg.URL).
		SetClientID(fmt.Sprintf("ecobin_%s", uuid.NewString()[:8])).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetOrderMatters(true)

	if i.cfg.Username != "" {
		opts.SetUsername(i.cfg.Username)
		opts.SetPassword(i.cfg.Password)
	}

	if i.cfg.UseTLS {
		tlsCfg, err := i.tlsConfig()
		if err != nil {
			return err
		}
		opts.SetTLSConfig(tlsCfg)
	}

	opts.OnConnect = func(client mqtt.Client) {
		i.log.Info("connected to mqtt broker", slog.String("topic", i.cfg.Topic))

		token := client.Subscribe(i.cfg.Topic, 1, i.onMessage)
		token.Wait()
		if err := token.Error(); err != nil {
			i.log.Error("failed to subscribe to sensor topic", slog.String("topic", i.cfg.Topic), slog.Any("error", err))
		}
	}

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		i.log.Warn("mqtt connection lost, reconnecting", slog.Any("error", err))
	}

	i.client = mqtt.NewClient(opts)

	token := i.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to mqtt broker: %w", err)
	}

	return nil
}

// Stop disconnects from the broker.
func (i *Ingestor) Stop() {
	if i.client != nil && i.client.IsConnected() {
		i.client.Disconnect(250)
	}
}

// HealthCheck reports broker connectivity.
func (i *Ingestor) HealthCheck(_ context.Context) error {
	if i.client == nil || !i.client.IsConnected() {
		return fmt.Errorf("mqtt client is not connected")
	}
	return nil
}

func (i *Ingestor) onMessage(_ mqtt.Client, msg mqtt.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	i.OnSensorEvent(ctx, msg.Payload())
}

// OnSensorEvent processes one raw sensor payload. It never propagates an
// error: every failure mode is logged and the event dropped.
func (i *Ingestor) OnSensorEvent(ctx context.Context, payload []byte) {
	category, points, err := parseDisposal(payload)
	if err != nil {
		i.log.Warn("dropping sensor event", slog.Any("error", err))
		metrics.RecordDisposal(category, "dropped", 0)
		return
	}

	operator, err := i.sessions.GetActive(ctx)
	if err != nil {
		i.log.Error("failed to resolve active bin operator", slog.Any("error", err))
		metrics.RecordDisposal(category, "error", 0)
		return
	}
	if operator == nil {
		i.log.Warn("no active bin operator, dropping disposal", slog.String("category", category))
		metrics.RecordDisposal(category, "no_operator", 0)
		return
	}

	balance, err := i.ledger.Credit(ctx, operator.ID, points, fmt.Sprintf("Disposed %s from the bin", category))
	if err != nil {
		i.log.Error("failed to credit disposal",
			slog.Int64("user_id", operator.ID),
			slog.String("category", category),
			slog.Any("error", err),
		)
		metrics.RecordDisposal(category, "error", 0)
		return
	}

	metrics.RecordDisposal(category, "credited", points)

	i.log.Info("disposal credited",
		slog.Int64("user_id", operator.ID),
		slog.String("category", category),
		slog.Int64("points", points),
		slog.Int64("balance", balance),
	)

	i.notifier.Enqueue(operator.TelegramID, fmt.Sprintf(
		"🎉 *Great job*, %s!\n\nYou've earned *%d points* for disposing *%s*.\n\n💰 *Your current balance:* %d points.",
		operator.Name, points, category, balance,
	))
}

func (i *Ingestor) tlsConfig() (*tls.Config, error) {
	// #nosec G402: insecure mode is an explicit operator opt-in for test brokers
	cfg := &tls.Config{InsecureSkipVerify: i.cfg.TLSInsecure}

	if i.cfg.TLSCACert != "" {
		pem, err := os.ReadFile(i.cfg.TLSCACert)
		if err != nil {
			return nil, fmt.Errorf("read broker CA cert: %w", err)
		}

		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("broker CA cert %q contains no certificates", i.cfg.TLSCACert)
		}
		cfg.RootCAs = pool
	}

	if i.cfg.TLSCertFile != "" && i.cfg.TLSKeyFile != "" {
		cert, err := tls.LoadX509KeyPair(i.cfg.TLSCertFile, i.cfg.TLSKeyFile)
		if err != nil {
			return nil, fmt.Errorf("load broker client cert: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	return cfg, nil
}
