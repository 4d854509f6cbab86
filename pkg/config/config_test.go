package config

import (
	"testing"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Logger: LoggerConfig{Level: "info", Format: "text"},
		Server: ServerConfig{Port: ":8080", ShutdownTimeout: 10 * time.Second},
		Bot:    BotConfig{Token: "123456:test-token", Mode: "polling"},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "ecobin",
			Password: "secret",
			Name:     "ecobin",
		},
		Redis:  RedisConfig{Addr: "localhost:6379"},
		Broker: BrokerConfig{URL: "tcp://localhost:1883", Topic: "ecobin/disposals"},
	}
}

func TestConfigValidation(t *testing.T) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid config passes",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing bot token",
			mutate:  func(c *Config) { c.Bot.Token = "" },
			wantErr: true,
		},
		{
			name:    "missing database password",
			mutate:  func(c *Config) { c.Database.Password = "" },
			wantErr: true,
		},
		{
			name:    "missing broker url",
			mutate:  func(c *Config) { c.Broker.URL = "" },
			wantErr: true,
		},
		{
			name:    "missing broker topic",
			mutate:  func(c *Config) { c.Broker.Topic = "" },
			wantErr: true,
		},
		{
			name:    "missing redis addr",
			mutate:  func(c *Config) { c.Redis.Addr = "" },
			wantErr: true,
		},
		{
			name:    "unknown bot mode",
			mutate:  func(c *Config) { c.Bot.Mode = "carrier-pigeon" },
			wantErr: true,
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logger.Level = "verbose" },
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)

			err := validate.Struct(cfg)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := validConfig()

	assert.Equal(t,
		"host=localhost port=5432 user=ecobin password=secret dbname=ecobin sslmode=disable",
		cfg.Database.DSN(),
	)

	cfg.Database.SSLMode = "require"
	assert.Contains(t, cfg.Database.DSN(), "sslmode=require")
}
