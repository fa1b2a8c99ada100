package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	DatabaseDSN   string `envconfig:"DATABASE_DSN" default:"Host=localhost;Port=5432;Database=ledger_core_db;Username=postgres;Password=postgres;Timeout=30;CommandTimeout=30"`
	MigrationsDir string `envconfig:"MIGRATIONS_DIR" default:"migrations"`
	HTTPAddr      string `envconfig:"HTTP_ADDR" default:":8080"`

	// Channel credentials guard the internal single-leg posting endpoints.
	ChannelID  string `envconfig:"CHANNEL_ID" default:"LedgerApp"`
	ChannelKey string `envconfig:"CHANNEL_KEY" default:"LedgerKey001"`

	SupportedCurrencies []string `envconfig:"SUPPORTED_CURRENCIES" default:"USD,EUR,CNY"`
	SingleTransferLimit string   `envconfig:"SINGLE_TRANSFER_LIMIT" default:"50000.00"`

	KafkaBrokers            []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaTransferEventTopic string   `envconfig:"KAFKA_TRANSFER_EVENT_TOPIC" default:"transfer_status_events"`

	OutboxPollInterval    time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"1s"`
	RecoverySweepInterval time.Duration `envconfig:"RECOVERY_SWEEP_INTERVAL" default:"30s"`

	transferLimit decimal.Decimal
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}

	limit, err := decimal.NewFromString(strings.TrimSpace(cfg.SingleTransferLimit))
	if err != nil {
		return Config{}, fmt.Errorf("parse SINGLE_TRANSFER_LIMIT: %w", err)
	}
	if limit.LessThanOrEqual(decimal.Zero) {
		return Config{}, fmt.Errorf("SINGLE_TRANSFER_LIMIT must be positive, got %s", limit)
	}
	cfg.transferLimit = limit

	for i, currency := range cfg.SupportedCurrencies {
		cfg.SupportedCurrencies[i] = strings.ToUpper(strings.TrimSpace(currency))
	}

	cfg.DatabaseDSN = normalizeConnectionString(cfg.DatabaseDSN)

	return cfg, nil
}

func (c Config) TransferLimit() decimal.Decimal {
	return c.transferLimit
}

// normalizeConnectionString accepts both ADO-style "Host=...;Port=..." and
// native libpq key=value strings and returns the libpq form.
func normalizeConnectionString(raw string) string {
	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	hasSSLMode := false

	for _, part := range parts {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}

		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])

		switch key {
		case "host":
			out = append(out, "host="+val)
		case "port":
			out = append(out, "port="+val)
		case "database":
			out = append(out, "dbname="+val)
		case "username":
			out = append(out, "user="+val)
		case "password":
			out = append(out, "password="+val)
		case "timeout", "connect timeout":
			out = append(out, "connect_timeout="+val)
		case "commandtimeout", "command timeout":
			out = append(out, "statement_timeout="+val+"s")
		case "sslmode":
			hasSSLMode = true
			out = append(out, "sslmode="+val)
		default:
			out = append(out, key+"="+val)
		}
	}

	if len(out) == 0 {
		return raw
	}

	if !hasSSLMode {
		out = append(out, "sslmode=disable")
	}

	return strings.Join(out, " ")
}
