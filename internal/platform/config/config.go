// Package config loads service configuration from the environment so main
// stays lean. A local .env file is honored in development.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config captures every tunable of the triage service.
type Config struct {
	Addr string `env:"SUPPORTOPS_ADDR" envDefault:":8080"`

	// AuditBackend selects the audit store implementation:
	// "memory", "sqlite" or "postgres".
	AuditBackend    string `env:"AUDIT_BACKEND" envDefault:"sqlite"`
	AuditSQLitePath string `env:"AUDIT_SQLITE_PATH"`
	PostgresDSN     string `env:"DATABASE_URL"`

	RedisURL string `env:"REDIS_URL"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"AUDIT_EVENTS_TOPIC" envDefault:"supportops.audit.events"`

	// AuditSecret keys the HMAC that binds an authorization decision to its
	// audit record. Override outside development.
	AuditSecret         string   `env:"AUDIT_SECRET" envDefault:"dev-secret"`
	AuthorizedApprovers []string `env:"AUTHORIZED_APPROVERS" envSeparator:"," envDefault:"human_approver"`

	JWTSigningKey string `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`

	GitHubToken string `env:"GITHUB_TOKEN"`
	GitHubRepo  string `env:"GITHUB_REPO"`
	TicketRepo  string `env:"TICKET_REPO" envDefault:"support_agent"`

	SinkTimeout time.Duration `env:"SINK_TIMEOUT" envDefault:"10s"`
}

// Load reads configuration from the environment. Missing .env is not an
// error; explicit environment always wins over file contents.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.AuditSQLitePath == "" {
		cfg.AuditSQLitePath = filepath.Join(os.TempDir(), "supportops_audit.db")
	}

	switch cfg.AuditBackend {
	case "memory", "sqlite":
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("AUDIT_BACKEND=postgres requires DATABASE_URL")
		}
	default:
		return nil, fmt.Errorf("unknown audit backend %q", cfg.AuditBackend)
	}

	return cfg, nil
}
