package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures environment driven configuration values for the publisher
// service. Credentials are not configured here; they live in the secrets
// file referenced by SecretsPath.
type Config struct {
	HTTPPort  int    `env:"PUBLISHER_HTTP_PORT" envDefault:"8080"`
	SQLiteDSN string `env:"PUBLISHER_SQLITE_DSN" envDefault:"file:publisher.db?_pragma=foreign_keys(1)"`

	// SecretsPath points at the YAML credentials file for the three
	// providers and the SMTP relay.
	SecretsPath string `env:"PUBLISHER_SECRETS_PATH" envDefault:"secrets.yaml"`

	ZoomBaseURL  string `env:"PUBLISHER_ZOOM_BASE_URL" envDefault:"https://api.zoom.us/v2"`
	ZoomTokenURL string `env:"PUBLISHER_ZOOM_TOKEN_URL" envDefault:"https://zoom.us/oauth/token"`

	// CalendarFeedURL is the read side: the ICS feed scanned for conflicts.
	CalendarFeedURL string `env:"PUBLISHER_CALENDAR_FEED_URL"`
	// CalendarCollectionURL is the write side: the CalDAV collection events
	// are PUT into.
	CalendarCollectionURL string `env:"PUBLISHER_CALENDAR_COLLECTION_URL"`

	AdvocacyBaseURL string `env:"PUBLISHER_ADVOCACY_BASE_URL"`

	SMTPAddr string `env:"PUBLISHER_SMTP_ADDR" envDefault:"localhost:25"`
	SMTPFrom string `env:"PUBLISHER_SMTP_FROM"`

	// CollaboratorTimeout bounds each outbound provider call.
	CollaboratorTimeout time.Duration `env:"PUBLISHER_COLLABORATOR_TIMEOUT" envDefault:"30s"`
}

// Load parses configuration values from the current process environment and
// validates required entries, reporting every missing or invalid variable in
// one pass.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}

	var missing []string
	if strings.TrimSpace(cfg.CalendarFeedURL) == "" {
		missing = append(missing, "PUBLISHER_CALENDAR_FEED_URL")
	}
	if strings.TrimSpace(cfg.CalendarCollectionURL) == "" {
		missing = append(missing, "PUBLISHER_CALENDAR_COLLECTION_URL")
	}
	if strings.TrimSpace(cfg.AdvocacyBaseURL) == "" {
		missing = append(missing, "PUBLISHER_ADVOCACY_BASE_URL")
	}
	if strings.TrimSpace(cfg.SMTPFrom) == "" {
		missing = append(missing, "PUBLISHER_SMTP_FROM")
	}

	var invalid []string
	if cfg.HTTPPort <= 0 {
		invalid = append(invalid, "PUBLISHER_HTTP_PORT")
	}
	if cfg.CollaboratorTimeout <= 0 {
		invalid = append(invalid, "PUBLISHER_COLLABORATOR_TIMEOUT")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("config: required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("config: invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
