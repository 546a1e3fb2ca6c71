package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("PUBLISHER_CALENDAR_FEED_URL", "https://cal.example/feed.ics")
	t.Setenv("PUBLISHER_CALENDAR_COLLECTION_URL", "https://cal.example/events/")
	t.Setenv("PUBLISHER_ADVOCACY_BASE_URL", "https://actions.example")
	t.Setenv("PUBLISHER_SMTP_FROM", "events@example.org")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTPPort != 8080 {
		t.Fatalf("expected default port, got %d", cfg.HTTPPort)
	}
	if cfg.ZoomBaseURL != "https://api.zoom.us/v2" {
		t.Fatalf("unexpected zoom base URL: %q", cfg.ZoomBaseURL)
	}
	if cfg.CollaboratorTimeout != 30*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.CollaboratorTimeout)
	}
	if cfg.SecretsPath != "secrets.yaml" {
		t.Fatalf("unexpected secrets path: %q", cfg.SecretsPath)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PUBLISHER_HTTP_PORT", "9090")
	t.Setenv("PUBLISHER_COLLABORATOR_TIMEOUT", "5s")
	t.Setenv("PUBLISHER_SQLITE_DSN", "file:custom.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTPPort != 9090 || cfg.CollaboratorTimeout != 5*time.Second || cfg.SQLiteDSN != "file:custom.db" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("PUBLISHER_CALENDAR_FEED_URL", "")
	t.Setenv("PUBLISHER_CALENDAR_COLLECTION_URL", "")
	t.Setenv("PUBLISHER_ADVOCACY_BASE_URL", "https://actions.example")
	t.Setenv("PUBLISHER_SMTP_FROM", "events@example.org")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing required values")
	}
	if !strings.Contains(err.Error(), "PUBLISHER_CALENDAR_FEED_URL") ||
		!strings.Contains(err.Error(), "PUBLISHER_CALENDAR_COLLECTION_URL") {
		t.Fatalf("error must name every missing variable: %v", err)
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	setRequired(t)
	t.Setenv("PUBLISHER_HTTP_PORT", "-1")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "PUBLISHER_HTTP_PORT") {
		t.Fatalf("expected invalid port error, got %v", err)
	}
}
