package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", c.Server.Port)
	}
	if c.Analytics.Timeout != 60*time.Second {
		t.Fatalf("expected default timeout 60s, got %v", c.Analytics.Timeout)
	}
	if c.Analytics.FetchPath != "/api/fetch-data" || c.Analytics.HeatmapPath != "/api/heatmap" {
		t.Fatalf("unexpected paths %q %q", c.Analytics.FetchPath, c.Analytics.HeatmapPath)
	}
	if len(c.Dashboard.Instruments) != len(DefaultInstruments) {
		t.Fatalf("expected default catalog, got %d instruments", len(c.Dashboard.Instruments))
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	src := `
environment: prod
server:
  port: 9090
analytics:
  base_url: http://analytics:5000
  timeout: 5s
dashboard:
  instruments:
    - { symbol: SPY, label: "S&P 500 (SPY)" }
`
	c, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Server.Port != 9090 {
		t.Fatalf("port = %d", c.Server.Port)
	}
	if c.Analytics.Timeout != 5*time.Second {
		t.Fatalf("timeout = %v", c.Analytics.Timeout)
	}
	if len(c.Dashboard.Instruments) != 1 || c.Dashboard.Instruments[0].Symbol != "SPY" {
		t.Fatalf("instruments = %+v", c.Dashboard.Instruments)
	}
}

func TestValidateRejectsInvertedDefaultRange(t *testing.T) {
	src := `
dashboard:
  default_start: "2024-01-01"
  default_end: "2023-01-01"
`
	if _, err := Parse([]byte(src)); err == nil {
		t.Fatalf("expected validation error for inverted range")
	}
}

func TestValidateRejectsDuplicateInstrument(t *testing.T) {
	src := `
dashboard:
  instruments:
    - { symbol: AAPL }
    - { symbol: AAPL }
`
	if _, err := Parse([]byte(src)); err == nil {
		t.Fatalf("expected validation error for duplicate symbol")
	}
}

func TestValidateRejectsRelativeBaseURL(t *testing.T) {
	if _, err := Parse([]byte("analytics:\n  base_url: localhost\n")); err == nil {
		t.Fatalf("expected validation error for relative base url")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("environment: test\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("ANALYTICS_URL", "http://remote:7000")
	t.Setenv("PORT", "8181")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Analytics.BaseURL != "http://remote:7000" {
		t.Fatalf("base url = %q", c.Analytics.BaseURL)
	}
	if c.Server.Port != 8181 {
		t.Fatalf("port = %d", c.Server.Port)
	}
}

func TestLoadWithEnvMissingFileUsesDefaults(t *testing.T) {
	c, err := LoadWithEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Environment != "development" {
		t.Fatalf("environment = %q", c.Environment)
	}
}
