package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigDir(t *testing.T, configTOML string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(configTOML), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "credentials.toml"), []byte(credentialsTemplate), 0600); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := writeConfigDir(t, "# empty, defaults apply\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pricing.RiskFreeRate != 0.07 {
		t.Errorf("risk_free_rate = %v", cfg.Pricing.RiskFreeRate)
	}
	if cfg.Chain.StrikeRadius != 10 {
		t.Errorf("strike_radius = %v", cfg.Chain.StrikeRadius)
	}
	if cfg.Polling.Interval != 15*time.Second {
		t.Errorf("interval = %v", cfg.Polling.Interval)
	}
	if cfg.Polling.ChunkSize != 20 {
		t.Errorf("chunk_size = %v", cfg.Polling.ChunkSize)
	}
	if cfg.Cache.MaxAge != 12*time.Hour {
		t.Errorf("cache max_age = %v", cfg.Cache.MaxAge)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := writeConfigDir(t, `
[chain]
default_underlying = "BANKNIFTY"
strike_radius = 4

[polling]
interval = "10s"
parallel_quotes = true
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Chain.DefaultUnderlying != "BANKNIFTY" {
		t.Errorf("default_underlying = %q", cfg.Chain.DefaultUnderlying)
	}
	if cfg.Chain.StrikeRadius != 4 {
		t.Errorf("strike_radius = %v", cfg.Chain.StrikeRadius)
	}
	if cfg.Polling.Interval != 10*time.Second {
		t.Errorf("interval = %v", cfg.Polling.Interval)
	}
	if !cfg.Polling.ParallelQuotes {
		t.Error("parallel_quotes not applied")
	}
}

func TestLoadCreatesTemplates(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fresh")

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected error on missing config")
	}
	if !strings.Contains(err.Error(), "created template") {
		t.Errorf("err = %v, want template creation notice", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "config.toml")); statErr != nil {
		t.Errorf("config template not created: %v", statErr)
	}
}

func TestEnvOverridesCredentials(t *testing.T) {
	dir := writeConfigDir(t, "")
	t.Setenv("ANGEL_API_KEY", "env-key")
	t.Setenv("ANGEL_AUTH_TOKEN", "env-token")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Credentials.Angel.APIKey != "env-key" {
		t.Errorf("api key = %q", cfg.Credentials.Angel.APIKey)
	}
	if cfg.Credentials.Angel.AuthToken != "env-token" {
		t.Errorf("auth token = %q", cfg.Credentials.Angel.AuthToken)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"negative radius", "[chain]\nstrike_radius = -1\n"},
		{"zero volatility", "[pricing]\nmodel_volatility = 0.0\n"},
		{"sub-second interval", "[polling]\ninterval = \"100ms\"\n"},
		{"oversize chunk", "[polling]\nchunk_size = 100\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeConfigDir(t, tt.toml)
			if _, err := Load(dir); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSettingsMapping(t *testing.T) {
	dir := writeConfigDir(t, `
[pricing]
risk_free_rate = 0.065
iv_iterations = 8

[chain]
discount_alert_threshold = 2.5
`)
	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	s := cfg.Settings()
	if s.RiskFreeRate != 0.065 || s.IVIterations != 8 || s.DiscountAlertThreshold != 2.5 {
		t.Errorf("settings = %+v", s)
	}
}
