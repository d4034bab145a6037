package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CheckInterval != 2*time.Minute {
		t.Errorf("CheckInterval = %v, want 2m", cfg.CheckInterval)
	}
	if cfg.GracePeriod != 10*time.Minute {
		t.Errorf("GracePeriod = %v, want 10m", cfg.GracePeriod)
	}
	if cfg.FailureThreshold != 3 {
		t.Errorf("FailureThreshold = %d, want 3", cfg.FailureThreshold)
	}
	if cfg.ProbeMaxRetries != 3 || cfg.ProbeBaseDelay != time.Second || cfg.ProbeMaxDelay != 30*time.Second {
		t.Errorf("retry defaults = %d/%v/%v", cfg.ProbeMaxRetries, cfg.ProbeBaseDelay, cfg.ProbeMaxDelay)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MONITOR_CHECK_INTERVAL", "30s")
	t.Setenv("MONITOR_FAILURE_THRESHOLD", "5")
	t.Setenv("PROBE_RETRY_MULTIPLIER", "1.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CheckInterval != 30*time.Second {
		t.Errorf("CheckInterval = %v, want 30s", cfg.CheckInterval)
	}
	if cfg.FailureThreshold != 5 {
		t.Errorf("FailureThreshold = %d, want 5", cfg.FailureThreshold)
	}
	if cfg.ProbeMultiplier != 1.5 {
		t.Errorf("ProbeMultiplier = %v, want 1.5", cfg.ProbeMultiplier)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("MONITOR_GRACE_PERIOD", "ten minutes")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid MONITOR_GRACE_PERIOD")
	}
}

func TestLoadInvalidMultiplier(t *testing.T) {
	t.Setenv("PROBE_RETRY_MULTIPLIER", "0.5")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for multiplier < 1")
	}
}

func TestValidateProbeReady(t *testing.T) {
	cfg := &Config{}
	if err := cfg.ValidateProbeReady("twitch"); err == nil {
		t.Error("expected error without twitch credentials")
	}
	cfg.TwitchClientID = "id"
	cfg.TwitchClientSecret = "secret"
	if err := cfg.ValidateProbeReady("twitch"); err != nil {
		t.Errorf("ValidateProbeReady(twitch) = %v", err)
	}
	if err := cfg.ValidateProbeReady("youtube"); err == nil {
		t.Error("expected error without youtube key")
	}
	// Unknown platforms need no credentials.
	if err := cfg.ValidateProbeReady("zoom"); err != nil {
		t.Errorf("ValidateProbeReady(zoom) = %v", err)
	}
}
