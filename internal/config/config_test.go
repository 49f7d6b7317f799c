package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"BOT_TOKEN": "123:abc"})
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.BotToken != "123:abc" {
		t.Errorf("BotToken = %q", cfg.BotToken)
	}
	if cfg.AdminID != 0 {
		t.Errorf("AdminID = %d, want 0", cfg.AdminID)
	}
	if cfg.DBPath != "onboarding.db" {
		t.Errorf("DBPath = %q, want onboarding.db", cfg.DBPath)
	}
	if cfg.HTTPTimeout != 30*time.Second || cfg.PollTimeout != 15*time.Second {
		t.Errorf("timeouts = %s/%s", cfg.HTTPTimeout, cfg.PollTimeout)
	}
	if cfg.OTPResendAfter != time.Minute {
		t.Errorf("OTPResendAfter = %s, want 1m", cfg.OTPResendAfter)
	}
}

func TestLoadFromOverrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"BOT_TOKEN":        "t",
		"ADMIN_ID":         "42",
		"DB_PATH":          "/tmp/x.db",
		"OTP_RESEND_AFTER": "5s",
		"FINAL_MESSAGE":    "Done!",
	})
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.AdminID != 42 || cfg.DBPath != "/tmp/x.db" || cfg.OTPResendAfter != 5*time.Second || cfg.FinalMessage != "Done!" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.DSN() != "/tmp/x.db?_journal_mode=WAL&_busy_timeout=5000" {
		t.Errorf("DSN() = %q", cfg.DSN())
	}
}

func TestLoadFromErrors(t *testing.T) {
	tests := map[string]map[string]string{
		"missing token":     {},
		"bad admin id":      {"BOT_TOKEN": "t", "ADMIN_ID": "not-a-number"},
		"bad duration":      {"BOT_TOKEN": "t", "HTTP_TIMEOUT": "soon"},
		"negative cooldown": {"BOT_TOKEN": "t", "OTP_RESEND_AFTER": "-1s"},
	}
	for name, vars := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFrom(vars)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), "parse env:") {
				t.Fatalf("expected parse env prefix, got %v", err)
			}
		})
	}
}
