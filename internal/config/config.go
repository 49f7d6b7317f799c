package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	BotToken       string        `env:"BOT_TOKEN,required"`
	AdminID        int64         `env:"ADMIN_ID"`
	DBPath         string        `env:"DB_PATH"          envDefault:"onboarding.db"`
	HTTPTimeout    time.Duration `env:"HTTP_TIMEOUT"     envDefault:"30s"`
	PollTimeout    time.Duration `env:"POLL_TIMEOUT"     envDefault:"15s"`
	OTPResendAfter time.Duration `env:"OTP_RESEND_AFTER" envDefault:"60s"`

	// Non-empty values replace the stored texts at startup.
	WelcomeMessage string `env:"WELCOME_MESSAGE"`
	FinalMessage   string `env:"FINAL_MESSAGE"`
}

// Load reads configuration from the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads configuration from the given variables instead of the
// process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.OTPResendAfter < 0 {
		return Config{}, fmt.Errorf("parse env: OTP_RESEND_AFTER must not be negative, got %s", cfg.OTPResendAfter)
	}
	return cfg, nil
}

// DSN is the sqlite connection string for DBPath.
func (c Config) DSN() string {
	return c.DBPath + "?_journal_mode=WAL&_busy_timeout=5000"
}
