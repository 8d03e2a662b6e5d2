package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env  string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port string `env:"PORT" envDefault:"8080" validate:"required"`

	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	// DispatchIntervalSec is the idle-sleep between ticks when a tick
	// ran no job.
	DispatchIntervalSec int `env:"DISPATCH_INTERVAL_SEC" envDefault:"3" validate:"min=1,max=60"`
	MaxUsersPerTick     int `env:"MAX_USERS_PER_TICK" envDefault:"4" validate:"min=1,max=100"`
	MaxIntentionsPerUser int `env:"MAX_INTENTIONS_PER_USER" envDefault:"1" validate:"min=1,max=20"`
	ClaimedJobsFactor   int `env:"CLAIMED_JOBS_FACTOR" envDefault:"5" validate:"min=1,max=100"`

	// LeaseTTLSec is the length of each lease renewal (renewed every half
	// of it while a runner executes); once renewed, a job whose lease is
	// not renewed again within this window is released by the reaper. The
	// lease granted at claim time is a fixed 10 minutes.
	LeaseTTLSec     int `env:"LEASE_TTL_SEC" envDefault:"600" validate:"min=30,max=3600"`
	ReaperIntervalSec int `env:"REAPER_INTERVAL_SEC" envDefault:"30" validate:"min=5,max=600"`

	// GitCloneRoot and ElasticsearchURL are passed through to the
	// external TaskRunner; the scheduler never inspects their contents.
	GitCloneRoot     string `env:"GIT_CLONE_ROOT" envDefault:"/tmp/poolsched-repos"`
	ElasticsearchURL string `env:"ELASTICSEARCH_URL"`
	LogDir           string `env:"LOG_DIR" envDefault:"/var/log/poolsched"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"required,oneof=debug info warn error"`

	// JWTSecret signs and verifies the HS256 bearer tokens issued at the
	// end of the magic-link flow.
	JWTSecret     string `env:"JWT_SECRET" validate:"required"`
	ResendAPIKey  string `env:"RESEND_API_KEY"         validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom    string `env:"RESEND_FROM"            validate:"required_if=Env production,required_if=Env staging"`
	MagicLinkBase string `env:"MAGIC_LINK_BASE_URL"    envDefault:"http://localhost:8080"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SlogLevel converts the LOG_LEVEL string to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
