package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the environment-driven application configuration.
type Config struct {
	IdentityBaseURL string `env:"TRIALGATE_IDENTITY_URL" envDefault:"http://localhost:8080"`
	GeoBaseURL      string `env:"TRIALGATE_GEO_URL"      envDefault:"http://localhost:8081"`

	// StorageDriver selects the persisted token backend: memory for
	// ephemeral sessions, sqlite for desktop profiles, redis for
	// kiosk/shared-host profiles.
	StorageDriver string `env:"TRIALGATE_STORAGE_DRIVER" envDefault:"memory"`
	StorageKey    string `env:"TRIALGATE_STORAGE_KEY"    envDefault:"trialgate.tokens"`
	RedisAddr     string `env:"TRIALGATE_REDIS_ADDR"     envDefault:"localhost:6379"`
	SQLitePath    string `env:"TRIALGATE_SQLITE_PATH"    envDefault:"trialgate.db"`

	MaxLoginAttempts   int           `env:"TRIALGATE_MAX_LOGIN_ATTEMPTS"   envDefault:"3"`
	LoginLockoutWindow time.Duration `env:"TRIALGATE_LOGIN_LOCKOUT_WINDOW" envDefault:"15m"`
	MaxMFAAttempts     int           `env:"TRIALGATE_MAX_MFA_ATTEMPTS"     envDefault:"5"`
	MFAAttemptWindow   time.Duration `env:"TRIALGATE_MFA_ATTEMPT_WINDOW"   envDefault:"5m"`
	SessionTimeout     time.Duration `env:"TRIALGATE_SESSION_TIMEOUT"      envDefault:"24h"`
	MFAStepUpTimeout   time.Duration `env:"TRIALGATE_MFA_STEPUP_TIMEOUT"   envDefault:"30m"`

	// Optional credentials for the smoke CLI's automatic login.
	Email    string `env:"TRIALGATE_EMAIL"`
	Password string `env:"TRIALGATE_PASSWORD"`

	Env       string `env:"ENV"        envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// LoadConfig parses the configuration from the process environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
