package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/trialgate/internal/auth/guard"
	"github.com/aussiebroadwan/trialgate/internal/auth/session"
	"github.com/aussiebroadwan/trialgate/internal/auth/store"
	"github.com/aussiebroadwan/trialgate/internal/auth/store/drivers/memory"
	"github.com/aussiebroadwan/trialgate/internal/auth/store/drivers/redis"
	"github.com/aussiebroadwan/trialgate/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/trialgate/pkg/auditx"
	"github.com/aussiebroadwan/trialgate/pkg/geoip"
	"github.com/aussiebroadwan/trialgate/pkg/identitysdk"
	"github.com/aussiebroadwan/trialgate/pkg/slogx"
)

const BuildVersion = "v0.1.0"

// Application wires the session store and guard pipeline to their
// external collaborators: the identity service, the geographic lookup
// service and persisted token storage.
type Application struct {
	cfg    Config
	logger *slog.Logger

	storage store.Store

	Session *session.Store
	Guards  *guard.Pipeline
}

// New creates a fully wired Application. The session starts
// unauthenticated; call Session.Rehydrate to recover a persisted one.
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "trialgate",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	storage, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open token storage: %w", err)
	}
	app.storage = storage

	app.Session = session.New(
		identitysdk.NewClient(cfg.IdentityBaseURL),
		storage,
		session.Config{
			StorageKey:         cfg.StorageKey,
			MaxLoginAttempts:   cfg.MaxLoginAttempts,
			LoginLockoutWindow: cfg.LoginLockoutWindow,
			MaxMFAAttempts:     cfg.MaxMFAAttempts,
			MFAAttemptWindow:   cfg.MFAAttemptWindow,
		},
		app.logger,
	)

	app.Guards = guard.New(
		app.Session,
		geoip.NewClient(cfg.GeoBaseURL),
		auditx.SlogSink{Logger: app.logger},
		guard.Config{
			SessionTimeout:   cfg.SessionTimeout,
			MFAStepUpTimeout: cfg.MFAStepUpTimeout,
		},
		app.logger,
	)

	app.logger.Info("trialgate initialized",
		"storage_driver", cfg.StorageDriver,
		"identity_url", cfg.IdentityBaseURL,
	)
	return app, nil
}

// Logger returns the application logger.
func (app *Application) Logger() *slog.Logger {
	return app.logger
}

// Close releases the storage backend.
func (app *Application) Close() error {
	return app.storage.Close()
}

func openStorage(ctx context.Context, cfg Config) (store.Store, error) {
	switch cfg.StorageDriver {
	case "memory":
		return memory.NewStore(), nil
	case "redis":
		return redis.NewStore(ctx, cfg.RedisAddr)
	case "sqlite":
		return sqlite.NewStore(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
