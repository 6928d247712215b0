// Command trialgate is a smoke harness for the authentication core: it
// rehydrates any persisted session, optionally logs in with credentials
// from the environment, holds the session (letting the refresh scheduler
// run) until interrupted, then logs out.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aussiebroadwan/trialgate/internal/auth/app"
	"github.com/aussiebroadwan/trialgate/internal/auth/session"
	"github.com/aussiebroadwan/trialgate/pkg/slogx"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}
	defer application.Close()

	logger := application.Logger()
	ctx = slogx.WithContext(ctx, logger)

	if err := application.Session.Rehydrate(ctx); err != nil {
		logger.Warn("session rehydration failed, starting unauthenticated", "error", err)
	}

	if application.Session.CurrentUser() == nil && cfg.Email != "" {
		result, err := application.Session.Login(ctx, cfg.Email, cfg.Password)
		if err != nil {
			log.Fatalf("login failed: %v", err)
		}
		switch result.Status {
		case session.LoginSucceeded:
		case session.LoginMFARequired:
			log.Fatalf("account requires MFA; the smoke harness has no code source")
		default:
			log.Fatalf("login rejected: %s", result.Reason)
		}
	}

	snap := application.Session.Snapshot()
	logger.Info("session ready", "state", snap.State.String())
	if snap.User != nil {
		logger.Info("authenticated",
			"user_id", snap.User.ID,
			"email", snap.User.Email,
			"role", string(snap.User.Role),
		)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	sig := <-shutdown
	logger.Info("shutdown signal received", "signal", sig.String())

	if err := application.Session.Logout(ctx); err != nil {
		logger.Error("logout failed", "error", err)
	}
}
