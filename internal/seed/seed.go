// Package seed provisions the initial admin account on a fresh database,
// mirroring the admin-bootstrap-on-startup step of the original control
// plane (driven by ADMIN_EMAIL/ADMIN_PASSWORD/ADMIN_NAME).
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openlabshq/rangeapi/internal/apperr"
	"github.com/openlabshq/rangeapi/internal/config"
	"github.com/openlabshq/rangeapi/pkg/user"
)

// Run creates the admin account if it does not already exist. It is
// idempotent: if an account with cfg.AdminEmail exists, it logs and
// returns nil rather than erroring.
func Run(ctx context.Context, pool *pgxpool.Pool, cfg *config.Config, logger *slog.Logger) error {
	store := user.NewStore(pool)
	svc := user.NewService(store)

	if _, err := store.GetByEmail(ctx, cfg.AdminEmail); err == nil {
		logger.Info("seed: admin account already exists, skipping", "email", cfg.AdminEmail)
		return nil
	}

	u, err := svc.Register(ctx, user.RegisterRequest{
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Name:     cfg.AdminName,
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) && ae.Kind == apperr.KindConflict {
			logger.Info("seed: admin account already exists, skipping", "email", cfg.AdminEmail)
			return nil
		}
		return fmt.Errorf("registering admin account: %w", err)
	}

	if err := store.SetAdmin(ctx, u.ID, true); err != nil {
		return fmt.Errorf("granting admin privileges: %w", err)
	}

	logger.Info("seed: created admin account", "id", u.ID, "email", cfg.AdminEmail)
	return nil
}
