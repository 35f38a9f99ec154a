// Package app wires configuration, infrastructure, and domain handlers
// into the OpenLabs control plane's three runtime modes: the HTTP-serving
// front end ("api"), the queue-pulling worker ("worker"), and the one-shot
// admin bootstrap ("seed").
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/openlabshq/rangeapi/internal/auth"
	"github.com/openlabshq/rangeapi/internal/config"
	"github.com/openlabshq/rangeapi/internal/httpserver"
	"github.com/openlabshq/rangeapi/internal/platform"
	"github.com/openlabshq/rangeapi/internal/seed"
	"github.com/openlabshq/rangeapi/internal/telemetry"
	"github.com/openlabshq/rangeapi/pkg/blueprint"
	"github.com/openlabshq/rangeapi/pkg/deployedrange"
	"github.com/openlabshq/rangeapi/pkg/job"
	"github.com/openlabshq/rangeapi/pkg/jobqueue"
	"github.com/openlabshq/rangeapi/pkg/provisioner"
	"github.com/openlabshq/rangeapi/pkg/secretvault"
	"github.com/openlabshq/rangeapi/pkg/user"
)

// Run reads config, connects infrastructure, applies migrations, then
// dispatches to the requested runtime mode.
func Run(ctx context.Context, cfg *config.Config) error {
	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting openlabs", "mode", cfg.Mode, "listen", cfg.ListenAddr())

	db, err := platform.NewPostgresPool(ctx, cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	rdb, err := platform.NewRedisClient(ctx, cfg.RedisURL())
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("closing redis", "error", err)
		}
	}()

	if err := platform.RunMigrations(cfg.DatabaseURL(), cfg.MigrationsDir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("migrations applied")

	metricsReg := telemetry.NewMetricsRegistry(telemetry.All()...)

	switch cfg.Mode {
	case "api":
		return runAPI(ctx, cfg, logger, db, rdb, metricsReg)
	case "worker":
		return runWorker(ctx, cfg, logger, db, rdb)
	case "seed":
		return seed.Run(ctx, db, cfg, logger)
	default:
		return fmt.Errorf("unknown mode: %s", cfg.Mode)
	}
}

// buildCore constructs the stores/services shared by both the api and the
// worker mode: every domain package is wired from the same constructors
// regardless of which process is hosting them (§9's "pass a Context
// struct explicitly" design note — here a handful of wired service
// values play that role, since the only process-wide state is cfg
// itself).
type core struct {
	userStore   *user.Store
	userSvc     *user.Service
	vaultStore  *secretvault.Store
	vaultSvc    *secretvault.Service
	bpStore     *blueprint.Store
	rangeStore  *deployedrange.Store
	jobStore    *job.Store
	queue       *jobqueue.Queue
	driver      *provisioner.Driver
	coordinator *job.Coordinator
}

func buildCore(cfg *config.Config, logger *slog.Logger, db *pgxpool.Pool, rdb *redis.Client) *core {
	userStore := user.NewStore(db)
	userSvc := user.NewService(userStore)

	vaultStore := secretvault.NewStore(db)
	vaultSvc := secretvault.NewService(vaultStore)

	bpStore := blueprint.NewStore(db)
	rangeStore := deployedrange.NewStore(db)
	jobStore := job.NewStore(db)
	queue := jobqueue.New(rdb)

	driver := provisioner.NewDriver(cfg.ProvisionerBin, logger,
		telemetry.ProvisionerRunsTotal, telemetry.ProvisionerDuration)

	coordinator := job.NewCoordinator(queue, jobStore, bpStore, rangeStore, vaultSvc, userSvc, logger)

	return &core{
		userStore: userStore, userSvc: userSvc,
		vaultStore: vaultStore, vaultSvc: vaultSvc,
		bpStore: bpStore, rangeStore: rangeStore, jobStore: jobStore,
		queue: queue, driver: driver, coordinator: coordinator,
	}
}

func runAPI(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *pgxpool.Pool, rdb *redis.Client, metricsReg *prometheus.Registry) error {
	c := buildCore(cfg, logger, db, rdb)

	tokenMaxAge := time.Duration(cfg.AccessTokenExpireMinutes) * time.Minute
	sessionMgr, err := auth.NewSessionManager(cfg.SecretKey, tokenMaxAge)
	if err != nil {
		return fmt.Errorf("creating session manager: %w", err)
	}
	identityMW := auth.Middleware(sessionMgr)

	srv := httpserver.NewServer(cfg, logger, db, rdb, metricsReg)

	// Every /api/v1 route downstream relies on the caller's Identity
	// already being attached to the request context; handlers gate
	// individual routes with auth.RequireAuth/RequireAdmin themselves.
	srv.APIRouter.Use(identityMW)

	userHandler := user.NewHandler(c.userSvc, sessionMgr, tokenMaxAge, logger)
	srv.APIRouter.Mount("/auth", userHandler.Routes(identityMW))

	blueprintHandler := blueprint.NewHandler(c.bpStore, logger)
	srv.APIRouter.Mount("/blueprints", blueprintHandler.Routes())

	secretHandler := secretvault.NewHandler(c.vaultSvc, c.userSvc, logger)
	srv.APIRouter.Mount("/users/me/secrets", secretHandler.Routes())

	// GET /ranges* (read) and POST /ranges/deploy, DELETE /ranges/{id}
	// (job admission) share one router: chi does not allow two separate
	// Mount()s at the same prefix, so both handlers register directly
	// onto a router built here.
	rangeHandler := deployedrange.NewHandler(c.rangeStore, c.userSvc, logger)
	jobHandler := job.NewHandler(c.coordinator, logger)
	rangesRouter := chi.NewRouter()
	rangesRouter.Use(auth.RequireAuth)
	rangeHandler.Mount(rangesRouter)
	jobHandler.MountRangeRoutes(rangesRouter)
	srv.APIRouter.Mount("/ranges", rangesRouter)

	srv.APIRouter.Mount("/jobs", jobHandler.JobRoutes())

	httpSrv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      srv,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server listening", "addr", cfg.ListenAddr())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func runWorker(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *pgxpool.Pool, rdb *redis.Client) error {
	c := buildCore(cfg, logger, db, rdb)

	w := job.NewWorker(
		c.queue, c.jobStore, c.bpStore, c.rangeStore, c.vaultSvc, c.userSvc, c.driver,
		cfg.CDKTFDir, logger,
		telemetry.JobsCompletedTotal, telemetry.JobDuration, telemetry.DeployedRangesTotal,
	)
	return w.Run(ctx)
}
