package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"content-gate/internal/adapters/auth/odin"
	"content-gate/internal/adapters/engagement/analytics"
	"content-gate/internal/adapters/payments/gateway"
	pg "content-gate/internal/adapters/storage/postgres"
	sqlitestore "content-gate/internal/adapters/storage/sqlite"
	"content-gate/internal/jobs"
	"content-gate/internal/platform/config"
	"content-gate/internal/platform/logger"
	"content-gate/internal/router"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var serveFlags struct {
	port            string
	dbDSN           string
	sqlitePath      string
	redisAddr       string
	refreshSchedule string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Levanta el servidor HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		f := cmd.Flags()
		if f.Changed("port") {
			cfg.Port = serveFlags.port
		}
		if f.Changed("db-dsn") {
			cfg.DBDSN = serveFlags.dbDSN
		}
		if f.Changed("sqlite-path") {
			cfg.SQLitePath = serveFlags.sqlitePath
		}
		if f.Changed("redis-addr") {
			cfg.RedisAddr = serveFlags.redisAddr
		}
		if f.Changed("refresh-schedule") {
			cfg.RefreshSchedule = serveFlags.refreshSchedule
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.port, "port", "", "Puerto HTTP (default: PORT o 8080)")
	f.StringVar(&serveFlags.dbDSN, "db-dsn", "", "DSN de Postgres")
	f.StringVar(&serveFlags.sqlitePath, "sqlite-path", "", "Archivo SQLite (si no hay Postgres)")
	f.StringVar(&serveFlags.redisAddr, "redis-addr", "", "Redis para los content signals")
	f.StringVar(&serveFlags.refreshSchedule, "refresh-schedule", "", "Cron del refresco de demanda (ej: @every 5m)")
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})
	if s, ok := log.(interface{ Sync() error }); ok {
		defer func() { _ = s.Sync() }()
	}

	catalog, err := cfg.LoadCatalog()
	if err != nil {
		return err
	}

	opts := router.Options{
		Log:            log,
		Catalog:        catalog,
		Currency:       cfg.Currency,
		DefaultTier:    cfg.DefaultTier,
		RefreshTimeout: cfg.Engagement.Timeout,
		DisabledTools:  cfg.DisabledTools,
	}

	// Storage
	switch {
	case cfg.DBDSN != "":
		db, err := pg.Open(cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		if err := pg.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
		opts.DB = db
		log.Info("storage: postgres", nil)
	case cfg.SQLitePath != "":
		db, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer db.Close()
		opts.SQLite = db
		log.Info("storage: sqlite", map[string]any{"path": cfg.SQLitePath})
	default:
		log.Warn("storage: in-memory, data is lost on restart", nil)
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		opts.Redis = rdb
		log.Info("content signals: redis", map[string]any{"addr": cfg.RedisAddr})
	}

	// Colaboradores externos
	if cfg.Odin.Enabled() {
		c, err := odin.NewClient(cfg.Odin.HTTP())
		if err != nil {
			return fmt.Errorf("odin: %w", err)
		}
		opts.AuthVerifier = c
	} else {
		log.Warn("auth: no verifier configured, trusting X-Debug-User-ID", nil)
	}

	if cfg.Payments.Enabled() {
		c, err := gateway.NewClient(cfg.Payments.HTTP())
		if err != nil {
			return fmt.Errorf("payments: %w", err)
		}
		opts.Payments = c
	} else {
		log.Warn("payments: no gateway configured, using dev validator", nil)
		opts.Payments = gateway.DevValidator{}
	}

	if cfg.Engagement.Enabled() {
		c, err := analytics.NewClient(cfg.Engagement.HTTP())
		if err != nil {
			return fmt.Errorf("engagement: %w", err)
		}
		opts.Engagement = c
	}

	svcs := router.NewServices(opts)

	if cfg.RefreshSchedule != "" {
		if opts.Engagement == nil {
			return errors.New("refresh schedule set but ENGAGEMENT_BASE_URL/ENGAGEMENT_API_KEY missing")
		}
		refresher := jobs.NewRefresher(svcs.Pricing, cfg.RefreshConcurrency, log)
		if err := refresher.Start(cfg.RefreshSchedule); err != nil {
			return fmt.Errorf("refresh schedule: %w", err)
		}
		defer refresher.Stop()
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Mount(svcs, opts),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
