package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/eessp/eessp/internal/config"
	"github.com/eessp/eessp/internal/domain/doctor"
	"github.com/eessp/eessp/internal/domain/hospitalization"
	"github.com/eessp/eessp/internal/domain/patient"
	"github.com/eessp/eessp/internal/platform/apperr"
	"github.com/eessp/eessp/internal/platform/db"
	"github.com/eessp/eessp/internal/platform/logging"
	"github.com/eessp/eessp/internal/platform/metrics"
	"github.com/eessp/eessp/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "eessp-server",
		Short: "Day-hospitalization records API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// openMigrator loads the config, connects and returns a migrator for dir, or
// for MIGRATIONS_DIR when dir is empty. The caller closes the pool.
func openMigrator(ctx context.Context, dir string) (*db.Migrator, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if dir == "" {
		dir = cfg.MigrationsDir
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return db.NewMigrator(pool, os.DirFS(dir)), pool, nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			ctx := context.Background()
			migrator, pool, err := openMigrator(ctx, dir)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			ctx := context.Background()
			migrator, pool, err := openMigrator(ctx, dir)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
	cmd.AddCommand(statusCmd)

	return cmd
}

// newServer builds the echo instance with the global middleware chain and
// the process-level endpoints. Domain routes are added by registerRoutes.
func newServer(cfg *config.Config, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(logger)

	// Global middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.Logger(logger))
	if cfg.MetricsEnabled {
		e.Use(metrics.Middleware())
	}
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.MetricsEnabled {
		e.GET("/metrics", metrics.Handler())
	}
	return e
}

// registerRoutes wires repositories, services and handlers on pool. Each
// resource answers on its REST path and on the legacy .php path used by the
// existing frontend.
func registerRoutes(e *echo.Echo, pool *pgxpool.Pool, logger zerolog.Logger) {
	patientRepo := patient.NewRepo(pool)
	patient.NewHandler(patient.NewService(patientRepo)).
		RegisterRoutes(e, "/api/pacienti", "/api_pacienti.php")

	doctor.NewHandler(doctor.NewService(doctor.NewRepo(pool))).
		RegisterRoutes(e, "/api/doctori", "/api_doctori.php")

	txm := db.NewTxManager(pool, logger)
	hospSvc := hospitalization.NewService(hospitalization.NewRepo(pool), patientRepo, txm)
	hospitalization.NewHandler(hospSvc).
		RegisterRoutes(e, "/api/spitalizari", "/api_spitalizari.php")

	e.GET("/health/db", db.PoolHealthHandler(pool))
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		return err
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := newServer(cfg, logger)
	registerRoutes(e, pool, logger)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
