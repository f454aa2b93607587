package main

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lumicare/lumi/internal/config"
	"github.com/lumicare/lumi/internal/domain/emergency"
	"github.com/lumicare/lumi/internal/domain/identity"
	"github.com/lumicare/lumi/internal/domain/medication"
	"github.com/lumicare/lumi/internal/domain/nominee"
	"github.com/lumicare/lumi/internal/platform/auth"
	"github.com/lumicare/lumi/internal/platform/db"
	"github.com/lumicare/lumi/internal/platform/metrics"
	"github.com/lumicare/lumi/internal/platform/middleware"
	"github.com/lumicare/lumi/migrations"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lumi-server",
		Short: "Lumi care companion API server",
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

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			return withMigrator(dir, func(ctx context.Context, m *db.Migrator) error {
				count, err := m.Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Printf("Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	}
	upCmd.Flags().String("dir", "", "Path to a migrations directory (defaults to the embedded migrations)")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			return withMigrator(dir, func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
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
			})
		},
	}
	statusCmd.Flags().String("dir", "", "Path to a migrations directory (defaults to the embedded migrations)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func migrationsFS(dir string) fs.FS {
	if dir == "" {
		return migrations.FS
	}
	return os.DirFS(dir)
}

func withMigrator(dir string, fn func(ctx context.Context, m *db.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Store != config.StorePostgres {
		return fmt.Errorf("migrations need STORE=%s, got %q", config.StorePostgres, cfg.Store)
	}
	logger := newLogger(cfg)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, db.NewMigrator(pool, migrationsFS(dir), logger))
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// stores bundles one repository per aggregate, backed either by PostgreSQL
// or by process memory.
type stores struct {
	users       identity.UserRepository
	nominees    nominee.Repository
	medications medication.MedicationRepository
	logs        medication.LogRepository
	alerts      emergency.Repository
}

func newStores(pool *pgxpool.Pool) stores {
	if pool == nil {
		meds, logs := medication.NewMemoryRepos()
		return stores{
			users:       identity.NewUserRepoMemory(),
			nominees:    nominee.NewRepoMemory(),
			medications: meds,
			logs:        logs,
			alerts:      emergency.NewRepoMemory(),
		}
	}
	return stores{
		users:       identity.NewUserRepoPG(pool),
		nominees:    nominee.NewRepoPG(pool),
		medications: medication.NewMedicationRepoPG(pool),
		logs:        medication.NewLogRepoPG(pool),
		alerts:      emergency.NewRepoPG(pool),
	}
}

// newServer wires middleware, services and routes. pool is nil for the
// in-memory store.
func newServer(cfg *config.Config, logger zerolog.Logger, pool *pgxpool.Pool, tokens *auth.TokenManager) *echo.Echo {
	m := metrics.New(cfg.MetricsPrefix)
	otp := auth.FixedCodeVerifier{Code: cfg.FixedOTP}
	st := newStores(pool)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)

	e.Pre(echomw.RemoveTrailingSlash())

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Metrics(m))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.RequestIDHeader},
		AllowCredentials: true,
	}))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(auth.JWTMiddleware(tokens, auth.AuthSkipper))
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))

	// Infrastructure endpoints
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Welcome to Lumi API"})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))

	// Domain services
	identitySvc := identity.NewService(st.users, tokens, otp, m, logger)
	identity.NewHandler(identitySvc).RegisterRoutes(e)

	nomineeSvc := nominee.NewService(st.nominees, logger)
	nominee.NewHandler(nomineeSvc).RegisterRoutes(e.Group("/nominees"))

	medSvc := medication.NewService(st.medications, st.logs, m, logger)
	medication.NewHandler(medSvc).RegisterRoutes(e.Group("/medications"))

	emergencySvc := emergency.NewService(st.alerts, m, logger)
	emergency.NewHandler(emergencySvc).RegisterRoutes(e.Group("/emergency"))

	return e
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return err
	}

	ctx := context.Background()
	var pool *pgxpool.Pool
	if cfg.Store == config.StorePostgres {
		pool, err = db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Error().Err(err).Msg("failed to connect to database")
			return err
		}
		defer pool.Close()
		logger.Info().Msg("connected to database")

		if cfg.AutoMigrate {
			n, err := db.NewMigrator(pool, migrations.FS, logger).Up(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("auto-migrate failed")
				return err
			}
			logger.Info().Int("applied", n).Msg("migrations up to date")
		}
	} else {
		logger.Warn().Msg("using in-memory store, data is lost on restart")
	}

	tokens := auth.NewTokenManager([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.TokenTTL)
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go tokens.Revocations().Run(sweepCtx, 5*time.Minute)

	e := newServer(cfg, logger, pool, tokens)

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("store", cfg.Store).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
