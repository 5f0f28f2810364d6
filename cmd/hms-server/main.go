package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/hms/hms/internal/config"
	"github.com/hms/hms/internal/domain/discharge"
	"github.com/hms/hms/internal/domain/ledger"
	"github.com/hms/hms/internal/domain/notes"
	"github.com/hms/hms/internal/domain/patient"
	"github.com/hms/hms/internal/domain/pharmacy"
	"github.com/hms/hms/internal/domain/visit"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/backup"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/middleware"
)

// MedicationListAdapter feeds the ledger the already-loaded dispense list
// for a visit, keeping the ledger itself out of the pharmacy tables.
type MedicationListAdapter struct {
	visits   *visit.Service
	pharmacy *pharmacy.Service
}

func (a *MedicationListAdapter) Lines(ctx context.Context, visitCode string) ([]ledger.MedicationLine, error) {
	visitID, err := a.visits.ResolveCode(ctx, visitCode)
	if err != nil {
		return nil, err
	}
	dispenses, err := a.pharmacy.ListByVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}
	lines := make([]ledger.MedicationLine, 0, len(dispenses))
	for _, d := range dispenses {
		lines = append(lines, ledger.MedicationLine{Cost: d.Cost})
	}
	return lines, nil
}

// BalanceAdapter gives the discharge summary the outstanding balance via
// the explicit recalculate path, so the figure reflects the persisted
// discount.
type BalanceAdapter struct {
	ledger *ledger.Service
}

func (a *BalanceAdapter) BalanceTotal(ctx context.Context, billID string) (decimal.Decimal, error) {
	s, err := a.ledger.RecalculateBalance(ctx, billID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.Balance[ledger.CatTotal].Value(), nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "hms-server",
		Short: "Hospital Management API Server",
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
		Short: "Start the HMS API server",
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

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
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
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Backup tiers. Redis is the scratch tier; without it an in-process
	// store still covers the current process lifetime.
	var scratch backup.Store = backup.NewMemoryStore()
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer client.Close()
		scratch = backup.NewRedisStore(client)
		logger.Info().Msg("connected to redis")
	}
	emergency, err := backup.NewFileStore(cfg.BackupDir)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.BackupDir).Msg("failed to open backup directory")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.SanitizeWithLogger(logger))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(time.Duration(cfg.RequestTimeoutSec) * time.Second))
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			SigningKey: []byte(cfg.JWTSecret),
			Issuer:     "hms",
		}))
	}

	e.Use(middleware.Audit(logger))

	apiV1 := e.Group("/api/v1")

	// Domain wiring
	visitSvc := visit.NewService(visit.NewRepoPG(pool))
	visit.NewHandler(visitSvc).RegisterRoutes(apiV1)

	patientSvc := patient.NewService(patient.NewRepoPG(pool))
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)

	pharmacySvc := pharmacy.NewService(pharmacy.NewRepoPG(pool))
	pharmacy.NewHandler(pharmacySvc).RegisterRoutes(apiV1)

	notesSvc := notes.NewService(notes.NewRepoPG(pool))
	notes.NewHandler(notesSvc).RegisterRoutes(apiV1)

	aggregator := ledger.NewAggregator(visitSvc, ledger.NewChargeRepoPG(pool), logger)
	ledgerSvc := ledger.NewService(
		ledger.NewSummaryRepoPG(pool),
		ledger.NewDiscountRepoPG(pool),
		aggregator,
		visitSvc,
		scratch,
		emergency,
		logger,
	)
	meds := &MedicationListAdapter{visits: visitSvc, pharmacy: pharmacySvc}
	ledger.NewHandler(ledgerSvc, meds).RegisterRoutes(apiV1)

	dischargeSvc := discharge.NewService(discharge.NewRepoPG(pool),
		visitSvc, patientSvc, notesSvc, pharmacySvc, &BalanceAdapter{ledger: ledgerSvc})
	discharge.NewHandler(dischargeSvc).RegisterRoutes(apiV1)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Nightly discount drift audit.
	auditor := ledger.NewDriftAuditor(ledger.NewDriftSourcePG(pool), logger)
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.AuditCron, func() {
		runCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		auditor.Run(runCtx)
	}); err != nil {
		logger.Fatal().Err(err).Str("spec", cfg.AuditCron).Msg("invalid audit cron spec")
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Start and wait for shutdown.
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("server listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
