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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/kelly-developers/patientcare-sub000/internal/config"
	"github.com/kelly-developers/patientcare-sub000/internal/domain/consent"
	"github.com/kelly-developers/patientcare-sub000/internal/domain/decision"
	"github.com/kelly-developers/patientcare-sub000/internal/domain/directory"
	"github.com/kelly-developers/patientcare-sub000/internal/domain/icu"
	"github.com/kelly-developers/patientcare-sub000/internal/domain/notification"
	"github.com/kelly-developers/patientcare-sub000/internal/domain/postop"
	"github.com/kelly-developers/patientcare-sub000/internal/domain/preop"
	"github.com/kelly-developers/patientcare-sub000/internal/domain/surgery"
	"github.com/kelly-developers/patientcare-sub000/internal/domain/vitals"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/auth"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/db"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/events"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/middleware"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/telemetry"
	"github.com/kelly-developers/patientcare-sub000/migrations"
)

const (
	serviceName      = "patientcare-server"
	metricsNamespace = "patientcare"
	version          = "0.1.0"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   serviceName,
		Short: "Surgical care workflow API server",
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

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", serviceName).Logger()
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return db.NewPool(ctx, db.PoolConfig{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
}

// migrationSource returns the embedded schema unless --dir points elsewhere.
func migrationSource(dir string) fs.FS {
	if dir == "" {
		return migrations.FS
	}
	return os.DirFS(dir)
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
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, migrationSource(dir), logger)
			fmt.Printf("Running migrations on schema: %s\n", schema)

			count, err := migrator.Up(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("schema", "public", "Target schema for migrations")
	upCmd.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, migrationSource(dir), logger)
			statuses, err := migrator.Status(ctx, schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", schema)
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
	statusCmd.Flags().String("schema", "public", "Target schema for migrations")
	statusCmd.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
	cmd.AddCommand(statusCmd)

	return cmd
}

func txConfig(cfg *config.Config) db.TxConfig {
	tc := db.DefaultTxConfig()
	if cfg.DBTxMaxAttempts > 0 {
		tc.MaxAttempts = cfg.DBTxMaxAttempts
	}
	if cfg.DBBreakerFailures > 0 {
		tc.BreakerFailures = cfg.DBBreakerFailures
	}
	return tc
}

func newPublisher(cfg *config.Config, logger zerolog.Logger) events.Publisher {
	if !cfg.KafkaEnabled() {
		return events.NopPublisher{}
	}
	logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaAlertTopic).Msg("publishing emergency alerts to kafka")
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaAlertTopic, logger.With().Str("component", "events").Logger())
}

// newEcho builds the HTTP surface. It only stores pool in repositories, so
// tests can pass nil as long as they avoid handlers that reach the database.
func newEcho(cfg *config.Config, pool *pgxpool.Pool, publisher events.Publisher, tp trace.TracerProvider, metrics *telemetry.Metrics, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(telemetry.Tracing(tp, serviceName))
	e.Use(middleware.Logger(logger))
	e.Use(metrics.Middleware())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool, func() *db.PoolStats { return db.GetPoolStats(pool) }))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	apiV1 := e.Group("/api/v1")
	rateLimitCfg := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rateLimitCfg.RequestsPerSecond = cfg.RateLimitRPS
		rateLimitCfg.BurstSize = cfg.RateLimitBurst
	}
	apiV1.Use(middleware.BodyLimit(cfg.BodyLimit))
	apiV1.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	if cfg.IsDev() {
		logger.Warn().Msg("development auth enabled: unauthenticated requests run as admin")
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.JWTSigningKey),
		}))
	}
	// Rate limits key on the authenticated caller, so they run after auth.
	apiV1.Use(middleware.RateLimit(rateLimitCfg))
	apiV1.Use(middleware.Audit(logger.With().Str("component", "audit").Logger()))

	tx := db.NewTxRunner(pool, txConfig(cfg), logger)

	// Directory (read-only patient and doctor lookups)
	patients := directory.NewPatientRepoPG(pool)
	doctors := directory.NewDoctorRepoPG(pool)

	// Notifications; the fan-out is the emergency alerter for every other domain
	notifySvc := notification.NewService(notification.NewRepoPG(pool), patients, doctors, tx, publisher, metrics, logger)
	notification.NewHandler(notifySvc).RegisterRoutes(apiV1)

	// Surgery lifecycle and intraoperative records
	surgeries := surgery.NewSurgeryRepoPG(pool)
	surgerySvc := surgery.NewService(surgeries, surgery.NewIntraOpRepoPG(pool), tx, notifySvc, metrics, logger)
	surgery.NewHandler(surgerySvc).RegisterRoutes(apiV1)

	// Consent
	consentSvc := consent.NewService(consent.NewRepoPG(pool), surgeries, tx, logger)
	consent.NewHandler(consentSvc).RegisterRoutes(apiV1)

	// Surgical decisions
	decisionSvc := decision.NewService(decision.NewRepoPG(pool), surgeries, tx, metrics, logger)
	decision.NewHandler(decisionSvc).RegisterRoutes(apiV1)

	// Pre- and post-operative
	preop.NewHandler(preop.NewService(preop.NewRepoPG(pool), logger)).RegisterRoutes(apiV1)
	postop.NewHandler(postop.NewService(postop.NewRepoPG(pool), surgeries, logger)).RegisterRoutes(apiV1)

	// Vitals and ICU monitoring
	vitals.NewHandler(vitals.NewService(vitals.NewRepoPG(pool), notifySvc, metrics, logger)).RegisterRoutes(apiV1)
	icu.NewHandler(icu.NewService(icu.NewRepoPG(pool), notifySvc, metrics, logger)).RegisterRoutes(apiV1)

	return e
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := openPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	tp, err := telemetry.InitTracer(ctx, telemetry.TracerConfig{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: serviceName,
		SampleRate:  cfg.TraceSampleRate,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise tracing")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.NewMetrics(reg, metricsNamespace)
	telemetry.RegisterPoolStats(reg, metricsNamespace, func() *db.PoolStats { return db.GetPoolStats(pool) })

	publisher := newPublisher(cfg, logger)
	e := newEcho(cfg, pool, publisher, tp, metrics, logger)

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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	if err := publisher.Close(); err != nil {
		logger.Error().Err(err).Msg("event publisher close failed")
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("tracer shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
