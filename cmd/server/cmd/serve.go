package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inscrevo/server/internal/api"
	"github.com/inscrevo/server/internal/audit"
	"github.com/inscrevo/server/internal/auth"
	"github.com/inscrevo/server/internal/config"
	"github.com/inscrevo/server/internal/domain/events"
	"github.com/inscrevo/server/internal/domain/ids"
	"github.com/inscrevo/server/internal/domain/payments"
	"github.com/inscrevo/server/internal/domain/registrations"
	"github.com/inscrevo/server/internal/gateway/cielo"
	"github.com/inscrevo/server/internal/jobs"
	"github.com/inscrevo/server/internal/metrics"
	"github.com/inscrevo/server/internal/storage/postgres"
	"github.com/inscrevo/server/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var (
	serverHost string
	serverPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Inscrevo HTTP server",
	Long: `Start the Inscrevo HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables
- Bootstrap the operator user if ADMIN_* env vars are set
- Start the HTTP API and the background reconciliation workers
- Handle graceful shutdown on SIGINT/SIGTERM`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 8080)")
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Msg("starting inscrevo server")

	metrics.Init(Version, GitCommit, BuildDate)

	shutdownTracing, err := telemetry.InitTracing(context.Background(), cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("tracing init: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Error().Err(err).Msg("tracing shutdown error")
		}
	}()

	poolCtx, poolCancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := postgres.NewPool(poolCtx, cfg.Database.URL)
	poolCancel()
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	bootstrapCtx, bootstrapCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := bootstrapAdminUser(bootstrapCtx, cfg, pool, logger); err != nil {
		logger.Error().Err(err).Msg("admin bootstrap failed")
	}
	bootstrapCancel()

	// Storage
	store := postgres.NewPaymentStore(pool)
	registrationRepo := postgres.NewRegistrationRepository(pool)
	eventRepo := postgres.NewEventRepository(pool)

	// Gateway
	gatewayBaseURL, gatewayQueryURL := gatewayURLs(cfg.Gateway)
	gateway := cielo.NewClient(
		gatewayBaseURL,
		gatewayQueryURL,
		cfg.Gateway.MerchantID,
		cfg.Gateway.MerchantKey,
		logger,
		cielo.WithHTTPClient(&http.Client{Timeout: cfg.Gateway.Timeout}),
	)

	// Domain services
	auditLogger := audit.NewLogger()
	ledger := payments.NewLedger(store, auditLogger, logger)
	paymentService := payments.NewService(store, gateway, ledger, auditLogger, logger)
	reconciler := payments.NewReconciler(store, cielo.NormalizeStatus, ledger, logger)
	registrationService := registrations.NewService(registrationRepo, eventRepo, auditLogger, logger)
	eventService := events.NewService(eventRepo)

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.Issuer)

	// Background workers
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	workers := jobs.NewWorkers(store, gateway, ledger, cfg.Jobs, logger)
	riverClient, err := jobs.NewClient(pool, workers, slogLogger, jobs.NewPeriodicJobs(cfg.Jobs))
	if err != nil {
		return fmt.Errorf("river client: %w", err)
	}

	riverCtx, riverCancel := context.WithCancel(context.Background())
	defer riverCancel()
	if err := riverClient.Start(riverCtx); err != nil {
		return fmt.Errorf("river workers failed to start: %w", err)
	}
	logger.Info().Msg("background reconciliation workers started")
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := riverClient.Stop(stopCtx); err != nil {
			logger.Error().Err(err).Msg("river workers shutdown error")
		}
	}()

	handler := api.NewRouter(api.Dependencies{
		Config:        cfg,
		Logger:        logger,
		Pool:          pool,
		JWTManager:    jwtManager,
		Events:        eventService,
		Registrations: registrationService,
		Payments:      paymentService,
		Reconciler:    reconciler,
		Version:       Version,
		GitCommit:     GitCommit,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	return gracefulShutdown(server, logger)
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return cfg, nil
}

// gatewayURLs picks sandbox or production endpoints; explicit URLs from the
// environment win.
func gatewayURLs(cfg config.GatewayConfig) (string, string) {
	baseURL := cfg.APIBaseURL
	queryURL := cfg.QueryBaseURL
	if baseURL == "" {
		if cfg.Sandbox {
			baseURL = cielo.SandboxBaseURL
		} else {
			baseURL = cielo.ProductionBaseURL
		}
	}
	if queryURL == "" {
		if cfg.Sandbox {
			queryURL = cielo.SandboxQueryBaseURL
		} else {
			queryURL = cielo.ProductionQueryBaseURL
		}
	}
	return baseURL, queryURL
}

func bootstrapAdminUser(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, logger zerolog.Logger) error {
	bootstrap := cfg.AdminBootstrap
	if bootstrap.Name == "" || bootstrap.Password == "" || bootstrap.Email == "" {
		logger.Warn().Msg("admin bootstrap env vars not fully set; skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(bootstrap.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	created, err := postgres.NewUserRepository(pool).EnsureAdmin(ctx, ids.MustNewULID(), bootstrap.Name, bootstrap.Email, string(hash))
	if err != nil {
		return err
	}
	if created {
		// Redact email in production to avoid PII in logs.
		if cfg.Environment == "production" {
			logger.Info().Str("name", bootstrap.Name).Msg("bootstrapped admin user")
		} else {
			logger.Info().Str("email", bootstrap.Email).Str("name", bootstrap.Name).Msg("bootstrapped admin user")
		}
	}
	return nil
}

func gracefulShutdown(server *http.Server, logger zerolog.Logger) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
