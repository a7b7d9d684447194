package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Togather-Foundation/agenda/internal/api"
	"github.com/Togather-Foundation/agenda/internal/auth"
	"github.com/Togather-Foundation/agenda/internal/config"
	"github.com/Togather-Foundation/agenda/internal/domain/events"
	"github.com/Togather-Foundation/agenda/internal/domain/users"
	"github.com/Togather-Foundation/agenda/internal/metrics"
	"github.com/Togather-Foundation/agenda/internal/storage/postgres"
	"github.com/Togather-Foundation/agenda/internal/telemetry"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const dbCollectInterval = 15 * time.Second

type serveFlags struct {
	host    string
	port    int
	migrate bool
}

func newServeCommand(global *globalFlags) *cobra.Command {
	flags := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the agenda HTTP server",
		Long: `Start the agenda HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables (or --config file if provided)
- Optionally apply pending database migrations (--migrate)
- Serve /login and /events until SIGINT/SIGTERM, then drain and exit

Examples:
  # Start with default configuration (from env vars)
  agenda serve

  # Start on a specific host and port
  agenda serve --host 127.0.0.1 --port 9090

  # Apply migrations first, with console logs
  agenda serve --migrate --log-format console`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			flags.apply(&cfg)
			return runServer(contextOrBackground(cmd), cfg, flags.migrate)
		},
	}
	cmd.Flags().StringVar(&flags.host, "host", "", "server host address (default: 0.0.0.0)")
	cmd.Flags().IntVar(&flags.port, "port", 0, "server port (default: 8080)")
	cmd.Flags().BoolVar(&flags.migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func (f *serveFlags) apply(cfg *config.Config) {
	if f.host != "" {
		cfg.Server.Host = f.host
	}
	if f.port != 0 {
		cfg.Server.Port = f.port
	}
}

func runServer(parent context.Context, cfg config.Config, migrateFirst bool) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := config.NewLogger(cfg.Logging)
	logger.Info().
		Str("version", Version).
		Str("environment", cfg.Environment).
		Msg("starting agenda")

	metrics.Init(Version, GitCommit, BuildDate)

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error().Err(err).Msg("tracing shutdown error")
		}
	}()

	if migrateFirst {
		if err := postgres.MigrateUp(cfg.Database.URL, ""); err != nil {
			return err
		}
		logger.Info().Msg("migrations applied")
	}

	openCtx, openCancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := postgres.Open(openCtx, cfg.Database)
	openCancel()
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	collector := metrics.NewDBCollector(db.Pool())
	go collector.Start(ctx, dbCollectInterval)
	defer collector.Stop()

	repo, err := postgres.NewRepository(db)
	if err != nil {
		return err
	}

	var tokens *auth.JWTManager
	if cfg.Auth.JWTSecret != "" {
		tokens = auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.Issuer)
	} else {
		logger.Warn().Msg("JWT_SECRET not set; /login will not issue tokens")
	}

	handler := api.NewRouter(api.Dependencies{
		Config:    cfg,
		Logger:    logger,
		Users:     users.NewService(repo.Users(), logger),
		Events:    events.NewService(repo.Events(), logger),
		Health:    db,
		Tokens:    tokens,
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
	})

	return serveUntilDone(ctx, newHTTPServer(cfg.Server, handler), cfg.Server.ShutdownTimeout, logger)
}

func newHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}

// serveUntilDone runs server until ctx is cancelled or the listener fails,
// then drains in-flight requests for at most drain.
func serveUntilDone(ctx context.Context, server *http.Server, drain time.Duration, logger zerolog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), drain)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown error")
			return err
		}
		logger.Info().Msg("server stopped")
		return nil
	})

	return g.Wait()
}
