package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/phrazzld/tasktrack-api/internal/config"
	"github.com/phrazzld/tasktrack-api/internal/events"
	"github.com/phrazzld/tasktrack-api/internal/notify"
	"github.com/phrazzld/tasktrack-api/internal/platform/postgres"
	"github.com/phrazzld/tasktrack-api/internal/ratelimit"
	"github.com/phrazzld/tasktrack-api/internal/redact"
	"github.com/phrazzld/tasktrack-api/internal/reminder"
	"github.com/phrazzld/tasktrack-api/internal/service"
	"github.com/phrazzld/tasktrack-api/internal/service/auth"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Service interfaces
	access service.AccessService
	tasks  service.TaskService
	stats  service.StatsService

	// Background work
	dispatcher *notify.Dispatcher
	scanner    *reminder.Scanner

	// Optional login rate limiting; both nil when not configured.
	redis   *redis.Client
	limiter ratelimit.Limiter

	server       *http.Server
	shutdownOnce sync.Once
	shutdownErr  error
}

// newApplication creates a new application instance with all dependencies initialized.
// The database connection must already be established.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	userStore := postgres.NewPostgresUserStore(db, logger)
	taskStore := postgres.NewPostgresTaskStore(db, logger)

	app.access, err = service.NewAccessService(
		userStore,
		jwtService,
		auth.NewBcryptHasher(cfg.Auth.BCryptCost),
		auth.NewBcryptVerifier(),
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create access service: %w", err)
	}

	notifier, err := notify.New(cfg.SMTP, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create notifier: %w", err)
	}
	dispatcherCfg := notify.DefaultDispatcherConfig()
	dispatcherCfg.Timeout = cfg.Reminder.NotifyTimeout()
	app.dispatcher = notify.NewDispatcher(notifier, dispatcherCfg, logger)

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(notify.NewTaskEventHandler(userStore, app.dispatcher, logger))

	app.tasks, err = service.NewTaskService(taskStore, db, emitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	app.stats, err = service.NewStatsService(taskStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create stats service: %w", err)
	}

	app.scanner = reminder.NewScanner(
		postgres.NewSessionFactory(db, logger),
		app.dispatcher,
		reminder.ConfigFrom(cfg.Reminder),
		logger,
	)

	if cfg.RateLimit.RedisURL != "" {
		app.redis, err = ratelimit.NewClient(ctx, cfg.RateLimit.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to rate limit store: %w", err)
		}
		app.limiter, err = ratelimit.NewRedisLimiter(app.redis, "tasktrack:auth",
			cfg.RateLimit.Requests, cfg.RateLimit.Window())
		if err != nil {
			_ = app.redis.Close()
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		logger.Info("login rate limiting enabled",
			slog.Int("requests", cfg.RateLimit.Requests),
			slog.Duration("window", cfg.RateLimit.Window()))
	}

	app.server = app.newServer(app.setupRouter())

	return app, nil
}

// Run serves HTTP and runs the deadline scanner until a termination signal
// arrives or the server fails. It returns the process exit code.
func (app *application) Run(ctx context.Context) int {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(app.serve)

	if app.config.Reminder.Enabled {
		app.scanner.Start()
	} else {
		app.logger.Info("deadline scanner disabled")
	}

	timeout := app.config.Server.ShutdownTimeout()
	wait := gfshutdown.GracefulShutdown(ctx, timeout, map[string]gfshutdown.Operation{
		"tasktrack-api": app.shutdown,
	})

	var exitCode int
	select {
	case exitCode = <-wait:
	case <-gctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		if err := app.shutdown(shutdownCtx); err != nil {
			app.logger.Error("shutdown after server failure did not complete cleanly",
				slog.String("error", redact.Error(err)))
		}
		exitCode = 1
	}

	if err := g.Wait(); err != nil {
		app.logger.Error("server stopped with error", slog.String("error", redact.Error(err)))
		exitCode = 1
	}

	app.logger.Info("application exited", slog.Int("exit_code", exitCode))
	return exitCode
}

// ScanOnce runs a single deadline scan, waits for its deliveries and
// releases resources. It returns the process exit code.
func (app *application) ScanOnce(ctx context.Context) int {
	exitCode := 0

	result, err := app.scanner.RunCycle(ctx)
	if err != nil {
		app.logger.Error("deadline scan failed", slog.String("error", redact.Error(err)))
		exitCode = 1
	} else {
		app.logger.Info("deadline scan finished",
			slog.Int("due", result.Due),
			slog.Int("sent", result.Sent),
			slog.Int("failed", result.Failed))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, app.config.Server.ShutdownTimeout())
	defer cancel()
	if err := app.shutdown(shutdownCtx); err != nil {
		app.logger.Error("cleanup failed", slog.String("error", redact.Error(err)))
		exitCode = 1
	}
	return exitCode
}

// shutdown stops intake first, then drains background deliveries and
// finally closes external connections. It runs at most once.
func (app *application) shutdown(ctx context.Context) error {
	app.shutdownOnce.Do(func() {
		app.logger.Info("shutting down")

		var g errgroup.Group
		if app.server != nil {
			g.Go(func() error {
				if err := app.server.Shutdown(ctx); err != nil {
					return fmt.Errorf("http server shutdown: %w", err)
				}
				return nil
			})
		}
		if app.scanner != nil {
			g.Go(func() error {
				if err := app.scanner.Stop(ctx); err != nil {
					return fmt.Errorf("deadline scanner stop: %w", err)
				}
				return nil
			})
		}
		errs := []error{g.Wait()}

		if app.dispatcher != nil {
			if err := app.dispatcher.Wait(ctx); err != nil {
				errs = append(errs, fmt.Errorf("notification drain: %w", err))
			}
		}
		if app.redis != nil {
			if err := app.redis.Close(); err != nil {
				errs = append(errs, fmt.Errorf("redis close: %w", err))
			}
		}
		if app.db != nil {
			if err := app.db.Close(); err != nil {
				errs = append(errs, fmt.Errorf("database close: %w", err))
			}
		}

		app.shutdownErr = errors.Join(errs...)
		if app.shutdownErr != nil {
			app.logger.Error("shutdown completed with errors",
				slog.String("error", redact.Error(app.shutdownErr)))
			return
		}
		app.logger.Info("shutdown completed")
	})
	return app.shutdownErr
}
