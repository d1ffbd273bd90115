// Package main implements the entry point for the TaskTrack API server,
// which serves owner-scoped task tracking over HTTP and emails deadline
// reminders in the background.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/phrazzld/tasktrack-api/internal/config"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/platform/postgres"
	"github.com/phrazzld/tasktrack-api/internal/redact"
)

func main() {
	migrateCmd := flag.String("migrate", "",
		"run a migration command and exit: "+strings.Join(postgres.MigrationCommands, "|"))
	scanOnce := flag.Bool("scan-once", false, "run a single deadline scan and exit")
	flag.Parse()

	os.Exit(run(*migrateCmd, *scanOnce))
}

// run performs startup and returns the process exit code.
func run(migrateCmd string, scanOnce bool) int {
	ctx := context.Background()

	cfg, logger, err := initializeApp()
	if err != nil {
		log.Printf("failed to initialize application: %v", err)
		return 1
	}

	db, err := postgres.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", redact.Error(err)))
		return 1
	}

	if migrateCmd != "" {
		return runMigration(ctx, db, migrateCmd, logger)
	}

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db, "up", logger); err != nil {
			logger.Error("automatic migration failed", slog.String("error", redact.Error(err)))
			_ = db.Close()
			return 1
		}
	}

	app, err := newApplication(ctx, cfg, logger, db)
	if err != nil {
		logger.Error("failed to wire application", slog.String("error", redact.Error(err)))
		_ = db.Close()
		return 1
	}

	if scanOnce {
		return app.ScanOnce(ctx)
	}
	return app.Run(ctx)
}

// initializeApp loads configuration and sets up structured logging.
func initializeApp() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.Bool("reminders_enabled", cfg.Reminder.Enabled),
		slog.Bool("smtp_configured", cfg.SMTP.Configured()),
		slog.Bool("rate_limit_enabled", cfg.RateLimit.RedisURL != ""))

	return cfg, l, nil
}

func runMigration(ctx context.Context, db *sql.DB, command string, logger *slog.Logger) int {
	defer func() { _ = db.Close() }()

	if err := postgres.Migrate(ctx, db, command, logger); err != nil {
		logger.Error("migration failed",
			slog.String("command", command),
			slog.String("error", redact.Error(err)))
		return 1
	}
	return 0
}
