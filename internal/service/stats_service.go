package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// StatsService computes aggregate counters over a user's tasks.
type StatsService interface {
	// ComputeStats counts all of the owner's tasks by status and priority.
	// A stored value outside the known domain yields domain.ErrIntegrity.
	ComputeStats(ctx context.Context, ownerID uuid.UUID) (domain.TaskStats, error)
}

type statsServiceImpl struct {
	tasks  store.TaskStore
	logger *slog.Logger
}

// NewStatsService creates a StatsService.
func NewStatsService(tasks store.TaskStore, logger *slog.Logger) (StatsService, error) {
	if tasks == nil {
		return nil, NewServiceError("stats", "create_service", errors.New("task store cannot be nil"))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &statsServiceImpl{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "stats_service")),
	}, nil
}

// ComputeStats implements StatsService.
func (s *statsServiceImpl) ComputeStats(ctx context.Context, ownerID uuid.UUID) (domain.TaskStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.tasks.ListStatsRows(ctx, ownerID)
	if err != nil {
		log.Error("failed to read task classifications",
			slog.String("error", err.Error()),
			slog.String("user_id", ownerID.String()))
		return domain.TaskStats{}, NewServiceError("stats", "compute", err)
	}

	stats, err := domain.NewTaskStats(rows)
	if err != nil {
		log.Error("stored task data failed integrity check",
			slog.String("error", err.Error()),
			slog.String("user_id", ownerID.String()))
		return domain.TaskStats{}, NewServiceError("stats", "compute", err)
	}

	return stats, nil
}
