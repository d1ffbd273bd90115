package domain

// TaskStats is a read model of a user's tasks, computed on demand and never
// persisted.
type TaskStats struct {
	TotalTasks     int `json:"total_tasks"`
	Pending        int `json:"pending"`
	InProgress     int `json:"in_progress"`
	Completed      int `json:"completed"`
	HighPriority   int `json:"high_priority"`
	MediumPriority int `json:"medium_priority"`
	LowPriority    int `json:"low_priority"`
}

// TaskClassification is the raw (status, priority) pair of one stored task.
type TaskClassification struct {
	Status   string
	Priority string
}

// NewTaskStats folds the classifications of a user's tasks into counters.
// A status or priority outside the known domain is an integrity fault; the
// result is never silently under-counted.
func NewTaskStats(rows []TaskClassification) (TaskStats, error) {
	var stats TaskStats

	for _, row := range rows {
		switch TaskStatus(row.Status) {
		case TaskStatusPending:
			stats.Pending++
		case TaskStatusInProgress:
			stats.InProgress++
		case TaskStatusCompleted:
			stats.Completed++
		default:
			return TaskStats{}, newIntegrityError("task status", row.Status)
		}

		switch TaskPriority(row.Priority) {
		case TaskPriorityHigh:
			stats.HighPriority++
		case TaskPriorityMedium:
			stats.MediumPriority++
		case TaskPriorityLow:
			stats.LowPriority++
		default:
			return TaskStats{}, newIntegrityError("task priority", row.Priority)
		}

		stats.TotalTasks++
	}

	return stats, nil
}
