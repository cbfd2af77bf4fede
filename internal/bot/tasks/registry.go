package tasks

import (
	"context"
)

// ScheduledTaskFunc defines the standard signature for all scheduled tasks.
// The context provided by the scheduler should be respected for cancellation;
// a returned error is logged and the task runs again at its next slot.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks initializes and returns a map of all scheduled tasks.
// The keys match the task names used in the scheduler configuration.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := map[string]ScheduledTaskFunc{
		"warn_retention":    newWarnRetentionTask(deps),
		"store_maintenance": newStoreMaintenanceTask(deps),
		"cache_sweep":       newCacheSweepTask(deps),
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
