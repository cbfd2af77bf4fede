package tasks

import (
	"context"
	"fmt"
	"time"
)

// newStoreMaintenanceTask creates the scheduled task that runs periodic
// database maintenance.
func newStoreMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "store_maintenance")

	return func(ctx context.Context) error {
		startTime := time.Now()

		if err := deps.Store.RunMaintenance(ctx); err != nil {
			return fmt.Errorf("store maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "Store maintenance completed", "duration", time.Since(startTime))
		return nil
	}
}
