package tasks

import (
	"context"
)

// newCacheSweepTask creates the task that drops expired group cache
// entries, so chats that went quiet do not pin memory until someone
// looks them up again.
func newCacheSweepTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "cache_sweep")

	return func(ctx context.Context) error {
		removed := deps.Groups.SweepExpired()
		if removed > 0 {
			log.InfoContext(ctx, "Swept expired cache entries", "removed", removed)
		}
		return nil
	}
}
