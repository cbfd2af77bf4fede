package tasks

import (
	"context"
	"fmt"
	"time"
)

// newWarnRetentionTask creates the task that expires warnings older than
// the configured retention window. Warnings age out instead of piling up
// forever; a member's slate eventually clears.
func newWarnRetentionTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "warn_retention")

	return func(ctx context.Context) error {
		cutoff := time.Now().UTC().Add(-deps.Config.Bot.WarnRetention)

		pruned, err := deps.Store.PruneWarnings(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("failed to prune warnings: %w", err)
		}

		log.InfoContext(ctx, "Pruned expired warnings", "pruned", pruned, "cutoff", cutoff)
		return nil
	}
}
