// Package tasks implements the scheduled background jobs: warning
// retention, store maintenance, and cache sweeping.
package tasks

import (
	"log/slog"

	"github.com/wardenbot/warden/internal/cache"
	"github.com/wardenbot/warden/internal/config"
	"github.com/wardenbot/warden/internal/database"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Groups *cache.Cache[database.Group]
	Config *config.Config
}
