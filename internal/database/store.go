package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	apperrors "github.com/wardenbot/warden/internal/errors"
	"github.com/wardenbot/warden/internal/resilience"
)

// Store defines the persistence operations the bot needs. All methods
// accept a context for cancellation and timeouts. Writes are durable when
// a method returns nil.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// GetGroup retrieves the stored state for a group. An absent row
	// yields a fresh default group that is not persisted until saved.
	GetGroup(ctx context.Context, groupID int64) (*Group, error)

	// SaveGroup inserts or overwrites the group row. The last write for
	// a group wins; per-group write serialization keeps read-modify-write
	// cycles from interleaving in this process.
	SaveGroup(ctx context.Context, group *Group) error

	// UpdateGroup loads the group, applies mutate, and saves the result
	// under the group's write lock. It returns the state that was written.
	UpdateGroup(ctx context.Context, groupID int64, mutate func(*Group) error) (*Group, error)

	// AddWarning records a warning against a group member.
	AddWarning(ctx context.Context, warning *Warning) error

	// WarningsForUser retrieves a member's warnings, newest first.
	WarningsForUser(ctx context.Context, groupID, userID int64) ([]Warning, error)

	// PruneWarnings deletes warnings issued before the cutoff and reports
	// how many rows were removed.
	PruneWarnings(ctx context.Context, olderThan time.Time) (int64, error)

	// RunMaintenance refreshes table statistics.
	RunMaintenance(ctx context.Context) error
}

// mysqlStore implements Store on MySQL via sqlx.
type mysqlStore struct {
	db     *sqlx.DB
	logger *slog.Logger
	retry  resilience.RetryConfig

	// groupLocks serializes writes per group. Locks are never removed;
	// the map grows with the number of distinct groups seen.
	mu         sync.Mutex
	groupLocks map[int64]*sync.Mutex
}

// NewStore creates a Store backed by the given connection pool. Transient
// database failures are retried a few times with backoff before surfacing
// as a StoreUnavailableError.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	retry := resilience.DefaultRetryConfig()
	retry.MaxInterval = 2 * time.Second
	retry.RetryIf = isTransient

	return &mysqlStore{
		db:         db,
		logger:     logger.With("component", "store"),
		retry:      retry,
		groupLocks: make(map[int64]*sync.Mutex),
	}
}

// isTransient reports whether a database error is worth retrying:
// connection drops, network failures, lock wait timeouts, and deadlocks.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1205, 1213: // ER_LOCK_WAIT_TIMEOUT, ER_LOCK_DEADLOCK
			return true
		}
	}

	return false
}

// withRetry runs operation with the store's retry policy. Exhausting the
// retry budget surfaces as a StoreUnavailableError; non-transient errors
// come back unwrapped after the first attempt.
func (s *mysqlStore) withRetry(ctx context.Context, name string, operation func(context.Context) error) error {
	err := resilience.WithRetry(ctx, operation, s.retry)
	if err != nil && errors.Is(err, resilience.ErrExhaustedRetries) {
		return apperrors.NewStoreUnavailableError(fmt.Sprintf("%s kept failing after retries", name), err)
	}
	return err
}

// asStoreError keeps an already-typed store error intact and wraps
// everything else as a generic store failure.
func asStoreError(err error, message string) error {
	if apperrors.Code(err) == apperrors.CodeStoreUnavailable {
		return err
	}
	return apperrors.NewStoreError(message, err)
}

// lockGroup acquires the write lock for a group and returns its release.
func (s *mysqlStore) lockGroup(groupID int64) func() {
	s.mu.Lock()
	lock, ok := s.groupLocks[groupID]
	if !ok {
		lock = &sync.Mutex{}
		s.groupLocks[groupID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Ping checks the database connection.
func (s *mysqlStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetGroup retrieves the stored state for a group.
func (s *mysqlStore) GetGroup(ctx context.Context, groupID int64) (*Group, error) {
	if groupID == 0 {
		return nil, fmt.Errorf("group_id cannot be zero")
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var group Group
	query := `
        SELECT group_id, created_at, updated_at, welcome_enabled, welcome_message,
               description, rules, related_chats, bullet, chamber
        FROM chat_groups
        WHERE group_id = ?;
    `

	err := s.withRetry(ctx, "load group", func(ctx context.Context) error {
		return s.db.GetContext(ctx, &group, query, groupID)
	})

	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No stored state for group, using defaults", "group_id", groupID)
		return NewGroup(groupID), nil

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while loading group",
			"group_id", groupID, "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error loading group", "group_id", groupID, "error", err)
		return nil, asStoreError(err, fmt.Sprintf("failed to load group %d", groupID))
	}

	return &group, nil
}

// SaveGroup inserts or overwrites the group row (last write wins).
func (s *mysqlStore) SaveGroup(ctx context.Context, group *Group) error {
	if group == nil {
		return fmt.Errorf("cannot save nil group")
	}
	if group.GroupID == 0 {
		return fmt.Errorf("group must have a non-zero group_id")
	}

	unlock := s.lockGroup(group.GroupID)
	defer unlock()

	return s.saveGroupLocked(ctx, group)
}

// saveGroupLocked performs the upsert. Callers must hold the group lock.
func (s *mysqlStore) saveGroupLocked(ctx context.Context, group *Group) error {
	now := time.Now().UTC()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}
	group.UpdatedAt = now

	query := `
        INSERT INTO chat_groups (group_id, created_at, updated_at, welcome_enabled, welcome_message,
                                 description, rules, related_chats, bullet, chamber)
        VALUES (:group_id, :created_at, :updated_at, :welcome_enabled, :welcome_message,
                :description, :rules, :related_chats, :bullet, :chamber)
        ON DUPLICATE KEY UPDATE
            updated_at      = VALUES(updated_at),
            welcome_enabled = VALUES(welcome_enabled),
            welcome_message = VALUES(welcome_message),
            description     = VALUES(description),
            rules           = VALUES(rules),
            related_chats   = VALUES(related_chats),
            bullet          = VALUES(bullet),
            chamber         = VALUES(chamber);
    `

	err := s.withRetry(ctx, "save group", func(ctx context.Context) error {
		_, execErr := s.db.NamedExecContext(ctx, query, group)
		return execErr
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving group", "group_id", group.GroupID, "error", err)
		return asStoreError(err, fmt.Sprintf("failed to save group %d", group.GroupID))
	}

	s.logger.DebugContext(ctx, "Group saved", "group_id", group.GroupID)
	return nil
}

// UpdateGroup loads, mutates, and saves a group under its write lock.
func (s *mysqlStore) UpdateGroup(ctx context.Context, groupID int64, mutate func(*Group) error) (*Group, error) {
	if groupID == 0 {
		return nil, fmt.Errorf("group_id cannot be zero")
	}
	if mutate == nil {
		return nil, fmt.Errorf("mutate function cannot be nil")
	}

	unlock := s.lockGroup(groupID)
	defer unlock()

	group, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if err := mutate(group); err != nil {
		return nil, err
	}

	if err := s.saveGroupLocked(ctx, group); err != nil {
		return nil, err
	}

	return group, nil
}

// AddWarning records a warning against a group member.
func (s *mysqlStore) AddWarning(ctx context.Context, warning *Warning) error {
	if warning == nil {
		return fmt.Errorf("cannot save nil warning")
	}
	if warning.GroupID == 0 {
		return fmt.Errorf("warning must have a non-zero group_id")
	}
	if warning.UserID == 0 {
		return fmt.Errorf("warning must have a non-zero user_id")
	}
	if warning.WarnedBy == 0 {
		return fmt.Errorf("warning must have a non-zero warned_by")
	}

	if warning.CreatedAt.IsZero() {
		warning.CreatedAt = time.Now().UTC()
	}

	query := `
        INSERT INTO warnings (group_id, user_id, warned_by, warned_by_name, reason, created_at)
        VALUES (:group_id, :user_id, :warned_by, :warned_by_name, :reason, :created_at);
    `

	var result sql.Result
	err := s.withRetry(ctx, "add warning", func(ctx context.Context) error {
		var execErr error
		result, execErr = s.db.NamedExecContext(ctx, query, warning)
		return execErr
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving warning",
			"group_id", warning.GroupID, "user_id", warning.UserID, "error", err)
		return asStoreError(err, fmt.Sprintf("failed to save warning for user %d in group %d",
			warning.UserID, warning.GroupID))
	}

	if id, idErr := result.LastInsertId(); idErr == nil {
		warning.ID = id
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after saving warning",
			"group_id", warning.GroupID, "user_id", warning.UserID, "error", idErr)
	}

	s.logger.DebugContext(ctx, "Warning saved",
		"group_id", warning.GroupID, "user_id", warning.UserID, "warning_id", warning.ID)
	return nil
}

// WarningsForUser retrieves a member's warnings, newest first.
func (s *mysqlStore) WarningsForUser(ctx context.Context, groupID, userID int64) ([]Warning, error) {
	if groupID == 0 {
		return nil, fmt.Errorf("group_id cannot be zero")
	}
	if userID == 0 {
		return nil, fmt.Errorf("user_id cannot be zero")
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var warnings []Warning
	query := `
        SELECT id, created_at, group_id, user_id, warned_by, warned_by_name, reason
        FROM warnings
        WHERE group_id = ? AND user_id = ?
        ORDER BY created_at DESC, id DESC;
    `

	err := s.withRetry(ctx, "load warnings", func(ctx context.Context) error {
		return s.db.SelectContext(ctx, &warnings, query, groupID, userID)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error loading warnings",
			"group_id", groupID, "user_id", userID, "error", err)
		return nil, asStoreError(err, fmt.Sprintf("failed to load warnings for user %d in group %d",
			userID, groupID))
	}

	s.logger.DebugContext(ctx, "Warnings loaded",
		"group_id", groupID, "user_id", userID, "count", len(warnings))
	return warnings, nil
}

// PruneWarnings deletes warnings issued before the cutoff.
func (s *mysqlStore) PruneWarnings(ctx context.Context, olderThan time.Time) (int64, error) {
	if olderThan.IsZero() {
		return 0, fmt.Errorf("cutoff time cannot be zero")
	}

	var removed int64
	query := `DELETE FROM warnings WHERE created_at < ?;`

	err := s.withRetry(ctx, "prune warnings", func(ctx context.Context) error {
		result, execErr := s.db.ExecContext(ctx, query, olderThan.UTC())
		if execErr != nil {
			return execErr
		}
		removed, execErr = result.RowsAffected()
		return execErr
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error pruning warnings", "cutoff", olderThan, "error", err)
		return 0, asStoreError(err, "failed to prune warnings")
	}

	s.logger.InfoContext(ctx, "Pruned expired warnings", "cutoff", olderThan, "removed", removed)
	return removed, nil
}

// RunMaintenance refreshes table statistics so the optimizer keeps picking
// the right indexes as tables grow.
func (s *mysqlStore) RunMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before maintenance", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (ANALYZE TABLE)...")

	for _, table := range []string{"chat_groups", "warnings"} {
		if _, err := s.db.ExecContext(ctx, "ANALYZE TABLE "+table+";"); err != nil {
			s.logger.ErrorContext(ctx, "Database maintenance failed", "table", table, "error", err)
			return asStoreError(err, fmt.Sprintf("failed to analyze table %s", table))
		}
	}

	s.logger.InfoContext(ctx, "Database maintenance completed successfully")
	return nil
}
