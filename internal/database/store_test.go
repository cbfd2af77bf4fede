package database

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/wardenbot/warden/internal/config"
	apperrors "github.com/wardenbot/warden/internal/errors"
)

func TestIsTransient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "bad connection", err: driver.ErrBadConn, want: true},
		{name: "invalid connection", err: mysql.ErrInvalidConn, want: true},
		{name: "network failure", err: &net.OpError{Op: "dial", Err: errors.New("connection refused")}, want: true},
		{name: "deadlock", err: &mysql.MySQLError{Number: 1213, Message: "Deadlock found"}, want: true},
		{name: "lock wait timeout", err: &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}, want: true},
		{name: "duplicate key", err: &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, want: false},
		{name: "no rows", err: sql.ErrNoRows, want: false},
		{name: "arbitrary error", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := isTransient(tt.err); got != tt.want {
				t.Errorf("isTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestAsStoreError(t *testing.T) {
	t.Parallel()

	unavailable := apperrors.NewStoreUnavailableError("database gone", errors.New("dial tcp: connection refused"))
	if got := asStoreError(unavailable, "context"); got != unavailable {
		t.Errorf("asStoreError() rewrapped a StoreUnavailableError: %v", got)
	}

	wrapped := asStoreError(errors.New("syntax error"), "failed to load group 1")
	if code := apperrors.Code(wrapped); code != apperrors.CodeStore {
		t.Errorf("Code(wrapped) = %v, want %v", code, apperrors.CodeStore)
	}
}

func TestLockGroupSerializesSameGroup(t *testing.T) {
	t.Parallel()

	store := &mysqlStore{groupLocks: make(map[int64]*sync.Mutex)}

	const writers = 16
	var active, maxActive int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			unlock := store.lockGroup(7)
			defer unlock()

			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Errorf("max concurrent holders of one group lock = %d, want 1", maxActive)
	}
}

func TestLockGroupIndependentGroups(t *testing.T) {
	t.Parallel()

	store := &mysqlStore{groupLocks: make(map[int64]*sync.Mutex)}

	// A held lock on one group must not block another group's writers.
	unlock := store.lockGroup(1)
	defer unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		release := store.lockGroup(2)
		release()
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock on group 2 blocked behind the lock on group 1")
	}
}

func TestBuildDSN(t *testing.T) {
	t.Parallel()

	dsn := BuildDSN(config.DatabaseConfig{
		Host:     "db.example.com",
		Port:     3306,
		Name:     "warden",
		User:     "warden",
		Password: "hunter2",
	})

	for _, part := range []string{
		"warden:hunter2@",
		"tcp(db.example.com:3306)",
		"/warden",
		"parseTime=true",
	} {
		if !strings.Contains(dsn, part) {
			t.Errorf("BuildDSN() = %q, missing %q", dsn, part)
		}
	}
}
