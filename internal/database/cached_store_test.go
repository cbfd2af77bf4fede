package database

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wardenbot/warden/internal/cache"
	apperrors "github.com/wardenbot/warden/internal/errors"
)

// fakeStore is an in-memory Store for exercising the cache decorator.
type fakeStore struct {
	mu        sync.Mutex
	groups    map[int64]Group
	getCalls  int
	saveCalls int
	getErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{groups: make(map[int64]Group)}
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func (f *fakeStore) GetGroup(_ context.Context, groupID int64) (*Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	if group, ok := f.groups[groupID]; ok {
		return &group, nil
	}
	return NewGroup(groupID), nil
}

func (f *fakeStore) SaveGroup(_ context.Context, group *Group) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.saveCalls++
	f.groups[group.GroupID] = *group
	return nil
}

func (f *fakeStore) UpdateGroup(ctx context.Context, groupID int64, mutate func(*Group) error) (*Group, error) {
	group, err := f.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := mutate(group); err != nil {
		return nil, err
	}
	if err := f.SaveGroup(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (f *fakeStore) AddWarning(context.Context, *Warning) error { return nil }

func (f *fakeStore) WarningsForUser(context.Context, int64, int64) ([]Warning, error) {
	return nil, nil
}

func (f *fakeStore) PruneWarnings(context.Context, time.Time) (int64, error) { return 0, nil }

func (f *fakeStore) RunMaintenance(context.Context) error { return nil }

func (f *fakeStore) calls() (gets, saves int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls, f.saveCalls
}

func newCachedStore(inner Store) *CachedStore {
	return NewCachedStore(inner, cache.New[Group](cache.WithMaxEntries(16)))
}

func TestCachedGetGroupReadsThrough(t *testing.T) {
	t.Parallel()

	inner := newFakeStore()
	inner.groups[1] = Group{GroupID: 1, Rules: "Be kind.", WelcomeEnabled: true, Chamber: restChamber}
	store := newCachedStore(inner)

	first, err := store.GetGroup(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetGroup() error = %v", err)
	}
	second, err := store.GetGroup(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetGroup() error = %v", err)
	}

	if first.Rules != "Be kind." || second.Rules != "Be kind." {
		t.Errorf("GetGroup() rules = %q then %q, want %q", first.Rules, second.Rules, "Be kind.")
	}
	if gets, _ := inner.calls(); gets != 1 {
		t.Errorf("inner GetGroup calls = %d, want 1 (second read should hit the cache)", gets)
	}
}

func TestCachedGetGroupReturnsIndependentCopies(t *testing.T) {
	t.Parallel()

	inner := newFakeStore()
	inner.groups[1] = Group{GroupID: 1, Rules: "Be kind.", Chamber: restChamber}
	store := newCachedStore(inner)

	first, err := store.GetGroup(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetGroup() error = %v", err)
	}
	first.Rules = "mutated without saving"

	second, err := store.GetGroup(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetGroup() error = %v", err)
	}
	if second.Rules != "Be kind." {
		t.Errorf("cached state changed through a caller's copy: rules = %q", second.Rules)
	}
}

func TestCachedSaveGroupRefreshesCache(t *testing.T) {
	t.Parallel()

	inner := newFakeStore()
	store := newCachedStore(inner)

	group := NewGroup(1)
	group.Rules = "No spam."
	if err := store.SaveGroup(context.Background(), group); err != nil {
		t.Fatalf("SaveGroup() error = %v", err)
	}

	got, err := store.GetGroup(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetGroup() error = %v", err)
	}

	if got.Rules != "No spam." {
		t.Errorf("GetGroup() rules = %q, want %q", got.Rules, "No spam.")
	}
	if gets, saves := inner.calls(); gets != 0 || saves != 1 {
		t.Errorf("inner calls = %d gets, %d saves; want 0 gets, 1 save", gets, saves)
	}
}

func TestCachedUpdateGroupRefreshesCache(t *testing.T) {
	t.Parallel()

	inner := newFakeStore()
	inner.groups[1] = Group{GroupID: 1, WelcomeEnabled: true, Chamber: restChamber}
	store := newCachedStore(inner)

	updated, err := store.UpdateGroup(context.Background(), 1, func(g *Group) error {
		g.WelcomeEnabled = false
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateGroup() error = %v", err)
	}
	if updated.WelcomeEnabled {
		t.Error("UpdateGroup() returned state without the mutation applied")
	}

	getsBefore, _ := inner.calls()
	got, err := store.GetGroup(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetGroup() error = %v", err)
	}
	if got.WelcomeEnabled {
		t.Error("GetGroup() after update still reports welcome enabled")
	}
	if getsAfter, _ := inner.calls(); getsAfter != getsBefore {
		t.Errorf("GetGroup() after update hit the database (%d -> %d calls), want cache", getsBefore, getsAfter)
	}
}

func TestCachedUpdateGroupMutateErrorLeavesCacheCold(t *testing.T) {
	t.Parallel()

	inner := newFakeStore()
	inner.groups[1] = Group{GroupID: 1, Rules: "original", Chamber: restChamber}
	store := newCachedStore(inner)

	wantErr := errors.New("mutation rejected")
	_, err := store.UpdateGroup(context.Background(), 1, func(*Group) error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("UpdateGroup() error = %v, want %v", err, wantErr)
	}

	got, err := store.GetGroup(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetGroup() error = %v", err)
	}
	if got.Rules != "original" {
		t.Errorf("GetGroup() rules = %q, want %q", got.Rules, "original")
	}
}

func TestConcurrentSaveGroupLastWriterWins(t *testing.T) {
	t.Parallel()

	inner := newFakeStore()
	store := newCachedStore(inner)

	const writers = 16
	errs := make([]error, writers)

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			group := NewGroup(1)
			group.Rules = "rules " + strconv.Itoa(i)
			group.WelcomeMessage = "welcome " + strconv.Itoa(i)
			errs[i] = store.SaveGroup(context.Background(), group)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("SaveGroup() writer %d error = %v", i, err)
		}
	}
	if _, saves := inner.calls(); saves != writers {
		t.Errorf("inner SaveGroup calls = %d, want %d (no write may be dropped)", saves, writers)
	}

	inner.mu.Lock()
	final := inner.groups[1]
	inner.mu.Unlock()

	if !strings.HasPrefix(final.Rules, "rules ") {
		t.Fatalf("final rules = %q, want a single writer's value", final.Rules)
	}
	winner := strings.TrimPrefix(final.Rules, "rules ")
	if want := "welcome " + winner; final.WelcomeMessage != want {
		t.Errorf("final record mixes writers: rules = %q, welcome message = %q", final.Rules, final.WelcomeMessage)
	}
}

func TestCachedGetGroupErrorIsNotCached(t *testing.T) {
	t.Parallel()

	inner := newFakeStore()
	inner.getErr = apperrors.NewStoreUnavailableError("database gone", errors.New("dial tcp: connection refused"))
	store := newCachedStore(inner)

	for i := 0; i < 2; i++ {
		_, err := store.GetGroup(context.Background(), 1)
		if apperrors.Code(err) != apperrors.CodeStoreUnavailable {
			t.Fatalf("GetGroup() error = %v, want store unavailable", err)
		}
	}

	if gets, _ := inner.calls(); gets != 2 {
		t.Errorf("inner GetGroup calls = %d, want 2 (failures must not populate the cache)", gets)
	}
}
