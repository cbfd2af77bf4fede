package database

import (
	"context"
	"strconv"

	"github.com/wardenbot/warden/internal/cache"
)

// CachedStore wraps a Store with a read-through cache for group state.
// Writes go to the database first and refresh the cached entry only after
// the write succeeds, so the cache never serves state that was not durably
// stored. Groups are cached by value; callers always get their own copy.
type CachedStore struct {
	Store
	groups *cache.Cache[Group]
}

// NewCachedStore decorates store with the given group cache.
func NewCachedStore(store Store, groups *cache.Cache[Group]) *CachedStore {
	return &CachedStore{Store: store, groups: groups}
}

func groupKey(groupID int64) string {
	return "group:" + strconv.FormatInt(groupID, 10)
}

// GetGroup serves the group from cache when a fresh entry exists and
// falls back to the database otherwise.
func (c *CachedStore) GetGroup(ctx context.Context, groupID int64) (*Group, error) {
	if group, ok := c.groups.Get(groupKey(groupID)); ok {
		return &group, nil
	}

	group, err := c.Store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	c.groups.Put(groupKey(groupID), *group)
	return group, nil
}

// SaveGroup writes through to the database and refreshes the cache.
func (c *CachedStore) SaveGroup(ctx context.Context, group *Group) error {
	if err := c.Store.SaveGroup(ctx, group); err != nil {
		return err
	}

	c.groups.Put(groupKey(group.GroupID), *group)
	return nil
}

// UpdateGroup delegates the locked read-modify-write to the underlying
// store and refreshes the cache with the state that was written.
func (c *CachedStore) UpdateGroup(ctx context.Context, groupID int64, mutate func(*Group) error) (*Group, error) {
	group, err := c.Store.UpdateGroup(ctx, groupID, mutate)
	if err != nil {
		return nil, err
	}

	c.groups.Put(groupKey(groupID), *group)
	return group, nil
}
