package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrAdminsUnknown is returned by IsAdmin when a chat's administrators have
// never been loaded and the fetch failed.
var ErrAdminsUnknown = errors.New("chat administrators unknown")

// AdminFetcher returns the user ids of a chat's administrators.
type AdminFetcher func(ctx context.Context, chatID int64) ([]int64, error)

type adminEntry struct {
	ids     map[int64]struct{}
	fetched time.Time
}

// AdminCache remembers chat administrators per chat and refreshes each chat at
// most once per TTL. Concurrent callers for a chat share one in-flight fetch.
// A failed refresh keeps the previous set and still counts as a refresh, so a
// broken API is not hammered; a chat whose set never loaded is retried on the
// next call.
type AdminCache struct {
	fetch AdminFetcher
	ttl   time.Duration
	now   func() time.Time

	group singleflight.Group

	mu    sync.Mutex
	chats map[int64]*adminEntry
}

// NewAdminCache creates a cache around fetch.
func NewAdminCache(fetch AdminFetcher, ttl time.Duration) *AdminCache {
	return &AdminCache{
		fetch: fetch,
		ttl:   ttl,
		now:   time.Now,
		chats: make(map[int64]*adminEntry),
	}
}

// IsAdmin reports whether userID administers chatID according to the cache,
// refreshing it first when stale. It returns ErrAdminsUnknown when no set has
// ever been loaded for the chat.
func (c *AdminCache) IsAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	ids, err := c.admins(ctx, chatID)
	if err != nil {
		return false, err
	}
	_, admin := ids[userID]
	return admin, nil
}

func (c *AdminCache) admins(ctx context.Context, chatID int64) (map[int64]struct{}, error) {
	c.mu.Lock()
	e, ok := c.chats[chatID]
	if ok && c.now().Sub(e.fetched) < c.ttl {
		ids := e.ids
		c.mu.Unlock()
		return ids, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(strconv.FormatInt(chatID, 10), func() (any, error) {
		return c.refresh(ctx, chatID)
	})
	if err != nil {
		return nil, err
	}
	return v.(map[int64]struct{}), nil
}

// refresh fetches chatID's administrators and stores them. Only one refresh
// per chat runs at a time.
func (c *AdminCache) refresh(ctx context.Context, chatID int64) (map[int64]struct{}, error) {
	ids, err := c.fetch(ctx, chatID)
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	e, loaded := c.chats[chatID]
	if err != nil {
		if !loaded {
			slog.Warn("moderation: admin fetch failed, no cached set", "chat_id", chatID, "error", err)
			return nil, fmt.Errorf("%w: chat %d: %v", ErrAdminsUnknown, chatID, err)
		}
		slog.Warn("moderation: admin refresh failed, keeping cached set", "chat_id", chatID, "error", err)
		e.fetched = now
		return e.ids, nil
	}

	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	c.chats[chatID] = &adminEntry{ids: set, fetched: now}
	slog.Debug("moderation: admin cache refreshed", "chat_id", chatID, "admins", len(set))
	return set, nil
}

// Invalidate forces the next IsAdmin for chatID to refetch.
func (c *AdminCache) Invalidate(chatID int64) {
	c.mu.Lock()
	delete(c.chats, chatID)
	c.mu.Unlock()
}
