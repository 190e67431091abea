// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// views.go records which client already counted a view for which content,
// so a reader refreshing a post does not inflate its view count.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// viewKeyPrefix is the Valkey key prefix for view markers.
	viewKeyPrefix = "viewed:"

	// DefaultViewTTL is how long one client's view of one item is remembered.
	DefaultViewTTL = 24 * time.Hour
)

// ViewRecorder remembers (content, client) pairs for a bounded time.
// RecordView reports alreadyCounted=false exactly once per pair per TTL
// window; the caller then bumps the durable counter.
type ViewRecorder interface {
	RecordView(ctx context.Context, contentID, clientID string) (alreadyCounted bool, err error)
}

// ViewKey returns the cache key for a (content, client) pair.
func ViewKey(contentID, clientID string) string {
	return fmt.Sprintf("%s%s:%s", viewKeyPrefix, contentID, clientID)
}

// ViewCache is the Valkey-backed ViewRecorder.
type ViewCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewViewCache creates a view cache. A zero ttl uses DefaultViewTTL.
func NewViewCache(client redis.Cmdable, ttl time.Duration) *ViewCache {
	if ttl == 0 {
		ttl = DefaultViewTTL
	}
	return &ViewCache{client: client, ttl: ttl}
}

// RecordView sets the marker with SET NX EX, so the check and the write are
// one atomic step per key.
func (vc *ViewCache) RecordView(ctx context.Context, contentID, clientID string) (bool, error) {
	key := ViewKey(contentID, clientID)
	set, err := vc.client.SetNX(ctx, key, "1", vc.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("record view: %w", err)
	}
	if !set {
		slog.Debug("view already counted", "key", key)
	}
	return !set, nil
}
