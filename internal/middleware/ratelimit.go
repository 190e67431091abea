// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"threadline/internal/apperr"
)

// Limiter decides whether one more request for key fits the budget.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// KeyFunc derives the rate limit key of a request.
type KeyFunc func(r *http.Request) string

// ByUserOrIP keys identified requests by user id and anonymous ones by
// client IP.
func ByUserOrIP(r *http.Request) string {
	if u := UserFromCtx(r.Context()); u != nil {
		return "user:" + u.ID.String()
	}
	return "ip:" + ClientIP(r)
}

// RateLimit rejects requests over budget with 429. Limiter failures let the
// request through.
func RateLimit(l Limiter, key KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := l.Allow(r.Context(), key(r))
			if err != nil {
				slog.Warn("rate limiter unavailable", "error", err)
				ok = true
			}
			if !ok {
				writeError(w, apperr.CodeRateLimited, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// limiterEntry tracks request timestamps for a single key.
type limiterEntry struct {
	mu         sync.Mutex
	timestamps []time.Time
}

// MemoryLimiter is a per-process sliding window limiter.
type MemoryLimiter struct {
	mu      sync.RWMutex
	clients map[string]*limiterEntry
	limit   int
	window  time.Duration
	now     func() time.Time
	stopCh  chan struct{}
}

// NewMemoryLimiter allows limit requests per window and key. It starts a
// goroutine that drops idle keys; call Stop to end it.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	rl := &MemoryLimiter{
		clients: make(map[string]*limiterEntry),
		limit:   limit,
		window:  window,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.cleanup()
			case <-rl.stopCh:
				return
			}
		}
	}()

	return rl
}

// Stop terminates the cleanup goroutine.
func (rl *MemoryLimiter) Stop() {
	close(rl.stopCh)
}

// Allow implements Limiter.
func (rl *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	rl.mu.RLock()
	entry, exists := rl.clients[key]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		entry, exists = rl.clients[key]
		if !exists {
			entry = &limiterEntry{}
			rl.clients[key] = entry
		}
		rl.mu.Unlock()
	}

	now := rl.now()
	cutoff := now.Add(-rl.window)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	valid := entry.timestamps[:0]
	for _, ts := range entry.timestamps {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}
	entry.timestamps = valid

	if len(entry.timestamps) >= rl.limit {
		return false, nil
	}
	entry.timestamps = append(entry.timestamps, now)
	return true, nil
}

// cleanup removes keys with no request inside the window.
func (rl *MemoryLimiter) cleanup() {
	cutoff := rl.now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, entry := range rl.clients {
		entry.mu.Lock()
		idle := len(entry.timestamps) == 0 || !entry.timestamps[len(entry.timestamps)-1].After(cutoff)
		entry.mu.Unlock()
		if idle {
			delete(rl.clients, key)
		}
	}
}

// RedisLimiter is a fixed window limiter shared by every instance using the
// same Valkey database.
type RedisLimiter struct {
	client redis.Cmdable
	prefix string
	limit  int
	window time.Duration
}

// NewRedisLimiter allows limit requests per window and key.
func NewRedisLimiter(client redis.Cmdable, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

// Allow implements Limiter. The first hit of a window sets its expiry.
func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := rl.prefix + key
	pipe := rl.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return incr.Val() <= int64(rl.limit), nil
}

// ClientIP extracts the client's IP address, preferring X-Forwarded-For and
// X-Real-IP for proxied requests.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.IndexByte(xff, ','); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
