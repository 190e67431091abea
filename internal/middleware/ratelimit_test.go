package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"threadline/internal/models"
)

// newTestLimiter returns a MemoryLimiter driven by a settable clock.
func newTestLimiter(t *testing.T, limit int, window time.Duration) (*MemoryLimiter, *time.Time) {
	t.Helper()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewMemoryLimiter(limit, window)
	rl.now = func() time.Time { return now }
	t.Cleanup(rl.Stop)
	return rl, &now
}

func allow(t *testing.T, l Limiter, key string) bool {
	t.Helper()
	ok, err := l.Allow(context.Background(), key)
	if err != nil {
		t.Fatalf("Allow(%q): %v", key, err)
	}
	return ok
}

func TestMemoryLimiterAllow(t *testing.T) {
	rl, _ := newTestLimiter(t, 3, time.Second)

	for i := 0; i < 3; i++ {
		if !allow(t, rl, "ip:a") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if allow(t, rl, "ip:a") {
		t.Error("4th request should be rate-limited")
	}
	if !allow(t, rl, "ip:b") {
		t.Error("different key should be allowed")
	}
}

func TestMemoryLimiterWindowSlides(t *testing.T) {
	rl, now := newTestLimiter(t, 2, time.Minute)

	allow(t, rl, "k")
	*now = now.Add(30 * time.Second)
	allow(t, rl, "k")
	if allow(t, rl, "k") {
		t.Fatal("should be rate-limited")
	}

	// The first request leaves the window, the second is still inside.
	*now = now.Add(31 * time.Second)
	if !allow(t, rl, "k") {
		t.Error("one slot should have freed up")
	}
	if allow(t, rl, "k") {
		t.Error("only one slot should have freed up")
	}
}

func TestMemoryLimiterCleanup(t *testing.T) {
	rl, now := newTestLimiter(t, 10, time.Minute)

	allow(t, rl, "old")
	*now = now.Add(45 * time.Second)
	allow(t, rl, "fresh")
	*now = now.Add(30 * time.Second)
	rl.cleanup()

	rl.mu.RLock()
	_, oldExists := rl.clients["old"]
	_, freshExists := rl.clients["fresh"]
	rl.mu.RUnlock()

	if oldExists {
		t.Error("old should have been cleaned up")
	}
	if !freshExists {
		t.Error("fresh should still exist")
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("valkey down")
}

func TestRateLimitMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 2, time.Minute)
	handler := RateLimit(rl, ByUserOrIP)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	send := func(user *models.User) int {
		req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		if user != nil {
			req = req.WithContext(WithUser(req.Context(), user))
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	for i := 0; i < 2; i++ {
		if code := send(nil); code != http.StatusCreated {
			t.Fatalf("request %d: got status %d, want 201", i+1, code)
		}
	}
	if code := send(nil); code != http.StatusTooManyRequests {
		t.Errorf("got status %d, want 429", code)
	}
	// Identified users from the same IP have their own budget.
	if code := send(&models.User{ID: uuid.New()}); code != http.StatusCreated {
		t.Errorf("identified user: got %d, want 201", code)
	}

	open := RateLimit(failingLimiter{}, ByUserOrIP)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rr := httptest.NewRecorder()
	open.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("limiter failure should not block, got %d", rr.Code)
	}
}

func TestRedisLimiter(t *testing.T) {
	host := os.Getenv("VALKEY_HOST")
	if host == "" {
		host = "localhost"
	}
	client := redis.NewClient(&redis.Options{Addr: host + ":6379", DB: 15})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("valkey not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	key := "test:" + uuid.NewString()
	rl := NewRedisLimiter(client, "threadline:ratelimit:", 2, time.Minute)
	t.Cleanup(func() { client.Del(ctx, "threadline:ratelimit:"+key) })

	if !allow(t, rl, key) || !allow(t, rl, key) {
		t.Fatal("first two requests should be allowed")
	}
	if allow(t, rl, key) {
		t.Error("third request should be rate-limited")
	}
	ttl := client.TTL(ctx, "threadline:ratelimit:"+key).Val()
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("window ttl = %v", ttl)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		want       string
	}{
		{"x-forwarded-for single", "10.0.0.1", "", "192.168.1.1:1234", "10.0.0.1"},
		{"x-forwarded-for multiple", "10.0.0.1, 172.16.0.1", "", "192.168.1.1:1234", "10.0.0.1"},
		{"x-real-ip", "", "10.0.0.2", "192.168.1.1:1234", "10.0.0.2"},
		{"remote addr only", "", "", "192.168.1.1:1234", "192.168.1.1"},
		{"remote addr no port", "", "", "192.168.1.1", "192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
