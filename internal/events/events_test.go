package events

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadline/internal/background"
)

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"shorter", "hello", 30, "hello"},
		{"exact", "abc", 3, "abc"},
		{"truncated", "abcdef", 3, "abc"},
		{"multibyte", "ăîșțâăîșțâ", 4, "ăîșț"},
		{"zero", "abc", 0, ""},
		{"empty", "", 5, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Excerpt(tt.in, tt.n); got != tt.want {
				t.Errorf("Excerpt(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		})
	}
}

func TestBridgeEmitDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	pub := PublisherFunc(func(ctx context.Context, ev Event) error {
		<-release
		return nil
	})
	runner := background.New(time.Second)
	b := NewBridge(pub, runner)

	done := make(chan struct{})
	go func() {
		b.Emit(KindFlowReplied, FlowReplied{})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on the publisher")
	}
	close(release)
	runner.Wait()
}

func TestBridgePublishFailureIsReported(t *testing.T) {
	var mu sync.Mutex
	var reported error
	runner := background.New(time.Second, background.WithErrorHook(func(name string, err error) {
		mu.Lock()
		reported = err
		mu.Unlock()
	}))
	pub := PublisherFunc(func(ctx context.Context, ev Event) error {
		return errors.New("broker down")
	})
	NewBridge(pub, runner).Emit(KindPostReplied, PostReplied{})
	runner.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Error(t, reported)
	assert.Contains(t, reported.Error(), "broker down")
}

func TestLogPublisher(t *testing.T) {
	p := NewLogPublisher(nil)
	assert.NoError(t, p.Publish(context.Background(), Event{Kind: KindPostReplied, Payload: json.RawMessage(`{}`)}))
}

func TestRedisPublisherChannel(t *testing.T) {
	p := NewRedisPublisher(redis.NewClient(&redis.Options{Addr: "localhost:0"}), "")
	assert.Equal(t, "threadline:events:flow.replied", p.Channel(KindFlowReplied))

	p = NewRedisPublisher(redis.NewClient(&redis.Options{Addr: "localhost:0"}), "app:")
	assert.Equal(t, "app:post.reply", p.Channel(KindPostReplied))
}

func TestRedisPublisherIntegration(t *testing.T) {
	host := os.Getenv("VALKEY_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("VALKEY_PORT")
	if port == "" {
		port = "6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15,
	})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}
	defer client.Close()

	pub := NewRedisPublisher(client, "threadline-test:")
	sub := client.Subscribe(ctx, pub.Channel(KindFlowReplied))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	ev := Event{ID: uuid.New(), Kind: KindFlowReplied, Payload: json.RawMessage(`{"flow_slug":"x"}`)}
	require.NoError(t, pub.Publish(ctx, ev))

	select {
	case msg := <-sub.Channel():
		var got Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, ev.ID, got.ID)
		assert.Equal(t, KindFlowReplied, got.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}
