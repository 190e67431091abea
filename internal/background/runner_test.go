package background

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordedError struct {
	name string
	err  error
}

type errorLog struct {
	mu      sync.Mutex
	entries []recordedError
}

func (l *errorLog) hook(name string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, recordedError{name: name, err: err})
}

func TestRunnerRunsTask(t *testing.T) {
	r := New(time.Second)
	var ran bool
	r.Go("mark", func(ctx context.Context) error {
		ran = true
		return nil
	})
	r.Wait()

	if !ran {
		t.Error("task did not run")
	}
}

func TestRunnerReportsFailure(t *testing.T) {
	log := &errorLog{}
	r := New(time.Second, WithErrorHook(log.hook))
	boom := errors.New("consumer offline")

	r.Go("notify", func(ctx context.Context) error { return boom })
	r.Wait()

	if len(log.entries) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(log.entries))
	}
	if log.entries[0].name != "notify" || !errors.Is(log.entries[0].err, boom) {
		t.Errorf("unexpected failure %+v", log.entries[0])
	}
}

func TestRunnerRecoversPanic(t *testing.T) {
	log := &errorLog{}
	r := New(time.Second, WithErrorHook(log.hook))

	r.Go("explode", func(ctx context.Context) error { panic("nil map") })
	r.Wait()

	if len(log.entries) != 1 || log.entries[0].name != "explode" {
		t.Fatalf("expected recovered panic to be reported, got %+v", log.entries)
	}
}

func TestRunnerTimeout(t *testing.T) {
	log := &errorLog{}
	r := New(20*time.Millisecond, WithErrorHook(log.hook))

	r.Go("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	r.Wait()

	if len(log.entries) != 1 || !errors.Is(log.entries[0].err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %+v", log.entries)
	}
}

func TestRunnerShutdown(t *testing.T) {
	r := New(time.Second)
	release := make(chan struct{})
	r.Go("blocked", func(ctx context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := r.Shutdown(ctx); err == nil {
		t.Error("expected shutdown to time out while task is blocked")
	}

	close(release)
	if err := r.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown after release: %v", err)
	}
}

func TestNewDefaultTimeout(t *testing.T) {
	if r := New(0); r.timeout != DefaultTimeout {
		t.Errorf("timeout: got %v, want %v", r.timeout, DefaultTimeout)
	}
}
