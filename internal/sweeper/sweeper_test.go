package sweeper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type targetStub struct {
	mu    sync.Mutex
	calls int
	n     int
	err   error
	hit   chan struct{}
}

func (s *targetStub) SweepExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.hit != nil {
		select {
		case s.hit <- struct{}{}:
		default:
		}
	}
	return s.n, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew(t *testing.T) {
	t.Run("rejects invalid schedules", func(t *testing.T) {
		if _, err := New(&targetStub{}, "every day", discardLogger()); err == nil {
			t.Fatal("expected parse error")
		}
	})

	t.Run("rejects a nil target", func(t *testing.T) {
		if _, err := New(nil, DefaultSchedule, discardLogger()); err == nil {
			t.Fatal("expected error for nil target")
		}
	})

	t.Run("defaults to the nightly schedule", func(t *testing.T) {
		r, err := New(&targetStub{}, "", discardLogger())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		from := time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)
		want := time.Date(2024, time.January, 3, 0, 5, 0, 0, time.UTC)
		if got := r.Next(from); !got.Equal(want) {
			t.Fatalf("expected next run %v, got %v", want, got)
		}
	})
}

func TestRunner_RunOnce(t *testing.T) {
	t.Run("returns the deleted count", func(t *testing.T) {
		target := &targetStub{n: 3}
		r, _ := New(target, DefaultSchedule, discardLogger())

		n, err := r.RunOnce(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if n != 3 {
			t.Fatalf("expected 3, got %d", n)
		}
	})

	t.Run("propagates target errors", func(t *testing.T) {
		boom := errors.New("boom")
		r, _ := New(&targetStub{err: boom}, DefaultSchedule, discardLogger(), WithTimeout(time.Second))

		if _, err := r.RunOnce(context.Background()); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	})
}

func TestRunner_Run(t *testing.T) {
	target := &targetStub{hit: make(chan struct{}, 1)}
	r, err := New(target, DefaultSchedule, discardLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	select {
	case <-target.hit:
	case <-time.After(5 * time.Second):
		t.Fatal("expected an immediate sweep on start")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
