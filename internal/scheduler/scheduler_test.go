package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestEveryRunsRepeatedly(t *testing.T) {
	s := New()
	var runs int32
	s.Every("count", 10*time.Millisecond, func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	})

	s.Start(context.Background())
	waitFor(t, func() bool { return atomic.LoadInt32(&runs) >= 3 })
	s.Stop()

	after := atomic.LoadInt32(&runs)
	time.Sleep(30 * time.Millisecond)
	if atomic.LoadInt32(&runs) != after {
		t.Fatal("loop kept running after Stop")
	}
}

func TestFailingJobDoesNotStopOthers(t *testing.T) {
	s := New()
	var panics, errs, healthy int32
	s.Every("panics", 10*time.Millisecond, func(context.Context) error {
		atomic.AddInt32(&panics, 1)
		panic("boom")
	})
	s.Every("errors", 10*time.Millisecond, func(context.Context) error {
		atomic.AddInt32(&errs, 1)
		return errors.New("upstream down")
	})
	s.Every("healthy", 10*time.Millisecond, func(context.Context) error {
		atomic.AddInt32(&healthy, 1)
		return nil
	})

	s.Start(context.Background())
	defer s.Stop()

	waitFor(t, func() bool {
		return atomic.LoadInt32(&panics) >= 2 && atomic.LoadInt32(&errs) >= 2 && atomic.LoadInt32(&healthy) >= 2
	})
}

func TestStopCancelsRunningIteration(t *testing.T) {
	s := New()
	started := make(chan struct{})
	s.Every("slow", time.Hour, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})

	s.Start(context.Background())
	<-started

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestCronRejectsInvalidSpec(t *testing.T) {
	s := New()
	if err := s.Cron("bad", "not a spec", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected error for invalid spec")
	}
	if err := s.Cron("daily", "0 0 * * *", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("valid spec rejected: %v", err)
	}
}

func TestStopWithoutStart(t *testing.T) {
	New().Stop()
}
