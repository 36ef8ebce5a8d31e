package stats

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okcoin/okcoin-api/internal/pkg/cache"
)

type fakeCounters struct {
	mu     sync.Mutex
	ints   map[string]int64
	active map[time.Duration]int64
	err    error
}

func (c *fakeCounters) GetInt(_ context.Context, key string) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, false, c.err
	}
	v, ok := c.ints[key]
	return v, ok, nil
}

func (c *fakeCounters) SetIntIfAbsent(_ context.Context, key string, value int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.ints[key]; !ok {
		c.ints[key] = value
	}
	return nil
}

func (c *fakeCounters) CountActiveSince(_ context.Context, window time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active[window], nil
}

type fakeUserCounter struct {
	n     int64
	calls int
}

func (f *fakeUserCounter) Count(context.Context) (int64, error) {
	f.calls++
	return f.n, nil
}

func TestSnapshotReadsCounters(t *testing.T) {
	counters := &fakeCounters{
		ints: map[string]int64{
			cache.KeyTotalUsers:         10,
			cache.KeyTotalSharedBalance: 2500,
			cache.KeyTotalTouch:         900,
		},
		active: map[time.Duration]int64{OnlineWindow: 3, DailyWindow: 7},
	}
	users := &fakeUserCounter{n: 99}

	snap, err := NewService(counters, users).Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	want := Snapshot{TotalUsers: 10, TotalSharedBalance: 2500, TotalTouch: 900, DailyUsers: 7, OnlineUsers: 3}
	if *snap != want {
		t.Fatalf("snapshot = %+v, want %+v", *snap, want)
	}
	if users.calls != 0 {
		t.Fatalf("database counted %d times, want 0", users.calls)
	}
}

func TestSnapshotSeedsMissingUserTotal(t *testing.T) {
	counters := &fakeCounters{ints: map[string]int64{}, active: map[time.Duration]int64{}}
	users := &fakeUserCounter{n: 42}
	svc := NewService(counters, users)

	snap, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.TotalUsers != 42 {
		t.Fatalf("total users = %d, want 42", snap.TotalUsers)
	}
	if counters.ints[cache.KeyTotalUsers] != 42 {
		t.Fatalf("counter not seeded: %v", counters.ints)
	}

	if _, err := svc.Snapshot(context.Background()); err != nil {
		t.Fatalf("second Snapshot: %v", err)
	}
	if users.calls != 1 {
		t.Fatalf("database counted %d times, want 1", users.calls)
	}
}

func TestSnapshotPropagatesStoreError(t *testing.T) {
	counters := &fakeCounters{err: errors.New("redis down")}
	if _, err := NewService(counters, &fakeUserCounter{}).Snapshot(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestHubPushesSnapshotToSubscribers(t *testing.T) {
	counters := &fakeCounters{
		ints:   map[string]int64{cache.KeyTotalUsers: 5, cache.KeyTotalTouch: 11},
		active: map[time.Duration]int64{OnlineWindow: 1},
	}
	svc := NewService(counters, &fakeUserCounter{})
	hub := NewHub(svc)
	hub.interval = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	h := NewHandler(svc, hub, nil)
	srv := httptest.NewServer(http.HandlerFunc(h.WebSocket))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(msg, &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if snap.TotalUsers != 5 || snap.TotalTouch != 11 || snap.OnlineUsers != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestHubRegisterAfterStopClosesSend(t *testing.T) {
	hub := NewHub(NewService(&fakeCounters{}, &fakeUserCounter{}))
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	conn := &Connection{Send: make(chan []byte, 1)}
	hub.Register(conn)
	if _, ok := <-conn.Send; ok {
		t.Fatal("send channel should be closed")
	}
	hub.Unregister(conn)
}
