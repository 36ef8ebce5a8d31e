package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/tap", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence: %v", codes)
	}
}

func TestRateLimiterKeysByUser(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/tap", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		req = req.WithContext(WithUser(req.Context(), uuid.New(), int64(i+1)))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("user %d: expected 200, got %d", i, w.Code)
		}
	}
}

func TestRateLimiterCleanupDropsIdle(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Now()
	rl.getLimiter("a", now.Add(-time.Hour))
	rl.getLimiter("b", now)

	if removed := rl.Cleanup(now); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
}

type presenceSpy struct{ ids []string }

func (p *presenceSpy) MarkOnline(_ context.Context, userID string) error {
	p.ids = append(p.ids, userID)
	return nil
}

func TestPresenceMarksAuthenticatedUser(t *testing.T) {
	spy := &presenceSpy{}
	h := Presence(spy)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	anon := httptest.NewRequest(http.MethodGet, "/me", nil)
	h.ServeHTTP(httptest.NewRecorder(), anon)

	id := uuid.New()
	authed := anon.WithContext(WithUser(anon.Context(), id, 9))
	h.ServeHTTP(httptest.NewRecorder(), authed)

	if len(spy.ids) != 1 || spy.ids[0] != id.String() {
		t.Fatalf("unexpected presence calls: %v", spy.ids)
	}
}
