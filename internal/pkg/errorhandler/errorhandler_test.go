package errorhandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okcoin/okcoin-api/internal/pkg/apperr"
	"github.com/okcoin/okcoin-api/internal/pkg/response"
)

func TestHandleMapsKinds(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", apperr.New(apperr.ErrNotFound, "User is not found"), http.StatusNotFound, "User is not found"},
		{"conflict wrapped", fmt.Errorf("create: %w", apperr.New(apperr.ErrConflict, "pending")), http.StatusConflict, "pending"},
		{"insufficient", apperr.New(apperr.ErrInsufficientFunds, "Balance is not enough"), http.StatusBadRequest, "Balance is not enough"},
		{"upstream", apperr.New(apperr.ErrUpstreamUnavailable, "chain api down"), http.StatusServiceUnavailable, "chain api down"},
		{"raw error", errors.New("pq: connection refused"), http.StatusInternalServerError, internalMessage},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Handle(context.Background(), rec, "test", tc.err)

			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rec.Code)
			}
			var body response.Response
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Success {
				t.Fatalf("expected success=false")
			}
			if body.Message != tc.message {
				t.Fatalf("expected message %q, got %q", tc.message, body.Message)
			}
		})
	}
}
