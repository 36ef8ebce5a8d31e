package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/okcoin/okcoin-api/internal/pkg/logger"
)

// PresenceTracker records that a user was active just now.
type PresenceTracker interface {
	MarkOnline(ctx context.Context, userID string) error
}

// Presence marks the authenticated user as online. Must run after Auth.
// Tracking failures never fail the request.
func Presence(tracker PresenceTracker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := GetUserID(r.Context()); id != uuid.Nil {
				if err := tracker.MarkOnline(r.Context(), id.String()); err != nil {
					logger.FromContext(r.Context()).Warn().Err(err).Msg("Failed to record presence")
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
