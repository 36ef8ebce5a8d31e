package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/okcoin/okcoin-api/internal/config"
	"github.com/okcoin/okcoin-api/internal/domain/airdrop"
	"github.com/okcoin/okcoin-api/internal/domain/auth"
	"github.com/okcoin/okcoin-api/internal/domain/chain"
	"github.com/okcoin/okcoin-api/internal/domain/ledger"
	"github.com/okcoin/okcoin-api/internal/domain/stats"
	"github.com/okcoin/okcoin-api/internal/domain/tapping"
	"github.com/okcoin/okcoin-api/internal/domain/task"
	"github.com/okcoin/okcoin-api/internal/domain/user"
	"github.com/okcoin/okcoin-api/internal/domain/withdraw"
	"github.com/okcoin/okcoin-api/internal/middleware"
	"github.com/okcoin/okcoin-api/internal/pkg/jwt"
	"github.com/okcoin/okcoin-api/internal/pkg/metrics"
	"github.com/okcoin/okcoin-api/internal/pkg/response"
)

type routerDeps struct {
	jwt      *jwt.Service
	presence middleware.PresenceTracker
	limiter  *middleware.RateLimiter

	auth     *auth.Handler
	users    *user.Handler
	tapping  *tapping.Handler
	tasks    *task.Handler
	withdraw *withdraw.Handler
	ledger   *ledger.Handler
	chain    *chain.Handler
	stats    *stats.Handler
	airdrop  *airdrop.Handler
}

func newRouter(cfg *config.Config, d routerDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]string{"status": "ok"})
	})
	if cfg.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler())
	}
	r.Get("/ws/stats", d.stats.WebSocket)

	authMiddleware := middleware.Auth(d.jwt)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimw.Compress(5))

		r.Mount("/auth", d.auth.Routes())
		r.Mount("/stats", d.stats.Routes())

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			if d.presence != nil {
				r.Use(middleware.Presence(d.presence))
			}
			if d.limiter != nil {
				r.Use(d.limiter.Handler)
			}

			d.tapping.Routes(r)
			r.Mount("/users", d.users.Routes())
			r.Mount("/tasks", d.tasks.Routes())
			r.Mount("/withdrawals", d.withdraw.Routes())
			r.Mount("/transactions", d.ledger.Routes())
			r.Mount("/ton", d.chain.Routes())
			r.Mount("/airdrop", d.airdrop.Routes())
		})
	})

	return r
}
