package user

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/okcoin/okcoin-api/internal/middleware"
	"github.com/okcoin/okcoin-api/internal/pkg/errorhandler"
	"github.com/okcoin/okcoin-api/internal/pkg/response"
)

// Handler handles user HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates user handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Me handles GET /users/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	profile, err := h.service.Profile(r.Context(), userID)
	if err != nil {
		errorhandler.Handle(r.Context(), w, "user.me", err)
		return
	}

	response.OK(w, profile)
}

// Referrals handles GET /users/me/referrals
func (h *Handler) Referrals(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	refs, err := h.service.Referrals(r.Context(), userID, limit)
	if err != nil {
		errorhandler.Handle(r.Context(), w, "user.referrals", err)
		return
	}

	response.OK(w, refs)
}

// Routes returns user routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/me", h.Me)
	r.Get("/me/referrals", h.Referrals)
	return r
}
