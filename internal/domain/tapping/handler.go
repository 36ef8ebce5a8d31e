package tapping

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/okcoin/okcoin-api/internal/domain/energy"
	"github.com/okcoin/okcoin-api/internal/middleware"
	"github.com/okcoin/okcoin-api/internal/pkg/errorhandler"
	"github.com/okcoin/okcoin-api/internal/pkg/response"
	"github.com/okcoin/okcoin-api/internal/pkg/validator"
)

// Handler handles tapping and boost HTTP requests
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Tap handles POST /tap
func (h *Handler) Tap(w http.ResponseWriter, r *http.Request) {
	userID, req, ok := h.tapRequest(w, r)
	if !ok {
		return
	}
	out, err := h.service.Tap(r.Context(), userID, req.Count, req.StartTime)
	h.respond(w, r, "tapping.tap", out, err)
}

// InfinityTap handles POST /tap/infinity
func (h *Handler) InfinityTap(w http.ResponseWriter, r *http.Request) {
	userID, req, ok := h.tapRequest(w, r)
	if !ok {
		return
	}
	out, err := h.service.InfinityTap(r.Context(), userID, req.Count)
	h.respond(w, r, "tapping.infinity_tap", out, err)
}

// RefillEnergy handles POST /energy/refill
func (h *Handler) RefillEnergy(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}
	out, err := h.service.RefillEnergy(r.Context(), userID)
	h.respond(w, r, "tapping.refill", out, err)
}

// ClaimBot handles POST /bot/claim
func (h *Handler) ClaimBot(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}
	out, err := h.service.ClaimBot(r.Context(), userID)
	h.respond(w, r, "tapping.claim_bot", out, err)
}

// Upgrade handles POST /boosts/{type}/upgrade
func (h *Handler) Upgrade(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	req := UpgradeRequest{Type: chi.URLParam(r, "type")}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}

	out, err := h.service.Upgrade(r.Context(), userID, energy.BoostType(req.Type))
	h.respond(w, r, "tapping.upgrade", out, err)
}

// Boosts handles GET /boosts
func (h *Handler) Boosts(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	views, err := h.service.Catalog(r.Context(), userID)
	if err != nil {
		errorhandler.Handle(r.Context(), w, "tapping.boosts", err)
		return
	}
	response.OK(w, views)
}

func (h *Handler) tapRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, TapRequest, bool) {
	var req TapRequest
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return uuid.Nil, req, false
	}
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return uuid.Nil, req, false
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return uuid.Nil, req, false
	}
	return userID, req, true
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, op string, out *Outcome, err error) {
	if err != nil {
		errorhandler.Handle(r.Context(), w, op, err)
		return
	}
	response.OKMessage(w, out.Message, out.Profile)
}

// Routes mounts the tapping endpoints on an authenticated router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/tap", h.Tap)
	r.Post("/tap/infinity", h.InfinityTap)
	r.Post("/energy/refill", h.RefillEnergy)
	r.Post("/bot/claim", h.ClaimBot)
	r.Get("/boosts", h.Boosts)
	r.Post("/boosts/{type}/upgrade", h.Upgrade)
}
