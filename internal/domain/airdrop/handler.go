package airdrop

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/okcoin/okcoin-api/internal/middleware"
	"github.com/okcoin/okcoin-api/internal/pkg/errorhandler"
	"github.com/okcoin/okcoin-api/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Get handles GET /airdrop
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	view, err := h.service.Get(r.Context(), userID)
	if err != nil {
		errorhandler.Handle(r.Context(), w, "airdrop.get", err)
		return
	}
	response.OK(w, view)
}

// Confirm handles POST /airdrop/confirm
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	amount, err := h.service.ConfirmAirdrop(r.Context(), userID)
	if err != nil {
		errorhandler.Handle(r.Context(), w, "airdrop.confirm", err)
		return
	}
	response.OKMessage(w, "Congratulations on receiving airdrop tokens!", amount)
}

// PointReward handles POST /airdrop/point-reward
func (h *Handler) PointReward(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	points, err := h.service.ClaimPointReward(r.Context(), userID)
	if err != nil {
		errorhandler.Handle(r.Context(), w, "airdrop.point_reward", err)
		return
	}
	response.OKMessage(w, "Congratulations on receiving your bonus points!", points)
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Get)
	r.Post("/confirm", h.Confirm)
	r.Post("/point-reward", h.PointReward)
	return r
}
