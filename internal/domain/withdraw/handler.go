package withdraw

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/okcoin/okcoin-api/internal/middleware"
	"github.com/okcoin/okcoin-api/internal/pkg/errorhandler"
	"github.com/okcoin/okcoin-api/internal/pkg/response"
)

// CreateRequest is the body of POST /withdrawals. Amount is nanoton.
type CreateRequest struct {
	Amount int64 `json:"amount"`
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /withdrawals
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req CreateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request data")
		return
	}
	if _, err := h.service.Create(r.Context(), userID, req.Amount); err != nil {
		errorhandler.Handle(r.Context(), w, "withdraw.create", err)
		return
	}
	response.OKMessage(w, "Withdraw request submitted successfully", true)
}

// List handles GET /withdrawals
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	views, err := h.service.List(r.Context(), userID)
	if err != nil {
		errorhandler.Handle(r.Context(), w, "withdraw.list", err)
		return
	}
	response.OK(w, views)
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	return r
}
