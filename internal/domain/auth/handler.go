package auth

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okcoin/okcoin-api/internal/pkg/errorhandler"
	"github.com/okcoin/okcoin-api/internal/pkg/response"
	"github.com/okcoin/okcoin-api/internal/pkg/validator"
)

// Handler handles auth HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates auth handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// TelegramLogin handles POST /auth/telegram
func (h *Handler) TelegramLogin(w http.ResponseWriter, r *http.Request) {
	var req TelegramLoginRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}

	result, err := h.service.TelegramLogin(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrInvalidInitData) {
			response.Unauthorized(w, "Invalid Telegram init data")
			return
		}
		errorhandler.Handle(r.Context(), w, "auth.telegram_login", err)
		return
	}
	response.OK(w, result)
}

// Routes returns auth router
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/telegram", h.TelegramLogin)
	return r
}
