package chain

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okcoin/okcoin-api/internal/middleware"
	"github.com/okcoin/okcoin-api/internal/pkg/errorhandler"
	"github.com/okcoin/okcoin-api/internal/pkg/response"
)

type Handler struct {
	status *StatusService
}

func NewHandler(status *StatusService) *Handler {
	return &Handler{status: status}
}

// Status handles GET /ton/status
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	telegramID := middleware.GetTelegramID(r.Context())
	if telegramID == 0 {
		response.Unauthorized(w, "unauthorized")
		return
	}

	tx, err := h.status.Check(r.Context(), telegramID, r.URL.Query().Get("timestamp"))
	if err != nil {
		errorhandler.Handle(r.Context(), w, "chain.status", err)
		return
	}

	if tx.Status == StatusSuccess {
		response.OKMessage(w, "Transaction successful", true)
		return
	}
	response.OKMessage(w, "Transaction failed", false)
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/status", h.Status)
	return r
}
