package ledger

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/okcoin/okcoin-api/internal/middleware"
	"github.com/okcoin/okcoin-api/internal/pkg/errorhandler"
	"github.com/okcoin/okcoin-api/internal/pkg/response"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /transactions
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.repo.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		errorhandler.Handle(r.Context(), w, "ledger.list", err)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}

	response.OK(w, entries)
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	return r
}
