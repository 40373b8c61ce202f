package indicators

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mbelardi/finanzas/internal/storage"
	"github.com/mbelardi/finanzas/internal/web"
)

// Handler handles indicator HTTP requests
type Handler struct {
	service  *Service
	accounts *storage.AccountStore
	log      zerolog.Logger
}

// NewHandler creates a new indicator handler
func NewHandler(service *Service, accounts *storage.AccountStore) *Handler {
	return &Handler{
		service:  service,
		accounts: accounts,
		log:      log.With().Str("handler", "indicators").Logger(),
	}
}

// RegisterRoutes mounts the indicator endpoints
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/indicators/{symbol}", h.HandleIndicators)
	r.Get("/users/{username}/signals", h.HandleSignals)
}

// HandleIndicators returns the indicator set for one symbol
func (h *Handler) HandleIndicators(w http.ResponseWriter, r *http.Request) {
	set, err := h.service.ForSymbol(chi.URLParam(r, "symbol"))
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, set)
}

// HandleSignals returns trade signals for every symbol an account holds
func (h *Handler) HandleSignals(w http.ResponseWriter, r *http.Request) {
	acc, err := h.accounts.Load(chi.URLParam(r, "username"))
	if err != nil {
		web.Fail(w, err)
		return
	}

	entries := h.service.SignalsFor(acc)
	if entries == nil {
		entries = []SignalEntry{}
	}
	web.WriteJSON(w, http.StatusOK, entries)
}
