package prices

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mbelardi/finanzas/internal/web"
)

// Handler handles price HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new prices handler
func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "prices").Logger(),
	}
}

// RegisterRoutes mounts the price endpoints
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/prices", func(r chi.Router) {
		r.Get("/{symbol}/history", h.HandleHistory)
		r.Get("/{symbol}/latest", h.HandleLatest)
		r.Post("/sync", h.HandleSync)
	})
}

// HandleHistory returns stored daily bars for a symbol
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			web.WriteError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	history, err := h.service.History(symbol, limit)
	if err != nil {
		web.Fail(w, err)
		return
	}
	if history == nil {
		history = []DailyPrice{}
	}
	web.WriteJSON(w, http.StatusOK, history)
}

// HandleLatest returns the most recent stored close for a symbol
func (h *Handler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	price, err := h.service.Store().LatestClose(symbol)
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"close":  price,
	})
}

// HandleSync triggers an immediate refresh of all held symbols
func (h *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	synced, err := h.service.SyncAll()
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"synced": synced,
	})
}
