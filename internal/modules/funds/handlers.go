package funds

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mbelardi/finanzas/internal/web"
)

// Handler handles fund HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new fund handler
func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "funds").Logger(),
	}
}

// RegisterRoutes mounts the fund endpoints
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/funds", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/tna", h.HandleCategoryTNA)
		r.Post("/refresh", h.HandleRefresh)
	})
}

// HandleList returns fund rows with optional categoria/search filters
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := h.service.List(r.Context(), q.Get("categoria"), q.Get("search"), q.Get("force") == "true")
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data":  rows,
		"stats": h.service.Stats(r.Context()),
	})
}

// HandleCategoryTNA returns the mean TNA across one fund category
func (h *Handler) HandleCategoryTNA(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("categoria")
	if category == "" {
		web.WriteError(w, http.StatusBadRequest, "categoria is required")
		return
	}

	mean, count, err := h.service.MeanTNAByCategory(r.Context(), category)
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categoria": category,
		"meanTNA":   mean,
		"funds":     count,
	})
}

// HandleRefresh forces a scrape
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Refresh(r.Context()); err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, h.service.Stats(r.Context()))
}
