package valuation

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mbelardi/finanzas/internal/web"
)

// Handler handles valuation HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new valuation handler
func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "valuation").Logger(),
	}
}

// RegisterRoutes mounts the valuation endpoints under /users/{username}
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users/{username}/valuation", func(r chi.Router) {
		r.Get("/", h.HandleSnapshot)
		r.Get("/history", h.HandleHistory)
		r.Get("/gains", h.HandleGains)
		r.Get("/return", h.HandleTrailingReturn)
		r.Get("/categories", h.HandleCategoryHistory)
		r.Get("/benchmarks", h.HandleBenchmarks)
		r.Get("/performance", h.HandlePerformance)
	})
	r.Get("/users/{username}/history", h.HandleSavedHistory)
}

// HandleSnapshot returns the instantaneous portfolio valuation
func (h *Handler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot(chi.URLParam(r, "username"))
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, snap)
}

// HandleHistory returns the daily summary series
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			web.WriteError(w, http.StatusBadRequest, "days must be a non-negative integer")
			return
		}
		days = n
	}

	series, err := h.service.History(chi.URLParam(r, "username"), days)
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, series)
}

// HandleGains returns the cumulative net gains series
func (h *Handler) HandleGains(w http.ResponseWriter, r *http.Request) {
	gains, err := h.service.Gains(chi.URLParam(r, "username"))
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, gains)
}

// HandleSavedHistory returns the persisted daily summary records
func (h *Handler) HandleSavedHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.SavedHistory(chi.URLParam(r, "username"))
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, entries)
}

// HandleCategoryHistory returns the daily per-category value series
func (h *Handler) HandleCategoryHistory(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			web.WriteError(w, http.StatusBadRequest, "days must be a non-negative integer")
			return
		}
		days = n
	}

	series, err := h.service.CategoryHistory(chi.URLParam(r, "username"), days)
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, series)
}

// HandleBenchmarks returns the benchmark comparison
func (h *Handler) HandleBenchmarks(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "1y"
	}

	cmp, err := h.service.Benchmarks(chi.URLParam(r, "username"), period)
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, cmp)
}

// HandlePerformance returns annualized, IRR and TWR figures per currency
func (h *Handler) HandlePerformance(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Performance(chi.URLParam(r, "username"))
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, report)
}

// HandleTrailingReturn returns the portfolio's trailing-period return
func (h *Handler) HandleTrailingReturn(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "1y"
	}

	pct, err := h.service.TrailingReturn(chi.URLParam(r, "username"), period)
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"period":    period,
		"returnPct": pct,
	})
}
