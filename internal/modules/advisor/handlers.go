package advisor

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mbelardi/finanzas/internal/domain"
	"github.com/mbelardi/finanzas/internal/web"
)

// Handler handles advisor HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new advisor handler
func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "advisor").Logger(),
	}
}

// RegisterRoutes mounts the advisor endpoints
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users/{username}/advisor", func(r chi.Router) {
		r.Get("/allocation", h.HandleAllocation)
		r.Get("/bonds", h.HandleBonds)
	})
	r.Post("/advisor/allocation", h.HandleAllocationPreview)
}

// HandleAllocation suggests an allocation from the stored profile
func (h *Handler) HandleAllocation(w http.ResponseWriter, r *http.Request) {
	alloc, err := h.service.AllocationFor(chi.URLParam(r, "username"))
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, alloc)
}

// HandleAllocationPreview suggests an allocation for a profile sent in
// the body, without touching any account. Used during onboarding before
// the survey is saved.
func (h *Handler) HandleAllocationPreview(w http.ResponseWriter, r *http.Request) {
	var profile domain.InvestorProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		web.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	web.WriteJSON(w, http.StatusOK, SuggestAllocation(profile))
}

// HandleBonds recommends bonds for the account's risk profile, with an
// optional profile query override.
func (h *Handler) HandleBonds(w http.ResponseWriter, r *http.Request) {
	override := RiskProfile(r.URL.Query().Get("profile"))
	recs, err := h.service.BondsFor(chi.URLParam(r, "username"), override)
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, recs)
}
