package users

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mbelardi/finanzas/internal/domain"
	"github.com/mbelardi/finanzas/internal/web"
)

// Handler handles account HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new user handler
func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "users").Logger(),
	}
}

// RegisterRoutes mounts the account endpoints
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/login", h.HandleLogin)
	r.Get("/users/{username}", h.HandleGet)
	r.Post("/users/{username}/profile", h.HandleSaveProfile)
	r.Get("/users/{username}/strategy", h.HandleStrategy)
	r.Post("/users/{username}/strategy", h.HandleStrategy)
}

// HandleLogin returns the account, creating it on first login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		web.WriteError(w, http.StatusBadRequest, "username is required")
		return
	}

	acc, created, err := h.service.Login(req.Username)
	if err != nil {
		web.Fail(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	web.WriteJSON(w, status, acc)
}

// HandleGet returns the full account payload
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	acc, err := h.service.Get(chi.URLParam(r, "username"))
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, acc)
}

// HandleSaveProfile stores the onboarding survey
func (h *Handler) HandleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var profile domain.InvestorProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		web.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	acc, err := h.service.SaveProfile(chi.URLParam(r, "username"), profile)
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, acc)
}

// HandleStrategy regenerates and returns the investment strategy
func (h *Handler) HandleStrategy(w http.ResponseWriter, r *http.Request) {
	strategy, err := h.service.Strategy(chi.URLParam(r, "username"))
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, strategy)
}
