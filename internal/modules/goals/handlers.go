package goals

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mbelardi/finanzas/internal/web"
)

// Handler handles goal HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new goal handler
func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "goals").Logger(),
	}
}

// RegisterRoutes mounts the goal endpoints under /users/{username}
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users/{username}/goals", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/projection", h.HandleProjection)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
	})
}

func (h *Handler) decode(r *http.Request, req *GoalRequest) error {
	return json.NewDecoder(r.Body).Decode(req)
}

// HandleList returns the account's goals
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	goals, err := h.service.List(chi.URLParam(r, "username"))
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, goals)
}

// HandleCreate adds a goal
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req GoalRequest
	if err := h.decode(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	goal, err := h.service.Create(chi.URLParam(r, "username"), req)
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusCreated, goal)
}

// HandleUpdate replaces a goal's fields
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req GoalRequest
	if err := h.decode(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	goal, err := h.service.Update(chi.URLParam(r, "username"), chi.URLParam(r, "id"), req)
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, goal)
}

// HandleDelete removes a goal
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(chi.URLParam(r, "username"), chi.URLParam(r, "id")); err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// HandleProjection returns the fixed-income projection series
func (h *Handler) HandleProjection(w http.ResponseWriter, r *http.Request) {
	points, err := h.service.Projection(chi.URLParam(r, "username"))
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, points)
}
