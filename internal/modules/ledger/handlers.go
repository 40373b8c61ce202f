package ledger

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mbelardi/finanzas/internal/domain"
	"github.com/mbelardi/finanzas/internal/web"
)

// Handler handles ledger HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new ledger handler
func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "ledger").Logger(),
	}
}

// RegisterRoutes mounts the ledger endpoints under /users/{username}
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users/{username}/portfolio", func(r chi.Router) {
		r.Post("/deposit", h.HandleDeposit)
		r.Put("/deposit/{id}", h.HandleUpdateDeposit)
		r.Delete("/deposit/{id}", h.HandleDeleteDeposit)
		r.Post("/withdraw", h.HandleWithdraw)
		r.Post("/buy", h.HandleBuy)
		r.Post("/sell", h.HandleSell)
		r.Post("/remove", h.HandleRemove)
		r.Put("/trade/{id}", h.HandleUpdateTradeFees)
		r.Post("/positions", h.HandleCreateAmountPosition)
		r.Put("/positions/{id}", h.HandleUpdateAmountPosition)
		r.Delete("/positions/{id}", h.HandleDeleteAmountPosition)
	})
}

func (h *Handler) username(r *http.Request) string {
	return chi.URLParam(r, "username")
}

func decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.Invalidf("invalid request body")
	}
	return nil
}

// HandleDeposit adds a cash deposit
func (h *Handler) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if err := decode(r, &req); err != nil {
		web.Fail(w, err)
		return
	}
	result, err := h.service.Deposit(h.username(r), req)
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusCreated, result)
}

// HandleUpdateDeposit edits a recorded deposit
func (h *Handler) HandleUpdateDeposit(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if err := decode(r, &req); err != nil {
		web.Fail(w, err)
		return
	}
	result, err := h.service.UpdateDeposit(h.username(r), chi.URLParam(r, "id"), req)
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, result)
}

// HandleDeleteDeposit removes a deposit and reverses its credit
func (h *Handler) HandleDeleteDeposit(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.DeleteDeposit(h.username(r), chi.URLParam(r, "id"))
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, result)
}

// HandleWithdraw removes cash from a balance
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req WithdrawRequest
	if err := decode(r, &req); err != nil {
		web.Fail(w, err)
		return
	}
	result, err := h.service.Withdraw(h.username(r), req)
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusCreated, result)
}

// HandleBuy purchases a tradable instrument
func (h *Handler) HandleBuy(w http.ResponseWriter, r *http.Request) {
	var req TradeRequest
	if err := decode(r, &req); err != nil {
		web.Fail(w, err)
		return
	}
	result, err := h.service.Buy(h.username(r), req)
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusCreated, result)
}

// HandleSell disposes part or all of a position
func (h *Handler) HandleSell(w http.ResponseWriter, r *http.Request) {
	var req TradeRequest
	if err := decode(r, &req); err != nil {
		web.Fail(w, err)
		return
	}
	result, err := h.service.Sell(h.username(r), req)
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusCreated, result)
}

type removeRequest struct {
	AssetType domain.AssetType `json:"assetType"`
	Symbol    string           `json:"symbol"`
	Currency  domain.Currency  `json:"currency"`
}

// HandleRemove liquidates a whole position at the latest stored close
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	var req removeRequest
	if err := decode(r, &req); err != nil {
		web.Fail(w, err)
		return
	}
	if req.AssetType == "" {
		req.AssetType = domain.AssetStock
	}
	result, err := h.service.SellAllAtMarket(h.username(r), req.AssetType, req.Symbol, req.Currency)
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, result)
}

// HandleUpdateTradeFees edits the fee fields of a recorded trade
func (h *Handler) HandleUpdateTradeFees(w http.ResponseWriter, r *http.Request) {
	var req FeeUpdateRequest
	if err := decode(r, &req); err != nil {
		web.Fail(w, err)
		return
	}
	result, err := h.service.UpdateTradeFees(h.username(r), chi.URLParam(r, "id"), req)
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, result)
}

// HandleCreateAmountPosition opens an amount-based instrument
func (h *Handler) HandleCreateAmountPosition(w http.ResponseWriter, r *http.Request) {
	var req AmountPositionRequest
	if err := decode(r, &req); err != nil {
		web.Fail(w, err)
		return
	}
	result, err := h.service.CreateAmountPosition(h.username(r), req)
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusCreated, result)
}

// HandleUpdateAmountPosition edits an amount-based instrument
func (h *Handler) HandleUpdateAmountPosition(w http.ResponseWriter, r *http.Request) {
	var req AmountPositionRequest
	if err := decode(r, &req); err != nil {
		web.Fail(w, err)
		return
	}
	result, err := h.service.UpdateAmountPosition(h.username(r), chi.URLParam(r, "id"), req)
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, result)
}

// HandleDeleteAmountPosition closes an amount-based instrument
func (h *Handler) HandleDeleteAmountPosition(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.DeleteAmountPosition(h.username(r), chi.URLParam(r, "id"))
	if err != nil {
		web.Fail(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, result)
}
