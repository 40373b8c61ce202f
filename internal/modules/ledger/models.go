// Package ledger implements the transaction ledger and position book:
// every account mutation appends exactly one transaction and applies the
// matching cash and position delta, atomically.
package ledger

import "github.com/mbelardi/finanzas/internal/domain"

// Default trading fees applied when a request does not specify them
const (
	DefaultCommissionPct  = 1.0
	DefaultPurchaseFeePct = 0.05
)

// Quantities below this threshold are treated as fully drained positions
const minQuantity = 1e-6

// DepositRequest adds or edits a cash deposit
type DepositRequest struct {
	Amount   float64         `json:"amount"`
	Currency domain.Currency `json:"currency"`
	Date     string          `json:"date,omitempty"`
}

// WithdrawRequest removes cash from a balance
type WithdrawRequest struct {
	Amount   float64         `json:"amount"`
	Currency domain.Currency `json:"currency"`
	Date     string          `json:"date,omitempty"`
}

// TradeRequest buys or sells a tradable instrument
type TradeRequest struct {
	AssetType      domain.AssetType `json:"assetType"`
	Symbol         string           `json:"symbol,omitempty"`
	Ticker         string           `json:"ticker,omitempty"`
	Quantity       float64          `json:"quantity"`
	Price          float64          `json:"price"`
	Currency       domain.Currency  `json:"currency"`
	Market         domain.Market    `json:"market,omitempty"`
	CommissionPct  *float64         `json:"commissionPct,omitempty"`
	PurchaseFeePct *float64         `json:"purchaseFeePct,omitempty"`
}

// Identifier returns the instrument key of the trade
func (r TradeRequest) Identifier() string {
	if r.Ticker != "" {
		return r.Ticker
	}
	return r.Symbol
}

// FeeUpdateRequest edits the fee fields of a recorded trade. A nil field
// is left as-is; a value <= 0 clears the fee.
type FeeUpdateRequest struct {
	CommissionPct  *float64 `json:"commissionPct,omitempty"`
	PurchaseFeePct *float64 `json:"purchaseFeePct,omitempty"`
}

// AmountPositionRequest creates or edits an amount-based instrument
type AmountPositionRequest struct {
	AssetType  domain.AssetType `json:"assetType"`
	Provider   string           `json:"provider,omitempty"`
	Name       string           `json:"name,omitempty"`
	Category   string           `json:"category,omitempty"`
	Amount     float64          `json:"amount"`
	AnnualRate float64          `json:"annualRate"`
	TermDays   int              `json:"termDays,omitempty"`
	Currency   domain.Currency  `json:"currency"`
}

// Result is the post-mutation account snapshot returned to the client
type Result struct {
	Cash         domain.CashBalances  `json:"cash"`
	Positions    []domain.Position    `json:"positions"`
	Transactions []domain.Transaction `json:"transactions"`
}

func resultFrom(acc *domain.Account) Result {
	return Result{
		Cash:         acc.Cash,
		Positions:    acc.Positions,
		Transactions: acc.Transactions,
	}
}
