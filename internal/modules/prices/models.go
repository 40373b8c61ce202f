// Package prices is the pricing gateway: it stores daily close snapshots
// in a local SQLite database, refreshes them from Yahoo Finance, and
// resolves point-in-time prices for the valuation engine.
package prices

import "github.com/mbelardi/finanzas/internal/domain"

// DailyPrice represents one stored daily OHLCV snapshot
type DailyPrice struct {
	Symbol string  `json:"symbol"`
	Date   string  `json:"date"` // YYYY-MM-DD
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume *int64  `json:"volume,omitempty"`
}

// SymbolRef identifies a priceable instrument held in some account
type SymbolRef struct {
	AssetType domain.AssetType `json:"assetType"`
	Symbol    string           `json:"symbol"`
	Market    domain.Market    `json:"market,omitempty"`
}

// Key returns the identifier snapshots are stored under
func (r SymbolRef) Key() string {
	return r.Symbol
}
