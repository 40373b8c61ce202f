package domain

// SummaryEntry is one day of the portfolio summary series: total value,
// invested capital and cash, split per currency.
type SummaryEntry struct {
	Date        string  `json:"date"` // YYYY-MM-DD
	TotalARS    float64 `json:"totalARS"`
	TotalUSD    float64 `json:"totalUSD"`
	InvestedARS float64 `json:"investedARS"`
	InvestedUSD float64 `json:"investedUSD"`
	CashARS     float64 `json:"cashARS"`
	CashUSD     float64 `json:"cashUSD"`
}

// IsZero reports whether every numeric field is exactly zero. Leading
// all-zero days are trimmed from series before charting.
func (e SummaryEntry) IsZero() bool {
	return e.TotalARS == 0 && e.TotalUSD == 0 &&
		e.InvestedARS == 0 && e.InvestedUSD == 0 &&
		e.CashARS == 0 && e.CashUSD == 0
}
