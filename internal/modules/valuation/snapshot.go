package valuation

import (
	"gonum.org/v1/gonum/stat"

	"github.com/mbelardi/finanzas/internal/domain"
	"github.com/mbelardi/finanzas/pkg/formulas"
)

// CurrencyAmounts is a value split across the two cash currencies
type CurrencyAmounts struct {
	ARS float64 `json:"ARS"`
	USD float64 `json:"USD"`
}

func (c *CurrencyAmounts) add(cur domain.Currency, v float64) {
	if cur == domain.USD {
		c.USD += v
		return
	}
	c.ARS += v
}

// Snapshot is the instantaneous portfolio valuation returned by the API
type Snapshot struct {
	Date          string                     `json:"date"`
	Total         CurrencyAmounts            `json:"total"`
	Invested      CurrencyAmounts            `json:"invested"`
	Cash          CurrencyAmounts            `json:"cash"`
	Gains         CurrencyAmounts            `json:"gains"`
	Categories    map[string]CurrencyAmounts `json:"categories"`
	AnnualizedPct CurrencyAmounts            `json:"annualizedReturnPct"`
}

// categoryOf maps an asset type to its reporting bucket
func categoryOf(t domain.AssetType) string {
	switch t {
	case domain.AssetStock:
		return "stocks"
	case domain.AssetBond:
		return "bonds"
	case domain.AssetCrypto:
		return "crypto"
	case domain.AssetFixedTermDeposit, domain.AssetCaucion:
		return "deposits"
	case domain.AssetRealEstate:
		return "realEstate"
	case domain.AssetMutualFund:
		return "funds"
	}
	return "other"
}

// Snapshot values the account as of today: tradables at their latest
// stored close, amount instruments at principal plus accrued interest.
func (e *Engine) Snapshot(acc *domain.Account) Snapshot {
	today := e.today()
	snap := Snapshot{
		Date:       today.Format("2006-01-02"),
		Categories: make(map[string]CurrencyAmounts),
	}

	snap.Cash.ARS = acc.Cash.ARS
	snap.Cash.USD = acc.Cash.USD
	snap.Total = snap.Cash

	for _, pos := range acc.Positions {
		var value float64
		if pos.Type.IsTradable() {
			price, err := e.prices.LatestClose(pos.Identifier())
			if err != nil || price <= 0 {
				continue
			}
			value = pos.Quantity * price
		} else {
			inst := instrumentFromPosition(pos)
			value = inst.valueOn(today)
		}

		cat := snap.Categories[categoryOf(pos.Type)]
		cat.add(pos.Currency, value)
		snap.Categories[categoryOf(pos.Type)] = cat
		snap.Total.add(pos.Currency, value)
	}

	for _, tx := range acc.Transactions {
		ars, usd := investedDelta(tx)
		snap.Invested.ARS += ars
		snap.Invested.USD += usd
	}

	series := e.SummaryHistory(acc)
	if gains := CumulativeGains(series); len(gains) > 0 {
		last := gains[len(gains)-1]
		snap.Gains = CurrencyAmounts{ARS: last.GainsARS, USD: last.GainsUSD}
	}
	if len(series) > 1 {
		first, last := series[0], series[len(series)-1]
		firstDate, err1 := domain.Day(first.Date)
		lastDate, err2 := domain.Day(last.Date)
		if err1 == nil && err2 == nil {
			snap.AnnualizedPct = CurrencyAmounts{
				ARS: formulas.AnnualizedReturn(first.TotalARS, last.TotalARS, firstDate, lastDate),
				USD: formulas.AnnualizedReturn(first.TotalUSD, last.TotalUSD, firstDate, lastDate),
			}
		}
	}

	return snap
}

// CurrentTotals returns today's per-currency portfolio totals
func (e *Engine) CurrentTotals(acc *domain.Account) (ars, usd float64) {
	snap := e.Snapshot(acc)
	return snap.Total.ARS, snap.Total.USD
}

func instrumentFromPosition(pos domain.Position) *instrument {
	inst := &instrument{
		id:       pos.ID,
		typ:      pos.Type,
		amount:   pos.Amount,
		rate:     pos.AnnualRate,
		currency: pos.Currency,
	}
	if pos.StartDate != "" {
		if d, err := domain.Day(pos.StartDate); err == nil {
			inst.start = d
		}
	}
	if pos.MaturityDate != "" {
		if d, err := domain.Day(pos.MaturityDate); err == nil {
			inst.maturity = d
		}
	}
	return inst
}

// TrailingReturn computes the portfolio's own trailing return over a
// lookback window: per held symbol, the percentage change between the
// latest snapshot and the latest snapshot strictly before the cutoff,
// averaged unweighted across symbols. Symbols with fewer than two
// usable points are excluded; no usable symbol at all yields exactly 0.
func (e *Engine) TrailingReturn(acc *domain.Account, lookbackDays int) float64 {
	cutoff := e.today().AddDate(0, 0, -lookbackDays).Format("2006-01-02")

	var changes []float64
	seen := make(map[string]bool)
	for _, pos := range acc.Positions {
		if !pos.Type.IsTradable() || pos.Quantity <= 0 {
			continue
		}
		symbol := pos.Identifier()
		if seen[symbol] {
			continue
		}
		seen[symbol] = true

		latest, err := e.prices.LatestClose(symbol)
		if err != nil || latest <= 0 {
			continue
		}
		past, err := e.prices.LatestCloseBefore(symbol, cutoff)
		if err != nil || past <= 0 {
			continue
		}
		changes = append(changes, (latest-past)/past*100)
	}

	if len(changes) == 0 {
		return 0
	}
	return stat.Mean(changes, nil)
}

// LookbackDays translates an API period token into calendar days
func LookbackDays(period string) (int, error) {
	switch period {
	case "6m":
		return 182, nil
	case "1y":
		return 365, nil
	case "3y":
		return 1095, nil
	}
	return 0, domain.Invalidf("unknown period %q, want 6m, 1y or 3y", period)
}
