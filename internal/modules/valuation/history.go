package valuation

import (
	"github.com/mbelardi/finanzas/internal/domain"
	"github.com/mbelardi/finanzas/pkg/formulas"
)

// CategoryEntry is one day of the per-category value series
type CategoryEntry struct {
	Date       string                     `json:"date"`
	Categories map[string]CurrencyAmounts `json:"categories"`
	Total      CurrencyAmounts            `json:"totalValue"`
}

// CategoryHistory builds a daily series of portfolio value bucketed by
// asset category, with cash reported as its own bucket. Leading days
// with zero total are trimmed like the summary series.
func (e *Engine) CategoryHistory(acc *domain.Account) []CategoryEntry {
	if len(acc.Transactions) == 0 {
		return []CategoryEntry{}
	}

	txs := sortedTransactions(acc)
	firstDay, err := domain.Day(txs[0].Date)
	if err != nil {
		return []CategoryEntry{}
	}
	lastDay := e.today()

	byDay := make(map[string][]domain.Transaction)
	for _, tx := range txs {
		d, err := domain.Day(tx.Date)
		if err != nil {
			continue
		}
		byDay[d.Format("2006-01-02")] = append(byDay[d.Format("2006-01-02")], tx)
	}

	st := newReplayState()
	var series []CategoryEntry

	for day := firstDay; !day.After(lastDay); day = day.AddDate(0, 0, 1) {
		dayStr := day.Format("2006-01-02")
		for _, tx := range byDay[dayStr] {
			st.apply(tx)
		}

		entry := CategoryEntry{
			Date:       dayStr,
			Categories: make(map[string]CurrencyAmounts),
		}

		for _, h := range st.holdings {
			if h.quantity <= 0 {
				continue
			}
			price, err := e.prices.LatestCloseOnOrBefore(h.identifier, dayStr)
			if err != nil || price <= 0 {
				continue
			}
			cat := entry.Categories[categoryOf(h.typ)]
			cat.add(h.currency, h.quantity*price)
			entry.Categories[categoryOf(h.typ)] = cat
		}
		for _, inst := range st.instruments {
			cat := entry.Categories[categoryOf(inst.typ)]
			cat.add(inst.currency, inst.valueOn(day))
			entry.Categories[categoryOf(inst.typ)] = cat
		}
		if st.cashARS != 0 || st.cashUSD != 0 {
			entry.Categories["cash"] = CurrencyAmounts{ARS: st.cashARS, USD: st.cashUSD}
		}

		for _, amounts := range entry.Categories {
			entry.Total.ARS += amounts.ARS
			entry.Total.USD += amounts.USD
		}

		series = append(series, entry)
	}

	for i, entry := range series {
		if entry.Total.ARS != 0 || entry.Total.USD != 0 {
			return series[i:]
		}
	}
	return []CategoryEntry{}
}

// defaultBenchmarks are the static reference returns the portfolio is
// compared against, in percent per year.
var defaultBenchmarks = map[string]float64{
	"S&P 500":             10,
	"Gold":                6,
	"US 10-Year Treasury": 4.3,
	"NASDAQ":              12,
	"Dow Jones":           8,
	"Russell 2000":        9,
	"VIX":                 -5,
	"Bitcoin":             15,
	"Ethereum":            18,
	"US Dollar Index":     2,
}

// BenchmarkComparison pairs the portfolio's trailing return with the
// static benchmark table.
type BenchmarkComparison struct {
	Period             string             `json:"period"`
	PortfolioReturnPct float64            `json:"portfolioReturnPct"`
	Benchmarks         map[string]float64 `json:"benchmarks"`
}

// CompareWithBenchmarks rounds the portfolio return to one decimal and
// merges it with the benchmark table.
func CompareWithBenchmarks(period string, portfolioReturnPct float64) BenchmarkComparison {
	benchmarks := make(map[string]float64, len(defaultBenchmarks))
	for name, pct := range defaultBenchmarks {
		benchmarks[name] = pct
	}
	return BenchmarkComparison{
		Period:             period,
		PortfolioReturnPct: formulas.Round(portfolioReturnPct, 1),
		Benchmarks:         benchmarks,
	}
}
