package valuation

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mbelardi/finanzas/internal/domain"
	"github.com/mbelardi/finanzas/internal/storage"
	"github.com/mbelardi/finanzas/pkg/formulas"
)

// Service glues the valuation engine to account and history storage
type Service struct {
	accounts *storage.AccountStore
	history  *storage.HistoryStore
	engine   *Engine
	log      zerolog.Logger
}

// NewService creates a valuation service
func NewService(accounts *storage.AccountStore, history *storage.HistoryStore, engine *Engine) *Service {
	return &Service{
		accounts: accounts,
		history:  history,
		engine:   engine,
		log:      log.With().Str("component", "valuation").Logger(),
	}
}

// Engine exposes the underlying engine for other modules
func (s *Service) Engine() *Engine {
	return s.engine
}

// Snapshot values an account as of today
func (s *Service) Snapshot(username string) (Snapshot, error) {
	acc, err := s.accounts.Load(username)
	if err != nil {
		return Snapshot{}, err
	}
	return s.engine.Snapshot(acc), nil
}

// History recomputes the daily summary series, persists it to the
// history sidecar, and returns the last `days` entries (everything when
// days is 0).
func (s *Service) History(username string, days int) ([]domain.SummaryEntry, error) {
	acc, err := s.accounts.Load(username)
	if err != nil {
		return nil, err
	}

	series := s.engine.SummaryHistory(acc)
	if len(series) > 0 {
		if err := s.history.Save(username, series); err != nil {
			// history persistence is best-effort; the computed series
			// is still valid
			s.log.Warn().Err(err).Str("username", username).Msg("Failed to persist summary history")
		}
	}

	if days > 0 && len(series) > days {
		series = series[len(series)-days:]
	}
	return series, nil
}

// Gains reconstructs the cumulative net gains series
func (s *Service) Gains(username string) ([]GainPoint, error) {
	acc, err := s.accounts.Load(username)
	if err != nil {
		return nil, err
	}
	return CumulativeGains(s.engine.SummaryHistory(acc)), nil
}

// SavedHistory returns the persisted daily records without recomputing
// the series
func (s *Service) SavedHistory(username string) ([]domain.SummaryEntry, error) {
	if !s.accounts.Exists(username) {
		return nil, domain.ErrUserNotFound
	}
	return s.history.Load(username)
}

// CategoryHistory builds the per-category daily value series
func (s *Service) CategoryHistory(username string, days int) ([]CategoryEntry, error) {
	acc, err := s.accounts.Load(username)
	if err != nil {
		return nil, err
	}
	series := s.engine.CategoryHistory(acc)
	if days > 0 && len(series) > days {
		series = series[len(series)-days:]
	}
	return series, nil
}

// Benchmarks compares the portfolio's trailing return with the static
// benchmark table
func (s *Service) Benchmarks(username, period string) (BenchmarkComparison, error) {
	pct, err := s.TrailingReturn(username, period)
	if err != nil {
		return BenchmarkComparison{}, err
	}
	return CompareWithBenchmarks(period, pct), nil
}

// PerformanceReport holds the money- and time-weighted return figures
// for one currency
type PerformanceReport struct {
	AnnualizedPct float64 `json:"annualizedReturnPct"`
	IRRPct        float64 `json:"irrPct"`
	TWRPct        float64 `json:"twrPct"`
}

// Performance computes annualized, money-weighted (IRR) and
// time-weighted (TWR) returns per currency from the summary series and
// the account's external cash flows. Fixed-term payouts are interest,
// not contributions, so they are not treated as external flows.
func (s *Service) Performance(username string) (map[string]PerformanceReport, error) {
	acc, err := s.accounts.Load(username)
	if err != nil {
		return nil, err
	}

	series := s.engine.SummaryHistory(acc)
	report := map[string]PerformanceReport{
		string(domain.ARS): s.performanceFor(acc, series, domain.ARS),
		string(domain.USD): s.performanceFor(acc, series, domain.USD),
	}
	return report, nil
}

func (s *Service) performanceFor(acc *domain.Account, series []domain.SummaryEntry, cur domain.Currency) PerformanceReport {
	if len(series) < 2 {
		return PerformanceReport{}
	}

	values := make([]formulas.DatedValue, 0, len(series))
	for _, entry := range series {
		d, err := domain.Day(entry.Date)
		if err != nil {
			continue
		}
		v := entry.TotalARS
		if cur == domain.USD {
			v = entry.TotalUSD
		}
		values = append(values, formulas.DatedValue{Date: d, Value: v})
	}
	if len(values) < 2 {
		return PerformanceReport{}
	}

	first := values[0]
	last := values[len(values)-1]

	var irrFlows, twrFlows []formulas.CashFlow
	for _, tx := range acc.Transactions {
		if tx.Currency != cur || tx.Source != "" {
			continue
		}
		d, err := domain.Day(tx.Date)
		if err != nil {
			continue
		}
		var amount float64
		switch tx.Type {
		case domain.TxDeposit:
			amount = tx.Amount
		case domain.TxWithdrawal:
			amount = -tx.Amount
		default:
			continue
		}
		irrFlows = append(irrFlows, formulas.CashFlow{Date: d, Amount: -amount})
		// flows on the series' first day are already inside the
		// initial value
		if d.After(first.Date) {
			twrFlows = append(twrFlows, formulas.CashFlow{Date: d, Amount: amount})
		}
	}

	report := PerformanceReport{
		AnnualizedPct: formulas.AnnualizedReturn(first.Value, last.Value, first.Date, last.Date),
		TWRPct:        formulas.Round(formulas.TWR(values, twrFlows)*100, 2),
	}
	if len(irrFlows) > 0 && last.Value > 0 {
		irrFlows = append(irrFlows, formulas.CashFlow{Date: last.Date, Amount: last.Value})
		report.IRRPct = formulas.IRR(irrFlows, 0.1)
	}
	return report
}

// TrailingReturn computes the portfolio's own return over a period token
func (s *Service) TrailingReturn(username, period string) (float64, error) {
	days, err := LookbackDays(period)
	if err != nil {
		return 0, err
	}
	acc, err := s.accounts.Load(username)
	if err != nil {
		return 0, err
	}
	return s.engine.TrailingReturn(acc, days), nil
}
