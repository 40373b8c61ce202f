package indicators

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mbelardi/finanzas/internal/domain"
	"github.com/mbelardi/finanzas/internal/modules/prices"
)

// historyBars is how many daily bars feed the indicator window. SMA200
// needs 200, everything else less.
const historyBars = 260

// SignalEntry is one held symbol's current signal
type SignalEntry struct {
	Symbol string `json:"symbol"`
	Signal Signal `json:"signal"`
	Reason string `json:"reason"`
	Bars   int    `json:"bars"`
}

// Service computes indicators from the price store
type Service struct {
	prices *prices.Service
	log    zerolog.Logger
}

// NewService creates a new indicator service
func NewService(priceService *prices.Service) *Service {
	return &Service{
		prices: priceService,
		log:    log.With().Str("component", "indicators").Logger(),
	}
}

// ForSymbol computes the indicator set for one stored symbol
func (s *Service) ForSymbol(symbol string) (Set, error) {
	bars, err := s.prices.History(symbol, historyBars)
	if err != nil {
		return Set{}, err
	}
	if len(bars) == 0 {
		return Set{}, domain.ErrNoPriceData
	}

	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	closes := make([]float64, len(bars))
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
		closes[i] = b.Close
	}
	return Compute(symbol, highs, lows, closes), nil
}

// SignalsFor evaluates the trade signal for every tradable symbol held
// by one account. Symbols without stored bars are skipped.
func (s *Service) SignalsFor(acc *domain.Account) []SignalEntry {
	seen := make(map[string]bool)
	var entries []SignalEntry
	for _, pos := range acc.Positions {
		if !pos.Type.IsTradable() || pos.Quantity <= 0 {
			continue
		}
		symbol := pos.Identifier()
		if seen[symbol] {
			continue
		}
		seen[symbol] = true

		set, err := s.ForSymbol(symbol)
		if err != nil {
			s.log.Debug().Err(err).Str("symbol", symbol).Msg("Skipping signal, no bars")
			continue
		}
		signal, reason := TradeSignal(set)
		entries = append(entries, SignalEntry{
			Symbol: symbol,
			Signal: signal,
			Reason: reason,
			Bars:   set.Bars,
		})
	}
	return entries
}
