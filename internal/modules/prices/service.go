package prices

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mbelardi/finanzas/internal/clients/yahoo"
	"github.com/mbelardi/finanzas/internal/domain"
	"github.com/mbelardi/finanzas/internal/storage"
)

// Service coordinates the snapshot store and the upstream quote client
type Service struct {
	store    *Store
	client   *yahoo.Client
	accounts *storage.AccountStore
	log      zerolog.Logger
}

// NewService creates a new pricing service
func NewService(store *Store, client *yahoo.Client, accounts *storage.AccountStore) *Service {
	return &Service{
		store:    store,
		client:   client,
		accounts: accounts,
		log:      log.With().Str("component", "prices").Logger(),
	}
}

// Store exposes the snapshot store for read-only consumers
func (s *Service) Store() *Store {
	return s.store
}

// Resolve returns the latest close on or before asOf for an instrument.
// Amount-based instruments are not priced here; callers value those from
// their own amount and accrued interest.
func (s *Service) Resolve(assetType domain.AssetType, symbol string, asOf time.Time) (float64, error) {
	if !assetType.IsTradable() {
		return 0, domain.Invalidf("asset type %s is not priced from market data", assetType)
	}
	return s.store.LatestCloseOnOrBefore(symbol, asOf.Format("2006-01-02"))
}

// History returns the stored daily series for a symbol
func (s *Service) History(symbol string, limit int) ([]DailyPrice, error) {
	return s.store.History(symbol, limit)
}

// SyncSymbol refreshes one instrument's snapshots from Yahoo Finance.
// The full range is fetched when the store has no bars yet, a short
// range on subsequent refreshes.
func (s *Service) SyncSymbol(ref SymbolRef) error {
	existing, err := s.store.CountBars(ref.Key())
	if err != nil {
		return err
	}

	rng := "1mo"
	if existing == 0 {
		rng = "5y"
	}

	yfSymbol := yahoo.YahooSymbol(ref.AssetType, ref.Symbol, ref.Market)
	bars, err := s.client.GetDailyHistory(yfSymbol, rng)
	if err != nil {
		return fmt.Errorf("failed to sync %s: %w", ref.Symbol, err)
	}
	if len(bars) == 0 {
		s.log.Warn().Str("symbol", ref.Symbol).Msg("No bars returned from upstream")
		return nil
	}

	return s.store.Upsert(ref.Key(), bars)
}

// HeldSymbols collects every tradable instrument held in any account
func (s *Service) HeldSymbols() ([]SymbolRef, error) {
	usernames, err := s.accounts.List()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var refs []SymbolRef
	for _, username := range usernames {
		acc, err := s.accounts.Load(username)
		if err != nil {
			s.log.Warn().Err(err).Str("username", username).Msg("Skipping unreadable account")
			continue
		}
		for _, pos := range acc.Positions {
			if !pos.Type.IsTradable() {
				continue
			}
			key := pos.Identifier()
			if seen[key] {
				continue
			}
			seen[key] = true
			refs = append(refs, SymbolRef{
				AssetType: pos.Type,
				Symbol:    key,
				Market:    pos.Market,
			})
		}
	}
	return refs, nil
}

// SyncAll refreshes snapshots for every held instrument. Individual
// symbol failures are logged and skipped so one delisted ticker cannot
// stall the whole sync.
func (s *Service) SyncAll() (int, error) {
	refs, err := s.HeldSymbols()
	if err != nil {
		return 0, err
	}

	now := time.Now()
	synced := 0
	for _, ref := range refs {
		if ref.AssetType != domain.AssetCrypto && !IsTradingDay(ref.Market, now) {
			s.log.Debug().Str("symbol", ref.Symbol).Msg("Market closed today, skipping sync")
			continue
		}
		if err := s.SyncSymbol(ref); err != nil {
			s.log.Error().Err(err).Str("symbol", ref.Symbol).Msg("Failed to sync symbol")
			continue
		}
		synced++
	}

	s.log.Info().Int("synced", synced).Int("total", len(refs)).Msg("Price sync finished")
	return synced, nil
}
