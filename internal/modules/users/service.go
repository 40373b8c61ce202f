// Package users covers login, the onboarding profile and the generated
// investment strategy.
package users

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mbelardi/finanzas/internal/domain"
	"github.com/mbelardi/finanzas/internal/storage"
)

// Service manages account lifecycle operations
type Service struct {
	accounts *storage.AccountStore
	log      zerolog.Logger
	now      func() time.Time
}

// NewService creates a new user service
func NewService(accounts *storage.AccountStore) *Service {
	return &Service{
		accounts: accounts,
		log:      log.With().Str("component", "users").Logger(),
		now:      time.Now,
	}
}

// Login returns the account for a username, creating it on first login
func (s *Service) Login(username string) (*domain.Account, bool, error) {
	acc, created, err := s.accounts.GetOrCreate(username, s.now())
	if err != nil {
		return nil, false, err
	}
	if created {
		s.log.Info().Str("username", acc.Username).Msg("Created account on first login")
	}
	return acc, created, nil
}

// Get returns the full account payload
func (s *Service) Get(username string) (*domain.Account, error) {
	return s.accounts.Load(username)
}

// SaveProfile stores the onboarding survey. The first completion seeds
// the ARS cash balance with the declared investment amount; later edits
// leave cash alone.
func (s *Service) SaveProfile(username string, profile domain.InvestorProfile) (*domain.Account, error) {
	if len(profile.InstrumentsUsed) == 0 {
		return nil, domain.Invalidf("at least one instrument must be selected")
	}
	if profile.InvestmentAmount <= 0 {
		return nil, domain.Invalidf("investment amount must be greater than 0")
	}
	if profile.RiskAppetite != "" && !profile.RiskAppetite.IsValid() {
		return nil, domain.Invalidf("invalid risk appetite %q", profile.RiskAppetite)
	}

	acc, err := s.accounts.Update(username, func(acc *domain.Account) error {
		first := !acc.ProfileCompleted
		acc.Profile = &profile
		acc.ProfileCompleted = true
		if first {
			acc.Cash.ARS = profile.InvestmentAmount
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// Strategy generates a fresh strategy from the stored profile, saves it
// on the account and returns it.
func (s *Service) Strategy(username string) (*domain.InvestmentStrategy, error) {
	var strategy domain.InvestmentStrategy
	_, err := s.accounts.Update(username, func(acc *domain.Account) error {
		if acc.Profile == nil {
			return domain.Invalidf("investor profile not completed")
		}
		strategy = GenerateStrategy(acc, s.now())
		acc.Strategy = &strategy
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &strategy, nil
}
