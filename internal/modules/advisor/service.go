package advisor

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mbelardi/finanzas/internal/database/repositories"
	"github.com/mbelardi/finanzas/internal/domain"
	"github.com/mbelardi/finanzas/internal/storage"
)

// Service answers allocation and bond recommendation requests
type Service struct {
	accounts *storage.AccountStore
	bonds    *repositories.BondRepository
	log      zerolog.Logger
}

// NewService creates a new advisor service
func NewService(accounts *storage.AccountStore, bonds *repositories.BondRepository) *Service {
	return &Service{
		accounts: accounts,
		bonds:    bonds,
		log:      log.With().Str("component", "advisor").Logger(),
	}
}

// AllocationFor suggests an allocation from a stored account profile
func (s *Service) AllocationFor(username string) (Allocation, error) {
	acc, err := s.accounts.Load(username)
	if err != nil {
		return Allocation{}, err
	}
	if !acc.ProfileCompleted || acc.Profile == nil {
		return Allocation{}, domain.Invalidf("investor profile not completed")
	}
	return SuggestAllocation(*acc.Profile), nil
}

// BondsFor recommends bonds for a stored account profile. An explicit
// non-empty profile token overrides the derived one.
func (s *Service) BondsFor(username string, override RiskProfile) ([]BondRecommendation, error) {
	profile := override
	if profile == "" {
		acc, err := s.accounts.Load(username)
		if err != nil {
			return nil, err
		}
		appetite := domain.RiskBalanced
		if acc.Profile != nil {
			appetite = acc.Profile.RiskAppetite
		}
		profile = ProfileFromAppetite(appetite)
	}
	if !profile.IsValid() {
		return nil, domain.Invalidf("unknown risk profile %q", profile)
	}

	universe, err := s.bonds.All()
	if err != nil {
		return nil, err
	}
	recs := SuggestBonds(profile, universe)
	s.log.Debug().Str("profile", string(profile)).
		Int("universe", len(universe)).Int("recommended", len(recs)).
		Msg("Scored bond universe")
	return recs, nil
}
