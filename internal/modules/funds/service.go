package funds

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mbelardi/finanzas/internal/database/repositories"
	"github.com/mbelardi/finanzas/internal/domain"
	"github.com/mbelardi/finanzas/pkg/formulas"
)

// Service serves fund queries from the cache and mirrors rows into the
// database so they survive scraper outages.
type Service struct {
	cache *Cache
	repo  *repositories.FundRepository
	log   zerolog.Logger
}

// NewService creates a new fund service
func NewService(cache *Cache, repo *repositories.FundRepository) *Service {
	return &Service{
		cache: cache,
		repo:  repo,
		log:   log.With().Str("component", "funds").Logger(),
	}
}

// List returns fund rows, optionally filtered by category or a name
// substring. Category takes precedence over search, as the original API
// surface did.
func (s *Service) List(ctx context.Context, category, search string, force bool) ([]domain.Fund, error) {
	if force {
		if err := s.cache.ForceRefresh(ctx); err != nil {
			return nil, err
		}
	}

	rows, err := s.rows(ctx)
	if err != nil {
		return nil, err
	}

	switch {
	case category != "":
		filtered := make([]domain.Fund, 0, len(rows))
		for _, f := range rows {
			if f.Category == category {
				filtered = append(filtered, f)
			}
		}
		return filtered, nil
	case search != "":
		needle := strings.ToLower(search)
		for _, f := range rows {
			if strings.Contains(strings.ToLower(f.Name), needle) {
				return []domain.Fund{f}, nil
			}
		}
		return []domain.Fund{}, nil
	}
	return rows, nil
}

// TNA looks up one fund's current TNA by name substring
func (s *Service) TNA(ctx context.Context, fundName string) (float64, error) {
	matches, err := s.List(ctx, "", fundName, false)
	if err != nil {
		return 0, err
	}
	if len(matches) == 0 || matches[0].TNA == nil {
		return 0, domain.Invalidf("no TNA data for fund %q", fundName)
	}
	return *matches[0].TNA, nil
}

// MeanTNAByCategory averages the TNA of every fund in a category,
// skipping rows without one.
func (s *Service) MeanTNAByCategory(ctx context.Context, category string) (float64, int, error) {
	rows, err := s.List(ctx, category, "", false)
	if err != nil {
		return 0, 0, err
	}
	values := make([]float64, 0, len(rows))
	for _, f := range rows {
		if f.TNA != nil {
			values = append(values, *f.TNA)
		}
	}
	if len(values) == 0 {
		return 0, 0, nil
	}
	return formulas.Round(formulas.Mean(values), 2), len(values), nil
}

// Stats reports the cache file state
func (s *Service) Stats(ctx context.Context) Stats {
	return s.cache.CacheStats(ctx)
}

// Refresh forces a scrape and mirrors the result into the database
func (s *Service) Refresh(ctx context.Context) error {
	if err := s.cache.ForceRefresh(ctx); err != nil {
		return err
	}
	_, err := s.rows(ctx)
	return err
}

// rows reads the cache and best-effort mirrors it into the fund table.
// When the cache is unreadable the mirror serves as fallback.
func (s *Service) rows(ctx context.Context) ([]domain.Fund, error) {
	rows, err := s.cache.Rows(ctx)
	if err != nil {
		if s.repo != nil {
			stored, dbErr := s.repo.All()
			if dbErr == nil && len(stored) > 0 {
				s.log.Warn().Err(err).Msg("Serving funds from database mirror")
				return stored, nil
			}
		}
		return nil, err
	}

	if s.repo != nil && len(rows) > 0 {
		if err := s.repo.ReplaceAll(rows); err != nil {
			s.log.Warn().Err(err).Msg("Failed to mirror funds into database")
		}
	}
	return rows, nil
}
