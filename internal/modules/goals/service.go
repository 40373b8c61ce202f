// Package goals manages savings targets and projects fixed-income
// interest toward them.
package goals

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mbelardi/finanzas/internal/database/repositories"
	"github.com/mbelardi/finanzas/internal/domain"
	"github.com/mbelardi/finanzas/internal/storage"
)

// GoalRequest carries the mutable goal fields
type GoalRequest struct {
	Name                string          `json:"name"`
	TargetAmount        float64         `json:"targetAmount"`
	TargetDate          string          `json:"targetDate"`
	InitialDeposit      float64         `json:"initialDeposit"`
	MonthlyContribution float64         `json:"monthlyContribution"`
	Currency            domain.Currency `json:"currency"`
}

// ProjectionPoint is one day of the fixed-income projection
type ProjectionPoint struct {
	Date     string  `json:"date"`
	ValueARS float64 `json:"valueARS"`
	ValueUSD float64 `json:"valueUSD"`
}

// Valuer supplies the portfolio's current per-currency totals
type Valuer interface {
	CurrentTotals(acc *domain.Account) (ars, usd float64)
}

// Service manages goals on accounts
type Service struct {
	accounts *storage.AccountStore
	bonds    *repositories.BondRepository
	valuer   Valuer
	log      zerolog.Logger
	now      func() time.Time
}

// NewService creates a new goal service
func NewService(accounts *storage.AccountStore, bonds *repositories.BondRepository, valuer Valuer) *Service {
	return &Service{
		accounts: accounts,
		bonds:    bonds,
		valuer:   valuer,
		log:      log.With().Str("component", "goals").Logger(),
		now:      time.Now,
	}
}

// List returns the account's goals
func (s *Service) List(username string) ([]domain.Goal, error) {
	acc, err := s.accounts.Load(username)
	if err != nil {
		return nil, err
	}
	return acc.Goals, nil
}

// Create adds a goal to the account
func (s *Service) Create(username string, req GoalRequest) (*domain.Goal, error) {
	if err := validateGoal(req); err != nil {
		return nil, err
	}

	goal := domain.Goal{
		ID:                  fmt.Sprintf("goal_%s", uuid.New().String()),
		Name:                req.Name,
		TargetAmount:        req.TargetAmount,
		TargetDate:          req.TargetDate,
		InitialDeposit:      req.InitialDeposit,
		MonthlyContribution: req.MonthlyContribution,
		Currency:            req.Currency,
	}

	_, err := s.accounts.Update(username, func(acc *domain.Account) error {
		acc.Goals = append(acc.Goals, goal)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

// Update replaces a goal's fields
func (s *Service) Update(username, id string, req GoalRequest) (*domain.Goal, error) {
	if err := validateGoal(req); err != nil {
		return nil, err
	}

	var updated domain.Goal
	_, err := s.accounts.Update(username, func(acc *domain.Account) error {
		for i := range acc.Goals {
			if acc.Goals[i].ID != id {
				continue
			}
			acc.Goals[i].Name = req.Name
			acc.Goals[i].TargetAmount = req.TargetAmount
			acc.Goals[i].TargetDate = req.TargetDate
			acc.Goals[i].InitialDeposit = req.InitialDeposit
			acc.Goals[i].MonthlyContribution = req.MonthlyContribution
			acc.Goals[i].Currency = req.Currency
			updated = acc.Goals[i]
			return nil
		}
		return domain.ErrGoalNotFound
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a goal
func (s *Service) Delete(username, id string) error {
	_, err := s.accounts.Update(username, func(acc *domain.Account) error {
		for i := range acc.Goals {
			if acc.Goals[i].ID == id {
				acc.Goals = append(acc.Goals[:i], acc.Goals[i+1:]...)
				return nil
			}
		}
		return domain.ErrGoalNotFound
	})
	return err
}

// Projection projects the portfolio's current value forward on daily
// fixed-income interest, through the farthest goal target date. With no
// goals it returns today's value as a single point.
func (s *Service) Projection(username string) ([]ProjectionPoint, error) {
	acc, err := s.accounts.Load(username)
	if err != nil {
		return nil, err
	}

	ars, usd := s.valuer.CurrentTotals(acc)
	today := s.today()

	if len(acc.Goals) == 0 {
		return []ProjectionPoint{{Date: today.Format("2006-01-02"), ValueARS: ars, ValueUSD: usd}}, nil
	}

	end := today
	for _, goal := range acc.Goals {
		if d, err := domain.Day(goal.TargetDate); err == nil && d.After(end) {
			end = d
		}
	}

	dailyARS, dailyUSD := s.dailyInterest(acc)
	var points []ProjectionPoint
	for day := today; !day.After(end); day = day.AddDate(0, 0, 1) {
		points = append(points, ProjectionPoint{
			Date:     day.Format("2006-01-02"),
			ValueARS: ars,
			ValueUSD: usd,
		})
		ars += dailyARS
		usd += dailyUSD
	}
	return points, nil
}

// dailyInterest sums daily accrual from term deposits and the coupon
// rates of held bonds, per currency. Bonds missing from the universe
// contribute nothing.
func (s *Service) dailyInterest(acc *domain.Account) (ars, usd float64) {
	addTo := func(cur domain.Currency, v float64) {
		if cur == domain.USD {
			usd += v
		} else {
			ars += v
		}
	}

	for _, pos := range acc.Positions {
		switch pos.Type {
		case domain.AssetFixedTermDeposit, domain.AssetCaucion:
			addTo(pos.Currency, pos.Amount*pos.AnnualRate/100/365)
		case domain.AssetBond:
			if s.bonds == nil {
				continue
			}
			info, err := s.bonds.Get(pos.Ticker)
			if err != nil || info.CouponRate == nil {
				continue
			}
			addTo(pos.Currency, pos.Quantity*pos.AveragePrice*(*info.CouponRate)/100/365)
		}
	}
	return ars, usd
}

func (s *Service) today() time.Time {
	n := s.now().UTC()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

func validateGoal(req GoalRequest) error {
	if req.Name == "" {
		return domain.Invalidf("goal name is required")
	}
	if req.TargetAmount <= 0 {
		return domain.Invalidf("target amount must be positive")
	}
	if _, err := domain.Day(req.TargetDate); err != nil {
		return domain.Invalidf("invalid target date %q", req.TargetDate)
	}
	if !req.Currency.IsValid() {
		return domain.Invalidf("invalid currency %q", req.Currency)
	}
	return nil
}
