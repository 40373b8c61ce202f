package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mbelardi/finanzas/internal/domain"
)

// CreateAmountPosition opens an amount-based instrument (fixed-term
// deposit, caución, real estate or mutual fund), debiting cash by the
// invested amount.
func (s *Service) CreateAmountPosition(username string, req AmountPositionRequest) (Result, error) {
	if err := validateAmountPosition(req); err != nil {
		return Result{}, err
	}

	now := s.now().UTC()
	positionID := idPrefix(req.AssetType) + uuid.NewString()

	pos := domain.Position{
		Type:       req.AssetType,
		ID:         positionID,
		Provider:   req.Provider,
		Name:       req.Name,
		Category:   req.Category,
		Amount:     req.Amount,
		AnnualRate: req.AnnualRate,
		Currency:   req.Currency,
	}
	tx := domain.Transaction{
		ID:         "txn_" + uuid.NewString(),
		Date:       now.Format(time.RFC3339),
		Type:       domain.TxCreate,
		AssetType:  req.AssetType,
		PositionID: positionID,
		Provider:   req.Provider,
		Name:       req.Name,
		Category:   req.Category,
		Amount:     req.Amount,
		AnnualRate: req.AnnualRate,
		Currency:   req.Currency,
	}

	switch req.AssetType {
	case domain.AssetFixedTermDeposit, domain.AssetCaucion:
		maturity := now.AddDate(0, 0, req.TermDays)
		pos.StartDate = now.Format(time.RFC3339)
		pos.MaturityDate = maturity.Format(time.RFC3339)
		pos.TermDays = req.TermDays
		tx.TermDays = req.TermDays
		tx.MaturityDate = pos.MaturityDate
	case domain.AssetMutualFund:
		pos.StartDate = now.Format(time.RFC3339)
	}

	acc, err := s.accounts.Update(username, func(acc *domain.Account) error {
		if acc.Cash.Get(req.Currency) < req.Amount {
			return domain.ErrInsufficientFunds
		}
		acc.Positions = append(acc.Positions, pos)
		acc.Transactions = append(acc.Transactions, tx)
		acc.Cash.Add(req.Currency, -req.Amount)
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	s.log.Info().
		Str("username", username).
		Str("positionId", positionID).
		Str("assetType", string(req.AssetType)).
		Float64("amount", req.Amount).
		Msg("Amount position created")
	return resultFrom(acc), nil
}

// UpdateAmountPosition edits an amount-based instrument. The old cash
// delta is reversed and the new one applied; the edit is rejected when
// the resulting balance of either currency would go negative.
func (s *Service) UpdateAmountPosition(username, positionID string, req AmountPositionRequest) (Result, error) {
	if err := validateAmountPosition(req); err != nil {
		return Result{}, err
	}

	acc, err := s.accounts.Update(username, func(acc *domain.Account) error {
		idx := findAmountPosition(acc, positionID)
		if idx == -1 {
			return domain.ErrPositionNotFound
		}
		pos := &acc.Positions[idx]
		if pos.Type != req.AssetType {
			return domain.Invalidf("position %s is a %s, not a %s", positionID, pos.Type, req.AssetType)
		}

		acc.Cash.Add(pos.Currency, pos.Amount)
		acc.Cash.Add(req.Currency, -req.Amount)
		if acc.Cash.ARS < 0 || acc.Cash.USD < 0 {
			return domain.ErrInsufficientFunds
		}

		pos.Provider = req.Provider
		pos.Name = req.Name
		pos.Category = req.Category
		pos.Amount = req.Amount
		pos.AnnualRate = req.AnnualRate
		pos.Currency = req.Currency
		if pos.Type.IsTermInstrument() {
			pos.TermDays = req.TermDays
			pos.MaturityDate = s.now().UTC().AddDate(0, 0, req.TermDays).Format(time.RFC3339)
		}

		acc.Transactions = append(acc.Transactions, domain.Transaction{
			ID:           "txn_" + uuid.NewString(),
			Date:         s.timestamp(),
			Type:         domain.TxUpdate,
			AssetType:    pos.Type,
			PositionID:   positionID,
			Provider:     req.Provider,
			Name:         req.Name,
			Category:     req.Category,
			Amount:       req.Amount,
			AnnualRate:   req.AnnualRate,
			TermDays:     req.TermDays,
			MaturityDate: pos.MaturityDate,
			Currency:     req.Currency,
		})
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return resultFrom(acc), nil
}

// DeleteAmountPosition closes an amount-based instrument. Term
// instruments held past maturity pay out principal plus simple daily
// interest over the term, recorded as a separate tagged Deposit; every
// other case refunds the principal alone.
func (s *Service) DeleteAmountPosition(username, positionID string) (Result, error) {
	acc, err := s.accounts.Update(username, func(acc *domain.Account) error {
		idx := findAmountPosition(acc, positionID)
		if idx == -1 {
			return domain.ErrPositionNotFound
		}
		pos := acc.Positions[idx]

		acc.Transactions = append(acc.Transactions, domain.Transaction{
			ID:         "txn_" + uuid.NewString(),
			Date:       s.timestamp(),
			Type:       domain.TxDelete,
			AssetType:  pos.Type,
			PositionID: positionID,
			Provider:   pos.Provider,
			Name:       pos.Name,
			Amount:     pos.Amount,
			Currency:   pos.Currency,
		})
		acc.Cash.Add(pos.Currency, pos.Amount)

		if interest := maturedInterest(pos, s.now().UTC()); interest > 0 {
			acc.Transactions = append(acc.Transactions, domain.Transaction{
				ID:         "dep_" + uuid.NewString(),
				Date:       s.timestamp(),
				Type:       domain.TxDeposit,
				Amount:     interest,
				Source:     payoutSource(pos.Type),
				PositionID: positionID,
				Currency:   pos.Currency,
			})
			acc.Cash.Add(pos.Currency, interest)
		}

		acc.Positions = append(acc.Positions[:idx], acc.Positions[idx+1:]...)
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return resultFrom(acc), nil
}

// maturedInterest returns the simple daily interest earned by a term
// instrument held to maturity, 0 for anything not yet matured.
func maturedInterest(pos domain.Position, now time.Time) float64 {
	if !pos.Type.IsTermInstrument() || pos.MaturityDate == "" {
		return 0
	}
	maturity, err := time.Parse(time.RFC3339, pos.MaturityDate)
	if err != nil {
		return 0
	}
	if now.Before(maturity) {
		return 0
	}

	days := pos.TermDays
	if days <= 0 {
		if start, err := time.Parse(time.RFC3339, pos.StartDate); err == nil {
			days = int(maturity.Sub(start).Hours() / 24)
		}
	}
	if days <= 0 {
		return 0
	}
	return pos.Amount * (pos.AnnualRate / 100 / 365) * float64(days)
}

func payoutSource(t domain.AssetType) domain.DepositSource {
	if t == domain.AssetCaucion {
		return domain.SourceCaucionPayout
	}
	return domain.SourceFixedTermPayout
}

func validateAmountPosition(req AmountPositionRequest) error {
	switch req.AssetType {
	case domain.AssetFixedTermDeposit, domain.AssetCaucion:
		if strings.TrimSpace(req.Provider) == "" {
			return domain.Invalidf("provider is required")
		}
		if req.TermDays <= 0 {
			return domain.Invalidf("termDays must be greater than 0")
		}
	case domain.AssetRealEstate, domain.AssetMutualFund:
		if strings.TrimSpace(req.Name) == "" {
			return domain.Invalidf("name is required")
		}
	default:
		return domain.Invalidf("asset type %q is not an amount-based instrument", req.AssetType)
	}
	if req.Amount <= 0 {
		return domain.Invalidf("amount must be greater than 0")
	}
	if req.AnnualRate < 0 || req.AnnualRate > 1000 {
		return domain.Invalidf("annualRate out of range")
	}
	if !req.Currency.IsValid() {
		return domain.Invalidf("invalid currency %q", req.Currency)
	}
	return nil
}

func findAmountPosition(acc *domain.Account, positionID string) int {
	for i := range acc.Positions {
		if acc.Positions[i].ID == positionID && !acc.Positions[i].Type.IsTradable() {
			return i
		}
	}
	return -1
}

func idPrefix(t domain.AssetType) string {
	switch t {
	case domain.AssetFixedTermDeposit:
		return "ftd-"
	case domain.AssetCaucion:
		return "caucion-"
	case domain.AssetRealEstate:
		return "re-"
	case domain.AssetMutualFund:
		return "mf-"
	}
	return "pos-"
}
