package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mbelardi/finanzas/internal/domain"
	"github.com/mbelardi/finanzas/internal/storage"
)

// PriceResolver supplies the latest stored close for market-value sells
type PriceResolver interface {
	LatestClose(symbol string) (float64, error)
}

// Service applies ledger commands to accounts. Every command runs inside
// the account store's per-user lock, so a declined command never leaves
// a partial write behind.
type Service struct {
	accounts *storage.AccountStore
	prices   PriceResolver
	log      zerolog.Logger
	now      func() time.Time
}

// NewService creates a new ledger service
func NewService(accounts *storage.AccountStore, prices PriceResolver) *Service {
	return &Service{
		accounts: accounts,
		prices:   prices,
		log:      log.With().Str("component", "ledger").Logger(),
		now:      time.Now,
	}
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// Deposit credits cash and appends a Deposit transaction
func (s *Service) Deposit(username string, req DepositRequest) (Result, error) {
	if req.Amount <= 0 {
		return Result{}, domain.Invalidf("amount must be greater than 0")
	}
	if !req.Currency.IsValid() {
		return Result{}, domain.Invalidf("invalid currency %q", req.Currency)
	}

	date := req.Date
	if date == "" {
		date = s.timestamp()
	}

	acc, err := s.accounts.Update(username, func(acc *domain.Account) error {
		acc.Transactions = append(acc.Transactions, domain.Transaction{
			ID:       "dep_" + uuid.NewString(),
			Date:     date,
			Type:     domain.TxDeposit,
			Amount:   req.Amount,
			Currency: req.Currency,
		})
		acc.Cash.Add(req.Currency, req.Amount)
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return resultFrom(acc), nil
}

// Withdraw debits cash and appends a Withdrawal transaction
func (s *Service) Withdraw(username string, req WithdrawRequest) (Result, error) {
	if req.Amount <= 0 {
		return Result{}, domain.Invalidf("amount must be greater than 0")
	}
	if !req.Currency.IsValid() {
		return Result{}, domain.Invalidf("invalid currency %q", req.Currency)
	}

	date := req.Date
	if date == "" {
		date = s.timestamp()
	}

	acc, err := s.accounts.Update(username, func(acc *domain.Account) error {
		if acc.Cash.Get(req.Currency) < req.Amount {
			return domain.ErrInsufficientFunds
		}
		acc.Transactions = append(acc.Transactions, domain.Transaction{
			ID:       "wd_" + uuid.NewString(),
			Date:     date,
			Type:     domain.TxWithdrawal,
			Amount:   req.Amount,
			Currency: req.Currency,
		})
		acc.Cash.Add(req.Currency, -req.Amount)
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return resultFrom(acc), nil
}

// UpdateDeposit edits a recorded deposit by reversing the old cash delta
// and applying the new one, so an edit is equivalent to delete+recreate.
func (s *Service) UpdateDeposit(username, txID string, req DepositRequest) (Result, error) {
	if req.Amount <= 0 {
		return Result{}, domain.Invalidf("amount must be greater than 0")
	}
	if !req.Currency.IsValid() {
		return Result{}, domain.Invalidf("invalid currency %q", req.Currency)
	}

	acc, err := s.accounts.Update(username, func(acc *domain.Account) error {
		idx := findTransaction(acc, txID)
		if idx == -1 {
			return domain.ErrTransactionNotFound
		}
		tx := &acc.Transactions[idx]
		if tx.Type != domain.TxDeposit {
			return domain.Invalidf("transaction %s is not a deposit", txID)
		}

		acc.Cash.Add(tx.Currency, -tx.Amount)
		acc.Cash.Add(req.Currency, req.Amount)

		tx.Amount = req.Amount
		tx.Currency = req.Currency
		if req.Date != "" {
			tx.Date = req.Date
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return resultFrom(acc), nil
}

// DeleteDeposit removes a deposit and reverses its cash credit
func (s *Service) DeleteDeposit(username, txID string) (Result, error) {
	acc, err := s.accounts.Update(username, func(acc *domain.Account) error {
		idx := findTransaction(acc, txID)
		if idx == -1 {
			return domain.ErrTransactionNotFound
		}
		tx := acc.Transactions[idx]
		if tx.Type != domain.TxDeposit {
			return domain.Invalidf("transaction %s is not a deposit", txID)
		}
		if acc.Cash.Get(tx.Currency) < tx.Amount {
			return fmt.Errorf("cannot delete deposit, available cash already spent: %w", domain.ErrInsufficientFunds)
		}
		acc.Cash.Add(tx.Currency, -tx.Amount)
		acc.Transactions = append(acc.Transactions[:idx], acc.Transactions[idx+1:]...)
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return resultFrom(acc), nil
}

// Buy purchases a tradable instrument, folding percentage fees into the
// position's weighted-average cost basis.
func (s *Service) Buy(username string, req TradeRequest) (Result, error) {
	if err := validateTrade(req); err != nil {
		return Result{}, err
	}

	commission := orDefault(req.CommissionPct, DefaultCommissionPct)
	purchaseFee := orDefault(req.PurchaseFeePct, DefaultPurchaseFeePct)

	currency := req.Currency
	if req.AssetType == domain.AssetCrypto {
		currency = domain.USD
	}

	baseCost := req.Quantity * req.Price
	totalCost := baseCost * (1 + commission/100 + purchaseFee/100)
	identifier := req.Identifier()

	acc, err := s.accounts.Update(username, func(acc *domain.Account) error {
		if acc.Cash.Get(currency) < totalCost {
			return domain.ErrInsufficientFunds
		}

		if idx := findPosition(acc, req.AssetType, identifier, currency); idx != -1 {
			pos := &acc.Positions[idx]
			prevTotalCost := pos.AveragePrice * pos.Quantity
			pos.Quantity += req.Quantity
			pos.AveragePrice = (prevTotalCost + totalCost) / pos.Quantity
		} else {
			pos := domain.Position{
				Type:         req.AssetType,
				Quantity:     req.Quantity,
				AveragePrice: totalCost / req.Quantity,
				Currency:     currency,
				Market:       req.Market,
			}
			if req.AssetType == domain.AssetBond {
				pos.Ticker = identifier
			} else {
				pos.Symbol = identifier
			}
			acc.Positions = append(acc.Positions, pos)
		}

		tx := domain.Transaction{
			ID:             "txn_" + uuid.NewString(),
			Date:           s.timestamp(),
			Type:           domain.TxBuy,
			AssetType:      req.AssetType,
			Quantity:       req.Quantity,
			Price:          req.Price,
			Currency:       currency,
			Market:         req.Market,
			CommissionPct:  &commission,
			PurchaseFeePct: &purchaseFee,
		}
		if req.AssetType == domain.AssetBond {
			tx.Ticker = identifier
		} else {
			tx.Symbol = identifier
		}
		acc.Transactions = append(acc.Transactions, tx)
		acc.Cash.Add(currency, -totalCost)
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	s.log.Info().
		Str("username", username).
		Str("symbol", identifier).
		Float64("quantity", req.Quantity).
		Float64("totalCost", totalCost).
		Msg("Buy executed")
	return resultFrom(acc), nil
}

// Sell disposes part or all of a tradable position. Proceeds are net of
// the sell commission; a fully drained position is removed.
func (s *Service) Sell(username string, req TradeRequest) (Result, error) {
	if err := validateTrade(req); err != nil {
		return Result{}, err
	}

	commission := orDefault(req.CommissionPct, DefaultCommissionPct)
	currency := req.Currency
	if req.AssetType == domain.AssetCrypto {
		// Crypto proceeds always settle in USD
		currency = domain.USD
	}

	proceeds := req.Quantity * req.Price * (1 - commission/100)
	identifier := req.Identifier()

	acc, err := s.accounts.Update(username, func(acc *domain.Account) error {
		idx := findPosition(acc, req.AssetType, identifier, currency)
		if idx == -1 {
			return domain.ErrPositionNotFound
		}
		pos := &acc.Positions[idx]
		if pos.Quantity < req.Quantity {
			return domain.ErrInsufficientShares
		}

		pos.Quantity -= req.Quantity
		if pos.Quantity < minQuantity {
			acc.Positions = append(acc.Positions[:idx], acc.Positions[idx+1:]...)
		}

		tx := domain.Transaction{
			ID:            "txn_" + uuid.NewString(),
			Date:          s.timestamp(),
			Type:          domain.TxSell,
			AssetType:     req.AssetType,
			Quantity:      req.Quantity,
			Price:         req.Price,
			Currency:      currency,
			Market:        req.Market,
			CommissionPct: &commission,
		}
		if req.AssetType == domain.AssetBond {
			tx.Ticker = identifier
		} else {
			tx.Symbol = identifier
		}
		acc.Transactions = append(acc.Transactions, tx)
		acc.Cash.Add(currency, proceeds)
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return resultFrom(acc), nil
}

// SellAllAtMarket liquidates an entire position at the latest stored
// close. Fails with NoPriceData when no snapshot exists for the symbol.
func (s *Service) SellAllAtMarket(username string, assetType domain.AssetType, identifier string, currency domain.Currency) (Result, error) {
	if !assetType.IsTradable() {
		return Result{}, domain.Invalidf("asset type %s cannot be sold at market", assetType)
	}
	if identifier == "" {
		return Result{}, domain.Invalidf("symbol is required")
	}

	price, err := s.prices.LatestClose(identifier)
	if err != nil {
		return Result{}, err
	}
	if price <= 0 {
		return Result{}, domain.ErrNoPriceData
	}

	acc, err := s.accounts.Update(username, func(acc *domain.Account) error {
		idx := findPosition(acc, assetType, identifier, currency)
		if idx == -1 {
			return domain.ErrPositionNotFound
		}
		pos := acc.Positions[idx]

		tx := domain.Transaction{
			ID:        "txn_" + uuid.NewString(),
			Date:      s.timestamp(),
			Type:      domain.TxSell,
			AssetType: assetType,
			Quantity:  pos.Quantity,
			Price:     price,
			Currency:  pos.Currency,
			Market:    pos.Market,
		}
		if assetType == domain.AssetBond {
			tx.Ticker = identifier
		} else {
			tx.Symbol = identifier
		}
		acc.Transactions = append(acc.Transactions, tx)
		acc.Cash.Add(pos.Currency, pos.Quantity*price)
		acc.Positions = append(acc.Positions[:idx], acc.Positions[idx+1:]...)
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return resultFrom(acc), nil
}

// UpdateTradeFees edits the fee fields of a recorded Buy or Sell. A fee
// value of zero or less clears the field entirely rather than storing 0.
// Buy edits re-derive the position's average price from the cost delta;
// both directions adjust cash by the difference.
func (s *Service) UpdateTradeFees(username, txID string, req FeeUpdateRequest) (Result, error) {
	if req.CommissionPct == nil && req.PurchaseFeePct == nil {
		return Result{}, domain.Invalidf("at least one fee field is required")
	}

	acc, err := s.accounts.Update(username, func(acc *domain.Account) error {
		idx := findTransaction(acc, txID)
		if idx == -1 {
			return domain.ErrTransactionNotFound
		}
		tx := &acc.Transactions[idx]
		if tx.Type != domain.TxBuy && tx.Type != domain.TxSell {
			return domain.Invalidf("only trade transactions can be updated")
		}

		newCommission := normalizeFee(req.CommissionPct, tx.CommissionPct)
		newPurchaseFee := normalizeFee(req.PurchaseFeePct, tx.PurchaseFeePct)

		baseAmount := tx.Quantity * tx.Price
		oldCost := baseAmount * (1 + feePct(tx.CommissionPct)/100 + feePct(tx.PurchaseFeePct)/100)
		newCost := baseAmount * (1 + feePct(newCommission)/100 + feePct(newPurchaseFee)/100)

		if tx.Type == domain.TxBuy {
			if posIdx := findPosition(acc, tx.AssetType, tx.Identifier(), tx.Currency); posIdx != -1 {
				pos := &acc.Positions[posIdx]
				if pos.Quantity > 0 {
					prevTotalCost := pos.AveragePrice * pos.Quantity
					pos.AveragePrice = (prevTotalCost - oldCost + newCost) / pos.Quantity
				}
			}
			acc.Cash.Add(tx.Currency, oldCost-newCost)
		} else {
			oldProceeds := baseAmount - (oldCost - baseAmount)
			newProceeds := baseAmount - (newCost - baseAmount)
			acc.Cash.Add(tx.Currency, newProceeds-oldProceeds)
		}

		tx.CommissionPct = newCommission
		tx.PurchaseFeePct = newPurchaseFee
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return resultFrom(acc), nil
}

func validateTrade(req TradeRequest) error {
	if !req.AssetType.IsTradable() {
		return domain.Invalidf("asset type %q is not tradable", req.AssetType)
	}
	if req.Identifier() == "" {
		return domain.Invalidf("symbol or ticker is required")
	}
	if req.Quantity <= 0 {
		return domain.Invalidf("quantity must be greater than 0")
	}
	if req.Price <= 0 {
		return domain.Invalidf("price must be greater than 0")
	}
	if req.AssetType == domain.AssetCrypto {
		if req.Currency != "" && req.Currency != domain.USD {
			return domain.Invalidf("crypto trades settle in USD")
		}
		return nil
	}
	if !req.Currency.IsValid() {
		return domain.Invalidf("invalid currency %q", req.Currency)
	}
	return nil
}

func findTransaction(acc *domain.Account, txID string) int {
	for i := range acc.Transactions {
		if acc.Transactions[i].ID == txID {
			return i
		}
	}
	return -1
}

func findPosition(acc *domain.Account, t domain.AssetType, identifier string, cur domain.Currency) int {
	for i := range acc.Positions {
		if acc.Positions[i].Matches(t, identifier, cur) {
			return i
		}
	}
	return -1
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// normalizeFee resolves an edited fee field: nil keeps the current
// value, a positive value replaces it, zero or negative clears it.
func normalizeFee(edit, current *float64) *float64 {
	if edit == nil {
		return current
	}
	if *edit > 0 {
		v := *edit
		return &v
	}
	return nil
}

func feePct(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
