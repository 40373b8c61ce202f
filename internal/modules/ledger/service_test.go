package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbelardi/finanzas/internal/domain"
	"github.com/mbelardi/finanzas/internal/storage"
)

type stubPrices struct {
	closes map[string]float64
}

func (s stubPrices) LatestClose(symbol string) (float64, error) {
	price, ok := s.closes[symbol]
	if !ok {
		return 0, domain.ErrNoPriceData
	}
	return price, nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	accounts, err := storage.NewAccountStore(t.TempDir())
	require.NoError(t, err)
	svc := NewService(accounts, stubPrices{closes: map[string]float64{"GGAL": 150}})
	_, _, err = accounts.GetOrCreate("martin", time.Now())
	require.NoError(t, err)
	return svc
}

func fund(t *testing.T, svc *Service, amount float64, cur domain.Currency) {
	t.Helper()
	_, err := svc.Deposit("martin", DepositRequest{Amount: amount, Currency: cur})
	require.NoError(t, err)
}

func fp(v float64) *float64 { return &v }

func TestBuyWeightedAveragePrice(t *testing.T) {
	svc := newTestService(t)
	fund(t, svc, 10000, domain.ARS)

	// 10 @ 100 with 1% commission and 2% purchase fee: cost 1030, avg 103
	res, err := svc.Buy("martin", TradeRequest{
		AssetType: domain.AssetStock, Symbol: "GGAL", Quantity: 10, Price: 100,
		Currency: domain.ARS, Market: domain.MarketBCBA,
		CommissionPct: fp(1), PurchaseFeePct: fp(2),
	})
	require.NoError(t, err)
	require.Len(t, res.Positions, 1)
	assert.InDelta(t, 103, res.Positions[0].AveragePrice, 1e-9)
	assert.InDelta(t, 10000-1030, res.Cash.ARS, 1e-9)

	// second buy, 5 @ 120 with explicit zero fees: avg (103*10 + 600)/15
	res, err = svc.Buy("martin", TradeRequest{
		AssetType: domain.AssetStock, Symbol: "GGAL", Quantity: 5, Price: 120,
		Currency: domain.ARS, Market: domain.MarketBCBA,
		CommissionPct: fp(0), PurchaseFeePct: fp(0),
	})
	require.NoError(t, err)
	require.Len(t, res.Positions, 1)
	assert.InDelta(t, (103*10+600)/15.0, res.Positions[0].AveragePrice, 1e-9)
	assert.Equal(t, 15.0, res.Positions[0].Quantity)
}

func TestBuyInsufficientFunds(t *testing.T) {
	svc := newTestService(t)
	fund(t, svc, 500, domain.ARS)

	_, err := svc.Buy("martin", TradeRequest{
		AssetType: domain.AssetStock, Symbol: "GGAL", Quantity: 10, Price: 100,
		Currency: domain.ARS, Market: domain.MarketBCBA,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	// account untouched after the declined operation
	acc, loadErr := svc.accounts.Load("martin")
	require.NoError(t, loadErr)
	assert.Equal(t, 500.0, acc.Cash.ARS)
	assert.Empty(t, acc.Positions)
	assert.Len(t, acc.Transactions, 1, "only the funding deposit is recorded")
}

func TestBuyAppliesDefaultFees(t *testing.T) {
	svc := newTestService(t)
	fund(t, svc, 10000, domain.ARS)

	res, err := svc.Buy("martin", TradeRequest{
		AssetType: domain.AssetStock, Symbol: "GGAL", Quantity: 10, Price: 100,
		Currency: domain.ARS, Market: domain.MarketBCBA,
	})
	require.NoError(t, err)
	wantCost := 1000 * (1 + DefaultCommissionPct/100 + DefaultPurchaseFeePct/100)
	assert.InDelta(t, 10000-wantCost, res.Cash.ARS, 1e-9)
}

func TestCurrencySeparatesPositions(t *testing.T) {
	svc := newTestService(t)
	fund(t, svc, 10000, domain.ARS)
	fund(t, svc, 10000, domain.USD)

	_, err := svc.Buy("martin", TradeRequest{
		AssetType: domain.AssetStock, Symbol: "GGAL", Quantity: 1, Price: 100,
		Currency: domain.ARS, Market: domain.MarketBCBA, CommissionPct: fp(0), PurchaseFeePct: fp(0),
	})
	require.NoError(t, err)
	res, err := svc.Buy("martin", TradeRequest{
		AssetType: domain.AssetStock, Symbol: "GGAL", Quantity: 1, Price: 5,
		Currency: domain.USD, Market: domain.MarketNYSE, CommissionPct: fp(0), PurchaseFeePct: fp(0),
	})
	require.NoError(t, err)
	assert.Len(t, res.Positions, 2, "same symbol in two currencies stays separate")
}

func TestSellPartialAndDrain(t *testing.T) {
	svc := newTestService(t)
	fund(t, svc, 10000, domain.ARS)

	_, err := svc.Buy("martin", TradeRequest{
		AssetType: domain.AssetStock, Symbol: "GGAL", Quantity: 10, Price: 100,
		Currency: domain.ARS, Market: domain.MarketBCBA, CommissionPct: fp(0), PurchaseFeePct: fp(0),
	})
	require.NoError(t, err)

	res, err := svc.Sell("martin", TradeRequest{
		AssetType: domain.AssetStock, Symbol: "GGAL", Quantity: 4, Price: 110,
		Currency: domain.ARS, Market: domain.MarketBCBA, CommissionPct: fp(1),
	})
	require.NoError(t, err)
	require.Len(t, res.Positions, 1)
	assert.Equal(t, 6.0, res.Positions[0].Quantity)
	assert.Equal(t, 100.0, res.Positions[0].AveragePrice, "average price untouched by sells")
	assert.InDelta(t, 9000+4*110*0.99, res.Cash.ARS, 1e-9)

	res, err = svc.Sell("martin", TradeRequest{
		AssetType: domain.AssetStock, Symbol: "GGAL", Quantity: 6, Price: 110,
		Currency: domain.ARS, Market: domain.MarketBCBA, CommissionPct: fp(0),
	})
	require.NoError(t, err)
	assert.Empty(t, res.Positions, "drained position is removed")
}

func TestSellFailures(t *testing.T) {
	svc := newTestService(t)
	fund(t, svc, 10000, domain.ARS)

	_, err := svc.Sell("martin", TradeRequest{
		AssetType: domain.AssetStock, Symbol: "GGAL", Quantity: 1, Price: 100, Currency: domain.ARS,
	})
	assert.ErrorIs(t, err, domain.ErrPositionNotFound)

	_, err = svc.Buy("martin", TradeRequest{
		AssetType: domain.AssetStock, Symbol: "GGAL", Quantity: 2, Price: 100,
		Currency: domain.ARS, Market: domain.MarketBCBA, CommissionPct: fp(0), PurchaseFeePct: fp(0),
	})
	require.NoError(t, err)

	_, err = svc.Sell("martin", TradeRequest{
		AssetType: domain.AssetStock, Symbol: "GGAL", Quantity: 5, Price: 100,
		Currency: domain.ARS, Market: domain.MarketBCBA,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientShares)
}

func TestCryptoSettlesInUSD(t *testing.T) {
	svc := newTestService(t)
	fund(t, svc, 100000, domain.USD)

	res, err := svc.Buy("martin", TradeRequest{
		AssetType: domain.AssetCrypto, Symbol: "BTC", Quantity: 0.5, Price: 60000,
		CommissionPct: fp(0), PurchaseFeePct: fp(0),
	})
	require.NoError(t, err)
	require.Len(t, res.Positions, 1)
	assert.Equal(t, domain.USD, res.Positions[0].Currency)
	assert.InDelta(t, 70000, res.Cash.USD, 1e-9)

	_, err = svc.Buy("martin", TradeRequest{
		AssetType: domain.AssetCrypto, Symbol: "BTC", Quantity: 1, Price: 60000,
		Currency: domain.ARS,
	})
	assert.True(t, domain.IsValidation(err), "crypto trades in ARS are rejected")
}

func TestDepositEditReversibility(t *testing.T) {
	svc := newTestService(t)
	fund(t, svc, 500, domain.ARS)
	fund(t, svc, 500, domain.ARS)

	acc, err := svc.accounts.Load("martin")
	require.NoError(t, err)
	dep1 := acc.Transactions[0].ID

	// same-currency edit: 1000 - 500 + 700
	res, err := svc.UpdateDeposit("martin", dep1, DepositRequest{Amount: 700, Currency: domain.ARS})
	require.NoError(t, err)
	assert.Equal(t, 1200.0, res.Cash.ARS)

	// currency move: ARS reverts, USD credited
	res, err = svc.UpdateDeposit("martin", dep1, DepositRequest{Amount: 100, Currency: domain.USD})
	require.NoError(t, err)
	assert.Equal(t, 500.0, res.Cash.ARS)
	assert.Equal(t, 100.0, res.Cash.USD)
}

func TestDeleteDepositGuard(t *testing.T) {
	svc := newTestService(t)
	fund(t, svc, 1000, domain.ARS)

	acc, err := svc.accounts.Load("martin")
	require.NoError(t, err)
	depID := acc.Transactions[0].ID

	// spend most of the cash, then try to delete the funding deposit
	_, err = svc.Buy("martin", TradeRequest{
		AssetType: domain.AssetStock, Symbol: "GGAL", Quantity: 9, Price: 100,
		Currency: domain.ARS, Market: domain.MarketBCBA, CommissionPct: fp(0), PurchaseFeePct: fp(0),
	})
	require.NoError(t, err)

	_, err = svc.DeleteDeposit("martin", depID)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	res, err := svc.Sell("martin", TradeRequest{
		AssetType: domain.AssetStock, Symbol: "GGAL", Quantity: 9, Price: 100,
		Currency: domain.ARS, Market: domain.MarketBCBA, CommissionPct: fp(0),
	})
	require.NoError(t, err)
	require.Equal(t, 1000.0, res.Cash.ARS)

	res, err = svc.DeleteDeposit("martin", depID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Cash.ARS)
}

func TestWithdrawGuard(t *testing.T) {
	svc := newTestService(t)
	fund(t, svc, 300, domain.USD)

	_, err := svc.Withdraw("martin", WithdrawRequest{Amount: 500, Currency: domain.USD})
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	res, err := svc.Withdraw("martin", WithdrawRequest{Amount: 200, Currency: domain.USD})
	require.NoError(t, err)
	assert.Equal(t, 100.0, res.Cash.USD)
}

func TestUpdateTradeFees(t *testing.T) {
	svc := newTestService(t)
	fund(t, svc, 10000, domain.ARS)

	res, err := svc.Buy("martin", TradeRequest{
		AssetType: domain.AssetStock, Symbol: "GGAL", Quantity: 10, Price: 100,
		Currency: domain.ARS, Market: domain.MarketBCBA,
		CommissionPct: fp(1), PurchaseFeePct: fp(2),
	})
	require.NoError(t, err)
	buyID := res.Transactions[len(res.Transactions)-1].ID

	// clearing both fees re-derives the position basis and refunds cash
	res, err = svc.UpdateTradeFees("martin", buyID, FeeUpdateRequest{
		CommissionPct: fp(0), PurchaseFeePct: fp(-1),
	})
	require.NoError(t, err)
	require.Len(t, res.Positions, 1)
	assert.InDelta(t, 100, res.Positions[0].AveragePrice, 1e-9)
	assert.InDelta(t, 9000, res.Cash.ARS, 1e-9)

	var updated *domain.Transaction
	for i := range res.Transactions {
		if res.Transactions[i].ID == buyID {
			updated = &res.Transactions[i]
		}
	}
	require.NotNil(t, updated)
	assert.Nil(t, updated.CommissionPct, "zero fee is stored as absent, not 0")
	assert.Nil(t, updated.PurchaseFeePct)

	// raising the commission again debits cash and lifts the basis
	res, err = svc.UpdateTradeFees("martin", buyID, FeeUpdateRequest{CommissionPct: fp(3)})
	require.NoError(t, err)
	assert.InDelta(t, 103, res.Positions[0].AveragePrice, 1e-9)
	assert.InDelta(t, 8970, res.Cash.ARS, 1e-9)
}

func TestUpdateTradeFeesRejectsNonTrades(t *testing.T) {
	svc := newTestService(t)
	fund(t, svc, 1000, domain.ARS)

	acc, err := svc.accounts.Load("martin")
	require.NoError(t, err)
	depID := acc.Transactions[0].ID

	_, err = svc.UpdateTradeFees("martin", depID, FeeUpdateRequest{CommissionPct: fp(1)})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.UpdateTradeFees("martin", "missing", FeeUpdateRequest{CommissionPct: fp(1)})
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestCreateCaucionInsufficientFunds(t *testing.T) {
	svc := newTestService(t)
	fund(t, svc, 10000, domain.ARS)

	_, err := svc.CreateAmountPosition("martin", AmountPositionRequest{
		AssetType: domain.AssetCaucion, Provider: "BYMA", Amount: 50000,
		AnnualRate: 40, TermDays: 7, Currency: domain.ARS,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	acc, loadErr := svc.accounts.Load("martin")
	require.NoError(t, loadErr)
	assert.Equal(t, 10000.0, acc.Cash.ARS, "declined create leaves cash unchanged")
}

func TestFixedTermDepositMaturityPayout(t *testing.T) {
	svc := newTestService(t)
	fund(t, svc, 10000, domain.ARS)

	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	res, err := svc.CreateAmountPosition("martin", AmountPositionRequest{
		AssetType: domain.AssetFixedTermDeposit, Provider: "Banco Nación",
		Amount: 10000, AnnualRate: 36.5, TermDays: 30, Currency: domain.ARS,
	})
	require.NoError(t, err)
	require.Len(t, res.Positions, 1)
	assert.Equal(t, 0.0, res.Cash.ARS)
	positionID := res.Positions[0].ID

	// delete after maturity: principal plus simple daily interest
	svc.now = func() time.Time { return start.AddDate(0, 0, 31) }
	res, err = svc.DeleteAmountPosition("martin", positionID)
	require.NoError(t, err)
	assert.Empty(t, res.Positions)
	assert.InDelta(t, 10300, res.Cash.ARS, 1e-6)

	last := res.Transactions[len(res.Transactions)-1]
	assert.Equal(t, domain.TxDeposit, last.Type)
	assert.Equal(t, domain.SourceFixedTermPayout, last.Source)
	assert.InDelta(t, 300, last.Amount, 1e-6)
}

func TestDeleteBeforeMaturityRefundsPrincipalOnly(t *testing.T) {
	svc := newTestService(t)
	fund(t, svc, 5000, domain.ARS)

	res, err := svc.CreateAmountPosition("martin", AmountPositionRequest{
		AssetType: domain.AssetCaucion, Provider: "BYMA",
		Amount: 5000, AnnualRate: 45, TermDays: 7, Currency: domain.ARS,
	})
	require.NoError(t, err)
	positionID := res.Positions[0].ID

	res, err = svc.DeleteAmountPosition("martin", positionID)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, res.Cash.ARS)
	for _, tx := range res.Transactions {
		assert.NotEqual(t, domain.SourceCaucionPayout, tx.Source, "no payout deposit before maturity")
	}
}

func TestUpdateAmountPositionRebalancesCash(t *testing.T) {
	svc := newTestService(t)
	fund(t, svc, 10000, domain.ARS)

	res, err := svc.CreateAmountPosition("martin", AmountPositionRequest{
		AssetType: domain.AssetCaucion, Provider: "BYMA",
		Amount: 4000, AnnualRate: 40, TermDays: 7, Currency: domain.ARS,
	})
	require.NoError(t, err)
	positionID := res.Positions[0].ID
	assert.Equal(t, 6000.0, res.Cash.ARS)

	res, err = svc.UpdateAmountPosition("martin", positionID, AmountPositionRequest{
		AssetType: domain.AssetCaucion, Provider: "BYMA",
		Amount: 9000, AnnualRate: 42, TermDays: 14, Currency: domain.ARS,
	})
	require.NoError(t, err)
	assert.Equal(t, 1000.0, res.Cash.ARS)
	assert.Equal(t, 9000.0, res.Positions[0].Amount)

	_, err = svc.UpdateAmountPosition("martin", positionID, AmountPositionRequest{
		AssetType: domain.AssetCaucion, Provider: "BYMA",
		Amount: 20000, AnnualRate: 42, TermDays: 14, Currency: domain.ARS,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
}

func TestSellAllAtMarket(t *testing.T) {
	svc := newTestService(t)
	fund(t, svc, 10000, domain.ARS)

	_, err := svc.Buy("martin", TradeRequest{
		AssetType: domain.AssetStock, Symbol: "GGAL", Quantity: 10, Price: 100,
		Currency: domain.ARS, Market: domain.MarketBCBA, CommissionPct: fp(0), PurchaseFeePct: fp(0),
	})
	require.NoError(t, err)

	res, err := svc.SellAllAtMarket("martin", domain.AssetStock, "GGAL", domain.ARS)
	require.NoError(t, err)
	assert.Empty(t, res.Positions)
	assert.InDelta(t, 9000+10*150, res.Cash.ARS, 1e-9)

	_, err = svc.SellAllAtMarket("martin", domain.AssetStock, "NOPE", domain.ARS)
	assert.ErrorIs(t, err, domain.ErrNoPriceData)
}
