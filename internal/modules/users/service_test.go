package users

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbelardi/finanzas/internal/domain"
	"github.com/mbelardi/finanzas/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := storage.NewAccountStore(t.TempDir())
	require.NoError(t, err)
	return NewService(store)
}

func validProfile() domain.InvestorProfile {
	return domain.InvestorProfile{
		InstrumentsUsed:  []string{"acciones"},
		KnowledgeLevels:  map[string]domain.KnowledgeLevel{"acciones": domain.KnowledgeMedium},
		RiskAppetite:     domain.RiskBalanced,
		InvestmentAmount: 150000,
	}
}

func TestLoginCreatesOnce(t *testing.T) {
	svc := newTestService(t)

	acc, created, err := svc.Login("Marina")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "marina", acc.Username, "usernames are normalized to lowercase")
	assert.Empty(t, acc.Positions)

	_, created, err = svc.Login("marina")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestLoginRejectsBadUsernames(t *testing.T) {
	svc := newTestService(t)

	_, _, err := svc.Login("ab")
	assert.True(t, domain.IsValidation(err), "too short")

	_, _, err = svc.Login("../escape")
	assert.True(t, domain.IsValidation(err), "traversal attempt")
}

func TestSaveProfileSeedsCashOnce(t *testing.T) {
	svc := newTestService(t)
	_, _, err := svc.Login("marina")
	require.NoError(t, err)

	acc, err := svc.SaveProfile("marina", validProfile())
	require.NoError(t, err)
	assert.True(t, acc.ProfileCompleted)
	assert.Equal(t, 150000.0, acc.Cash.ARS)

	// a later edit must not reset the balance
	profile := validProfile()
	profile.InvestmentAmount = 999999
	acc, err = svc.SaveProfile("marina", profile)
	require.NoError(t, err)
	assert.Equal(t, 150000.0, acc.Cash.ARS)
	assert.Equal(t, 999999.0, acc.Profile.InvestmentAmount)
}

func TestSaveProfileValidation(t *testing.T) {
	svc := newTestService(t)
	_, _, err := svc.Login("marina")
	require.NoError(t, err)

	p := validProfile()
	p.InstrumentsUsed = nil
	_, err = svc.SaveProfile("marina", p)
	assert.True(t, domain.IsValidation(err))

	p = validProfile()
	p.InvestmentAmount = 0
	_, err = svc.SaveProfile("marina", p)
	assert.True(t, domain.IsValidation(err))

	acc, err := svc.Get("marina")
	require.NoError(t, err)
	assert.False(t, acc.ProfileCompleted, "rejected profiles never persist")
}

func TestStrategyRequiresProfile(t *testing.T) {
	svc := newTestService(t)
	_, _, err := svc.Login("marina")
	require.NoError(t, err)

	_, err = svc.Strategy("marina")
	assert.True(t, domain.IsValidation(err))
}

func TestStrategyPersistsOnAccount(t *testing.T) {
	svc := newTestService(t)
	_, _, err := svc.Login("marina")
	require.NoError(t, err)
	_, err = svc.SaveProfile("marina", validProfile())
	require.NoError(t, err)

	strategy, err := svc.Strategy("marina")
	require.NoError(t, err)
	assert.NotEmpty(t, strategy.ID)
	assert.Equal(t, domain.RiskBalanced, strategy.RiskLevel)

	acc, err := svc.Get("marina")
	require.NoError(t, err)
	require.NotNil(t, acc.Strategy)
	assert.Equal(t, strategy.ID, acc.Strategy.ID)
}

func TestTargetAllocationByRisk(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	conservative := targetAllocation(domain.InvestorProfile{RiskAppetite: domain.RiskConservative}, nil, now)
	assert.Equal(t, domain.TargetAllocation{Stocks: 40, Bonds: 45, Deposits: 10, Cash: 5}, conservative)

	aggressive := targetAllocation(domain.InvestorProfile{RiskAppetite: domain.RiskAggressive}, nil, now)
	assert.Equal(t, domain.TargetAllocation{Stocks: 80, Bonds: 15, Deposits: 3, Cash: 2}, aggressive)

	balanced := targetAllocation(domain.InvestorProfile{RiskAppetite: domain.RiskBalanced}, nil, now)
	assert.Equal(t, domain.TargetAllocation{Stocks: 60, Bonds: 30, Deposits: 5, Cash: 5}, balanced)
}

func TestTargetAllocationShortHorizon(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	goals := []domain.Goal{{TargetDate: "2027-01-01"}}

	got := targetAllocation(domain.InvestorProfile{RiskAppetite: domain.RiskBalanced}, goals, now)
	assert.Equal(t, 40.0, got.Stocks, "short horizon shifts 20 points out of stocks")
	assert.Equal(t, 45.0, got.Bonds)
	assert.Equal(t, 10.0, got.Deposits)
}

func TestTimeHorizonBuckets(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "5-10 años", timeHorizon(nil, now))
	assert.Equal(t, "Corto plazo (< 3 años)", timeHorizon([]domain.Goal{{TargetDate: "2027-01-01"}}, now))
	assert.Equal(t, "Mediano plazo (3-7 años)", timeHorizon([]domain.Goal{{TargetDate: "2031-01-01"}}, now))
	assert.Equal(t, "Largo plazo (> 7 años)", timeHorizon([]domain.Goal{{TargetDate: "2040-01-01"}}, now))
}

func TestStrategyRecommendationsConservativeTSLA(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	acc := &domain.Account{
		Cash: domain.CashBalances{ARS: 1000},
		Positions: []domain.Position{
			{Type: domain.AssetStock, Symbol: "TSLA", Quantity: 10, AveragePrice: 100, Currency: domain.USD},
		},
	}
	profile := domain.InvestorProfile{RiskAppetite: domain.RiskConservative}
	target := targetAllocation(profile, nil, now)

	recs := recommendations(profile, acc, target, now)
	found := false
	for _, rec := range recs {
		if rec.Action == "rotate" && rec.Symbol == "TSLA" && rec.TargetSymbol == "JNJ" {
			found = true
		}
	}
	assert.True(t, found, "conservative holder of TSLA gets the rotation suggestion")
	assert.LessOrEqual(t, len(recs), 5)
}
