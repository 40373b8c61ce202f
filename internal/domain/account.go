// Package domain holds the core account, position and transaction model
// shared by the ledger, valuation and advisor modules.
package domain

import "time"

// Currency is an accepted cash currency
type Currency string

const (
	ARS Currency = "ARS"
	USD Currency = "USD"
)

// IsValid checks if the currency is one of the supported values
func (c Currency) IsValid() bool {
	return c == ARS || c == USD
}

// CashBalances tracks available cash per currency.
// Balances are never negative after a successful ledger operation.
type CashBalances struct {
	ARS float64 `json:"ARS"`
	USD float64 `json:"USD"`
}

// Get returns the balance for a currency
func (c CashBalances) Get(cur Currency) float64 {
	if cur == USD {
		return c.USD
	}
	return c.ARS
}

// Add credits (or debits, with a negative amount) a currency balance
func (c *CashBalances) Add(cur Currency, amount float64) {
	if cur == USD {
		c.USD += amount
		return
	}
	c.ARS += amount
}

// Goal is a savings target tracked against the portfolio
type Goal struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	TargetAmount        float64  `json:"targetAmount"`
	TargetDate          string   `json:"targetDate"` // YYYY-MM-DD
	InitialDeposit      float64  `json:"initialDeposit"`
	MonthlyContribution float64  `json:"monthlyContribution"`
	Currency            Currency `json:"currency"`
}

// TargetAllocation is a percentage split across asset classes
type TargetAllocation struct {
	Stocks   float64 `json:"stocks"`
	Bonds    float64 `json:"bonds"`
	Deposits float64 `json:"deposits"`
	Cash     float64 `json:"cash"`
}

// StrategyRecommendation is one actionable suggestion inside a strategy
type StrategyRecommendation struct {
	ID             string `json:"id"`
	Action         string `json:"action"` // increase, decrease, rotate
	AssetClass     string `json:"assetClass,omitempty"`
	Symbol         string `json:"symbol,omitempty"`
	TargetSymbol   string `json:"targetSymbol,omitempty"`
	Reason         string `json:"reason"`
	Priority       string `json:"priority"` // high, medium, low
	ExpectedImpact string `json:"expectedImpact"`
}

// InvestmentStrategy stores the last generated allocation strategy
type InvestmentStrategy struct {
	ID               string                   `json:"id"`
	CreatedAt        string                   `json:"createdAt"`
	TargetAllocation TargetAllocation         `json:"targetAllocation"`
	Recommendations  []StrategyRecommendation `json:"recommendations"`
	RiskLevel        RiskAppetite             `json:"riskLevel"`
	TimeHorizon      string                   `json:"timeHorizon"`
	Notes            string                   `json:"notes,omitempty"`
}

// Account is the full per-user state: profile, cash, positions and the
// append-only transaction log they are derived from.
type Account struct {
	Username         string              `json:"username"`
	CreatedAt        string              `json:"createdAt"`
	ProfileCompleted bool                `json:"profileCompleted"`
	Profile          *InvestorProfile    `json:"profile,omitempty"`
	Cash             CashBalances        `json:"cash"`
	Positions        []Position          `json:"positions"`
	Transactions     []Transaction       `json:"transactions"`
	Goals            []Goal              `json:"goals"`
	Strategy         *InvestmentStrategy `json:"investmentStrategy,omitempty"`
}

// NewAccount creates an empty account for a freshly seen username
func NewAccount(username string, now time.Time) *Account {
	return &Account{
		Username:     username,
		CreatedAt:    now.UTC().Format(time.RFC3339),
		Positions:    []Position{},
		Transactions: []Transaction{},
		Goals:        []Goal{},
		Cash:         CashBalances{},
	}
}

// Day parses an ISO date or datetime string and truncates it to midnight UTC
func Day(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
