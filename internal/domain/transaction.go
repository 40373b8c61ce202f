package domain

// TxType classifies a ledger entry
type TxType string

const (
	TxDeposit    TxType = "Deposit"
	TxWithdrawal TxType = "Withdrawal"
	TxBuy        TxType = "Buy"
	TxSell       TxType = "Sell"
	TxCreate     TxType = "Create"
	TxUpdate     TxType = "Update"
	TxDelete     TxType = "Delete"
)

// IsValid checks if the transaction type is a known value
func (t TxType) IsValid() bool {
	switch t {
	case TxDeposit, TxWithdrawal, TxBuy, TxSell, TxCreate, TxUpdate, TxDelete:
		return true
	}
	return false
}

// DepositSource tags deposits generated by the system rather than the user
type DepositSource string

const (
	SourceFixedTermPayout       DepositSource = "FixedTermPayout"
	SourceCaucionPayout         DepositSource = "CaucionPayout"
	SourceMutualFundLiquidation DepositSource = "MutualFundLiquidation"
)

// Transaction is one entry in the append-only ledger. Like Position it is
// a tagged union: cash movements carry Amount, trades carry the trade
// fields, instrument lifecycle entries carry the instrument snapshot.
type Transaction struct {
	ID   string `json:"id"`
	Date string `json:"date"` // RFC 3339 or YYYY-MM-DD
	Type TxType `json:"type"`

	// Trades and instrument entries
	AssetType AssetType `json:"assetType,omitempty"`

	// Trades (Buy, Sell)
	Symbol         string   `json:"symbol,omitempty"`
	Ticker         string   `json:"ticker,omitempty"`
	Quantity       float64  `json:"quantity,omitempty"`
	Price          float64  `json:"price,omitempty"`
	Market         Market   `json:"market,omitempty"`
	CommissionPct  *float64 `json:"commissionPct,omitempty"`
	PurchaseFeePct *float64 `json:"purchaseFeePct,omitempty"`

	// Cash movements and amount-based instruments
	Amount       float64       `json:"amount,omitempty"`
	Source       DepositSource `json:"source,omitempty"`
	PositionID   string        `json:"positionId,omitempty"`
	Provider     string        `json:"provider,omitempty"`
	Name         string        `json:"name,omitempty"`
	Category     string        `json:"category,omitempty"`
	AnnualRate   float64       `json:"annualRate,omitempty"`
	TermDays     int           `json:"termDays,omitempty"`
	MaturityDate string        `json:"maturityDate,omitempty"`

	Currency Currency `json:"currency"`
}

// Identifier returns the instrument key a trade refers to
func (t Transaction) Identifier() string {
	switch {
	case t.Symbol != "":
		return t.Symbol
	case t.Ticker != "":
		return t.Ticker
	}
	return t.PositionID
}

// TotalCost returns the cash debited by a Buy including percentage fees
func (t Transaction) TotalCost() float64 {
	base := t.Quantity * t.Price
	fees := 0.0
	if t.CommissionPct != nil {
		fees += *t.CommissionPct / 100
	}
	if t.PurchaseFeePct != nil {
		fees += *t.PurchaseFeePct / 100
	}
	return base * (1 + fees)
}

// NetProceeds returns the cash credited by a Sell after the commission
func (t Transaction) NetProceeds() float64 {
	base := t.Quantity * t.Price
	if t.CommissionPct != nil {
		return base * (1 - *t.CommissionPct/100)
	}
	return base
}
