package domain

// AssetType classifies a position or trade
type AssetType string

const (
	AssetStock            AssetType = "Stock"
	AssetBond             AssetType = "Bond"
	AssetCrypto           AssetType = "Crypto"
	AssetFixedTermDeposit AssetType = "FixedTermDeposit"
	AssetCaucion          AssetType = "Caucion"
	AssetRealEstate       AssetType = "RealEstate"
	AssetMutualFund       AssetType = "MutualFund"
)

// IsValid checks if the asset type is a known value
func (a AssetType) IsValid() bool {
	switch a {
	case AssetStock, AssetBond, AssetCrypto, AssetFixedTermDeposit,
		AssetCaucion, AssetRealEstate, AssetMutualFund:
		return true
	}
	return false
}

// IsTradable reports whether the type is priced per unit and bought/sold
// on an exchange, as opposed to amount-based instruments.
func (a AssetType) IsTradable() bool {
	switch a {
	case AssetStock, AssetBond, AssetCrypto:
		return true
	}
	return false
}

// IsTermInstrument reports whether the type accrues simple daily interest
// from a start date to a maturity date.
func (a AssetType) IsTermInstrument() bool {
	return a == AssetFixedTermDeposit || a == AssetCaucion
}

// Market distinguishes local and foreign listings for stocks
type Market string

const (
	MarketBCBA    Market = "BCBA"
	MarketNYSE    Market = "NYSE"
	MarketNASDAQ  Market = "NASDAQ"
	MarketBinance Market = "BINANCE"
)

// Position is a single holding. It is a tagged union over Type: tradable
// assets use Symbol/Ticker, Quantity and AveragePrice; amount-based
// instruments use ID, Amount and the term fields. Unused fields stay zero
// and are omitted from JSON.
type Position struct {
	Type AssetType `json:"type"`

	// Tradable instruments (Stock, Bond, Crypto)
	Symbol       string  `json:"symbol,omitempty"` // stocks and crypto
	Ticker       string  `json:"ticker,omitempty"` // bonds
	Quantity     float64 `json:"quantity,omitempty"`
	AveragePrice float64 `json:"averagePrice,omitempty"`
	Market       Market  `json:"market,omitempty"`

	// Amount-based instruments
	ID           string   `json:"id,omitempty"`
	Provider     string   `json:"provider,omitempty"`
	Name         string   `json:"name,omitempty"`
	Category     string   `json:"category,omitempty"` // mutual fund category
	Amount       float64  `json:"amount,omitempty"`
	AnnualRate   float64  `json:"annualRate,omitempty"`
	StartDate    string   `json:"startDate,omitempty"`
	MaturityDate string   `json:"maturityDate,omitempty"`
	TermDays     int      `json:"termDays,omitempty"`
	CurrentTNA   *float64 `json:"currentTna,omitempty"` // mutual fund money-market rate

	Currency Currency `json:"currency"`
}

// Identifier returns the key that makes a position unique within an
// account: symbol for stocks and crypto, ticker for bonds, id otherwise.
func (p Position) Identifier() string {
	switch {
	case p.Symbol != "":
		return p.Symbol
	case p.Ticker != "":
		return p.Ticker
	}
	return p.ID
}

// Matches reports whether the position is the same holding as the given
// type/identifier pair, comparing currency for tradables so the same
// symbol can be held in ARS and USD separately.
func (p Position) Matches(t AssetType, identifier string, cur Currency) bool {
	if p.Type != t {
		return false
	}
	if p.Type.IsTradable() {
		return p.Identifier() == identifier && p.Currency == cur
	}
	return p.ID == identifier
}
