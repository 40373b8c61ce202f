package domain

// Bond is one quote row from the bond universe. Numeric quote fields are
// pointers because upstream feeds routinely omit them, and "unknown" must
// not score the same as zero.
type Bond struct {
	Ticker       string   `json:"ticker"`
	Name         string   `json:"name"`
	MaturityDate string   `json:"maturityDate,omitempty"`
	Currency     Currency `json:"currency"`
	Price        *float64 `json:"price,omitempty"`
	TIR          *float64 `json:"tir,omitempty"`
	UPTIR        *float64 `json:"uptir,omitempty"`
	Parity       *float64 `json:"parity,omitempty"`
	Duration     *float64 `json:"duration,omitempty"`
	Volume       *float64 `json:"volume,omitempty"`
	CouponRate   *float64 `json:"couponRate,omitempty"`
}

// Fund is one mutual fund row from the CAFCI cache
type Fund struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Category         string   `json:"category"`
	Currency         Currency `json:"currency"`
	TNA              *float64 `json:"tna,omitempty"`
	MonthlyReturnPct *float64 `json:"monthlyReturnPct,omitempty"`
}
