package indicators

// Signal is a coarse trade recommendation
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
	SignalHold Signal = "hold"
)

// TradeSignal applies the signal rule to a computed indicator set: RSI
// extremes first, then the EMA 12/26 cross, hold when neither resolves.
func TradeSignal(set Set) (Signal, string) {
	if set.RSI14 != nil {
		if *set.RSI14 > 70 {
			return SignalSell, "RSI above 70, overbought"
		}
		if *set.RSI14 < 30 {
			return SignalBuy, "RSI below 30, oversold"
		}
	}

	if set.EMA12 != nil && set.EMA26 != nil {
		if *set.EMA12 > *set.EMA26 {
			return SignalBuy, "EMA12 above EMA26"
		}
		if *set.EMA12 < *set.EMA26 {
			return SignalSell, "EMA12 below EMA26"
		}
	}

	return SignalHold, "no clear signal"
}
