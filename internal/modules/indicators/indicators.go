// Package indicators computes technical indicators and a simple trade
// signal over stored daily bars.
package indicators

import (
	"math"

	"github.com/markcheno/go-talib"
)

// MACDValue is the MACD line, its signal line and the histogram
type MACDValue struct {
	Line      float64 `json:"line"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// Set holds the current value of every computed indicator. Fields are
// nil when the series is too short to compute them.
type Set struct {
	Symbol string     `json:"symbol"`
	Bars   int        `json:"bars"`
	RSI14  *float64   `json:"rsi14,omitempty"`
	SMA40  *float64   `json:"sma40,omitempty"`
	SMA200 *float64   `json:"sma200,omitempty"`
	EMA12  *float64   `json:"ema12,omitempty"`
	EMA26  *float64   `json:"ema26,omitempty"`
	EMA50  *float64   `json:"ema50,omitempty"`
	EMA150 *float64   `json:"ema150,omitempty"`
	ADX14  *float64   `json:"adx14,omitempty"`
	MACD   *MACDValue `json:"macd,omitempty"`
}

// Compute derives the full indicator set from OHLC series. The three
// slices must be aligned and in ascending date order. Each indicator is
// gated on its own warmup length, so short series yield nil fields
// instead of an error.
func Compute(symbol string, highs, lows, closes []float64) Set {
	n := len(closes)
	set := Set{Symbol: symbol, Bars: n}

	if n >= 15 {
		set.RSI14 = last(talib.Rsi(closes, 14))
	}
	if n >= 40 {
		set.SMA40 = last(talib.Sma(closes, 40))
	}
	if n >= 200 {
		set.SMA200 = last(talib.Sma(closes, 200))
	}
	if n >= 12 {
		set.EMA12 = last(talib.Ema(closes, 12))
	}
	if n >= 26 {
		set.EMA26 = last(talib.Ema(closes, 26))
	}
	if n >= 50 {
		set.EMA50 = last(talib.Ema(closes, 50))
	}
	if n >= 150 {
		set.EMA150 = last(talib.Ema(closes, 150))
	}

	if n >= 28 && len(highs) == n && len(lows) == n {
		set.ADX14 = last(talib.Adx(highs, lows, closes, 14))
	}

	if n >= 35 {
		line, signal, hist := talib.Macd(closes, 12, 26, 9)
		l, s, h := last(line), last(signal), last(hist)
		if l != nil && s != nil && h != nil {
			set.MACD = &MACDValue{Line: *l, Signal: *s, Histogram: *h}
		}
	}

	return set
}

func last(series []float64) *float64 {
	if len(series) == 0 {
		return nil
	}
	v := series[len(series)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
