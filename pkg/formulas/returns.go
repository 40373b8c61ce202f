package formulas

import (
	"math"
	"sort"
	"time"
)

const daysPerYear = 365.25

// CashFlow is a dated amount used for money-weighted return calculations.
// Negative amounts are investments (outflows), positive are withdrawals;
// the final flow should be the current portfolio value as an inflow.
type CashFlow struct {
	Date   time.Time
	Amount float64
}

// DatedValue is a point of a daily portfolio value series.
type DatedValue struct {
	Date  time.Time
	Value float64
}

// AnnualizedReturn computes the annualized return between two dated values,
// as a percentage rounded to 2 decimals.
//
// Formula: ((final/initial)^(1/years) - 1) * 100, years = days/365.25.
// Returns 0 when either value is non-positive or the range is non-positive.
func AnnualizedReturn(initialValue, finalValue float64, initialDate, finalDate time.Time) float64 {
	if initialValue <= 0 || finalValue <= 0 {
		return 0
	}

	years := finalDate.Sub(initialDate).Hours() / 24 / daysPerYear
	if years <= 0 {
		return 0
	}

	annualized := (math.Pow(finalValue/initialValue, 1/years) - 1) * 100
	return Round(annualized, 2)
}

// IRR computes the internal rate of return for a series of cash flows via
// Newton-Raphson, returned as a percentage rounded to 2 decimals.
func IRR(cashFlows []CashFlow, guess float64) float64 {
	if len(cashFlows) < 2 {
		return 0
	}

	sorted := make([]CashFlow, len(cashFlows))
	copy(sorted, cashFlows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	day0 := sorted[0].Date
	times := make([]float64, len(sorted))
	amounts := make([]float64, len(sorted))
	for i, cf := range sorted {
		times[i] = cf.Date.Sub(day0).Hours() / 24 / daysPerYear
		amounts[i] = cf.Amount
	}

	rate := guess
	for iter := 0; iter < 100; iter++ {
		var f, df float64
		for i := range amounts {
			t := times[i]
			a := amounts[i]
			f += a / math.Pow(1+rate, t)
			df += -a * t / math.Pow(1+rate, t+1)
		}
		if df == 0 {
			break
		}
		newRate := rate - f/df
		if math.Abs(newRate-rate) < 1e-7 {
			return Round(newRate*100, 2)
		}
		rate = newRate
	}

	return Round(rate*100, 2)
}

// TWR computes the time-weighted return over a daily value series,
// stripping out external cash flows, returned as a decimal.
func TWR(values []DatedValue, cashFlows []CashFlow) float64 {
	if len(values) < 2 {
		return 0
	}

	sortedValues := make([]DatedValue, len(values))
	copy(sortedValues, values)
	sort.Slice(sortedValues, func(i, j int) bool { return sortedValues[i].Date.Before(sortedValues[j].Date) })

	sortedFlows := make([]CashFlow, len(cashFlows))
	copy(sortedFlows, cashFlows)
	sort.Slice(sortedFlows, func(i, j int) bool { return sortedFlows[i].Date.Before(sortedFlows[j].Date) })

	twr := 1.0
	prevValue := sortedValues[0].Value
	flowIdx := 0

	for i := 1; i < len(sortedValues); i++ {
		currDate := sortedValues[i].Date
		flows := 0.0
		for flowIdx < len(sortedFlows) && !sortedFlows[flowIdx].Date.After(currDate) {
			flows += sortedFlows[flowIdx].Amount
			flowIdx++
		}
		if prevValue != 0 {
			periodReturn := (sortedValues[i].Value - flows - prevValue) / prevValue
			twr *= 1 + periodReturn
		}
		prevValue = sortedValues[i].Value
	}

	return twr - 1
}
