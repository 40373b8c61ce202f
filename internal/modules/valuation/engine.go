// Package valuation replays an account's transaction log against stored
// price snapshots to produce point-in-time values and daily historical
// series for charting.
package valuation

import (
	"sort"
	"time"

	"github.com/mbelardi/finanzas/internal/domain"
)

// PriceSource resolves stored close prices for tradable instruments
type PriceSource interface {
	LatestCloseOnOrBefore(symbol, day string) (float64, error)
	LatestCloseBefore(symbol, day string) (float64, error)
	LatestClose(symbol string) (float64, error)
}

// Engine computes valuations. It is stateless; all inputs come from the
// account and the price source.
type Engine struct {
	prices PriceSource
	now    func() time.Time
}

// NewEngine creates a valuation engine
func NewEngine(prices PriceSource) *Engine {
	return &Engine{prices: prices, now: time.Now}
}

// tradeHolding is a replayed tradable position keyed by identifier and
// currency, mirroring the ledger's aggregation rule.
type tradeHolding struct {
	identifier string
	typ        domain.AssetType
	quantity   float64
	currency   domain.Currency
}

// instrument is a replayed amount-based position
type instrument struct {
	id       string
	typ      domain.AssetType
	amount   float64
	rate     float64
	currency domain.Currency
	start    time.Time
	maturity time.Time // zero for open-ended instruments
	matured  bool
}

// replayState folds transactions day by day
type replayState struct {
	holdings    map[string]*tradeHolding
	instruments map[string]*instrument
	cashARS     float64
	cashUSD     float64
}

func newReplayState() *replayState {
	return &replayState{
		holdings:    make(map[string]*tradeHolding),
		instruments: make(map[string]*instrument),
	}
}

func holdingKey(identifier string, cur domain.Currency) string {
	return identifier + "_" + string(cur)
}

func (st *replayState) addCash(cur domain.Currency, amount float64) {
	if cur == domain.USD {
		st.cashUSD += amount
		return
	}
	st.cashARS += amount
}

// apply folds one transaction into the running state
func (st *replayState) apply(tx domain.Transaction) {
	switch tx.Type {
	case domain.TxDeposit:
		st.addCash(tx.Currency, tx.Amount)
	case domain.TxWithdrawal:
		st.addCash(tx.Currency, -tx.Amount)
	case domain.TxBuy:
		key := holdingKey(tx.Identifier(), tx.Currency)
		h, ok := st.holdings[key]
		if !ok {
			h = &tradeHolding{identifier: tx.Identifier(), typ: tx.AssetType, currency: tx.Currency}
			st.holdings[key] = h
		}
		h.quantity += tx.Quantity
		st.addCash(tx.Currency, -tx.TotalCost())
	case domain.TxSell:
		key := holdingKey(tx.Identifier(), tx.Currency)
		if h, ok := st.holdings[key]; ok {
			h.quantity -= tx.Quantity
			if h.quantity <= 0 {
				delete(st.holdings, key)
			}
		}
		st.addCash(tx.Currency, tx.NetProceeds())
	case domain.TxCreate:
		inst := &instrument{
			id:       tx.PositionID,
			typ:      tx.AssetType,
			amount:   tx.Amount,
			rate:     tx.AnnualRate,
			currency: tx.Currency,
		}
		if d, err := domain.Day(tx.Date); err == nil {
			inst.start = d
		}
		if tx.MaturityDate != "" {
			if d, err := domain.Day(tx.MaturityDate); err == nil {
				inst.maturity = d
			}
		}
		st.instruments[tx.PositionID] = inst
		st.addCash(tx.Currency, -tx.Amount)
	case domain.TxUpdate:
		if inst, ok := st.instruments[tx.PositionID]; ok {
			st.addCash(inst.currency, inst.amount)
			st.addCash(tx.Currency, -tx.Amount)
			inst.amount = tx.Amount
			inst.rate = tx.AnnualRate
			inst.currency = tx.Currency
			if tx.MaturityDate != "" {
				if d, err := domain.Day(tx.MaturityDate); err == nil {
					inst.maturity = d
				}
			}
		}
	case domain.TxDelete:
		if inst, ok := st.instruments[tx.PositionID]; ok {
			st.addCash(inst.currency, inst.amount)
			delete(st.instruments, tx.PositionID)
		}
	}
}

// valueOn returns an instrument's value on a given day: principal plus
// simple daily interest, capped at maturity for term instruments that
// hold their final value until credited.
func (inst *instrument) valueOn(day time.Time) float64 {
	if !inst.start.IsZero() && day.Before(inst.start) {
		return 0
	}

	days := 0.0
	if !inst.start.IsZero() {
		end := day
		if inst.typ.IsTermInstrument() && !inst.maturity.IsZero() && day.After(inst.maturity) {
			end = inst.maturity
		}
		days = end.Sub(inst.start).Hours() / 24
	}
	if days < 0 {
		days = 0
	}
	return inst.amount + inst.amount*(inst.rate/100/365)*days
}

// valueHoldings prices every open tradable position for a day, summing
// per currency. Symbols with no resolvable snapshot contribute nothing.
func (e *Engine) valueHoldings(st *replayState, day string) (ars, usd float64) {
	for _, h := range st.holdings {
		if h.quantity <= 0 {
			continue
		}
		price, err := e.prices.LatestCloseOnOrBefore(h.identifier, day)
		if err != nil || price <= 0 {
			continue
		}
		value := h.quantity * price
		if h.currency == domain.USD {
			usd += value
		} else {
			ars += value
		}
	}
	return ars, usd
}

// SummaryHistory builds the daily summary series from the first
// transaction through today. Days whose computed total is exactly zero
// while the previous day was positive carry the previous value forward,
// and leading all-zero days are trimmed.
func (e *Engine) SummaryHistory(acc *domain.Account) []domain.SummaryEntry {
	if len(acc.Transactions) == 0 {
		return []domain.SummaryEntry{}
	}

	txs := sortedTransactions(acc)
	firstDay, err := domain.Day(txs[0].Date)
	if err != nil {
		return []domain.SummaryEntry{}
	}
	lastDay := e.today()

	byDay := make(map[string][]domain.Transaction)
	for _, tx := range txs {
		d, err := domain.Day(tx.Date)
		if err != nil {
			continue
		}
		key := d.Format("2006-01-02")
		byDay[key] = append(byDay[key], tx)
	}

	st := newReplayState()
	var series []domain.SummaryEntry
	var prevTotalARS, prevTotalUSD float64
	investedARS, investedUSD := 0.0, 0.0

	for day := firstDay; !day.After(lastDay); day = day.AddDate(0, 0, 1) {
		dayStr := day.Format("2006-01-02")
		for _, tx := range byDay[dayStr] {
			st.apply(tx)
			dARS, dUSD := investedDelta(tx)
			investedARS += dARS
			investedUSD += dUSD
		}

		ars, usd := e.valueHoldings(st, dayStr)
		for _, inst := range st.instruments {
			v := inst.valueOn(day)
			if inst.currency == domain.USD {
				usd += v
			} else {
				ars += v
			}
		}
		totalARS := st.cashARS + ars
		totalUSD := st.cashUSD + usd

		// stale-price tolerance: an all-zero computed day after a
		// positive one means "no data", not "worthless"
		if totalARS == 0 && totalUSD == 0 && (prevTotalARS > 0 || prevTotalUSD > 0) {
			totalARS = prevTotalARS
			totalUSD = prevTotalUSD
		} else {
			prevTotalARS = totalARS
			prevTotalUSD = totalUSD
		}

		series = append(series, domain.SummaryEntry{
			Date:        dayStr,
			TotalARS:    totalARS,
			TotalUSD:    totalUSD,
			InvestedARS: investedARS,
			InvestedUSD: investedUSD,
			CashARS:     st.cashARS,
			CashUSD:     st.cashUSD,
		})
	}

	return TrimLeadingZeros(series)
}

// investedDelta is the contribution of one transaction to net invested
// capital: trade base amounts without fees, instrument principal on
// create and delete.
func investedDelta(tx domain.Transaction) (ars, usd float64) {
	var delta float64
	switch tx.Type {
	case domain.TxBuy:
		delta = tx.Quantity * tx.Price
	case domain.TxSell:
		delta = -tx.Quantity * tx.Price
	case domain.TxCreate:
		delta = tx.Amount
	case domain.TxDelete:
		delta = -tx.Amount
	default:
		return 0, 0
	}
	if tx.Currency == domain.USD {
		return 0, delta
	}
	return delta, 0
}

// TrimLeadingZeros removes leading all-zero days so charts start at the
// first economically meaningful entry.
func TrimLeadingZeros(series []domain.SummaryEntry) []domain.SummaryEntry {
	for i, e := range series {
		if !e.IsZero() {
			return series[i:]
		}
	}
	return []domain.SummaryEntry{}
}

// GainPoint is one day of reconstructed cumulative net gains
type GainPoint struct {
	Date     string  `json:"date"`
	GainsARS float64 `json:"gainsARS"`
	GainsUSD float64 `json:"gainsUSD"`
}

// CumulativeGains reconstructs daily net gains as the running sum of
// day-over-day deltas in total value. Must be fed the trimmed series.
func CumulativeGains(series []domain.SummaryEntry) []GainPoint {
	if len(series) == 0 {
		return []GainPoint{}
	}
	points := make([]GainPoint, len(series))
	points[0] = GainPoint{Date: series[0].Date}
	for i := 1; i < len(series); i++ {
		points[i] = GainPoint{
			Date:     series[i].Date,
			GainsARS: points[i-1].GainsARS + (series[i].TotalARS - series[i-1].TotalARS),
			GainsUSD: points[i-1].GainsUSD + (series[i].TotalUSD - series[i-1].TotalUSD),
		}
	}
	return points
}

func (e *Engine) today() time.Time {
	n := e.now().UTC()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

func sortedTransactions(acc *domain.Account) []domain.Transaction {
	txs := make([]domain.Transaction, len(acc.Transactions))
	copy(txs, acc.Transactions)
	sort.SliceStable(txs, func(i, j int) bool {
		di, erri := domain.Day(txs[i].Date)
		dj, errj := domain.Day(txs[j].Date)
		if erri != nil || errj != nil {
			return txs[i].Date < txs[j].Date
		}
		return di.Before(dj)
	})
	return txs
}
