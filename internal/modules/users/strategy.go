package users

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mbelardi/finanzas/internal/domain"
)

var techSymbols = map[string]bool{
	"AAPL": true, "MSFT": true, "GOOGL": true, "AMZN": true,
	"TSLA": true, "NVDA": true, "META": true,
}

var rotationCandidates = []string{"NFLX", "JPM", "JNJ"}

// GenerateStrategy builds a target allocation plus a short list of
// recommendations from the profile, goals and current book. Position
// values use average prices, good enough for allocation percentages.
func GenerateStrategy(acc *domain.Account, now time.Time) domain.InvestmentStrategy {
	profile := *acc.Profile
	target := targetAllocation(profile, acc.Goals, now)

	return domain.InvestmentStrategy{
		ID:               fmt.Sprintf("strategy_%s", uuid.New().String()),
		CreatedAt:        now.UTC().Format(time.RFC3339),
		TargetAllocation: target,
		Recommendations:  recommendations(profile, acc, target, now),
		RiskLevel:        profile.RiskAppetite,
		TimeHorizon:      timeHorizon(acc.Goals, now),
		Notes:            strategyNotes(profile, acc.Goals),
	}
}

func targetAllocation(profile domain.InvestorProfile, goals []domain.Goal, now time.Time) domain.TargetAllocation {
	stocks, bonds, deposits, cash := 60.0, 30.0, 5.0, 5.0

	switch profile.RiskAppetite {
	case domain.RiskConservative:
		stocks, bonds, deposits, cash = 40, 45, 10, 5
	case domain.RiskAggressive:
		stocks, bonds, deposits, cash = 80, 15, 3, 2
	}

	years := averageYearsToGoal(goals, now)
	if years < 3 {
		stocks = math.Max(20, stocks-20)
		bonds = math.Min(60, bonds+15)
		deposits = math.Min(15, deposits+5)
	} else if years > 10 {
		stocks = math.Min(90, stocks+15)
		bonds = math.Max(5, bonds-10)
		deposits = math.Max(2, deposits-2)
	}

	switch profile.KnowledgeLevels["stocks"] {
	case domain.KnowledgeHigh:
		stocks = math.Min(90, stocks+5)
		bonds = math.Max(5, bonds-3)
		deposits = math.Max(2, deposits-2)
	case domain.KnowledgeLow:
		stocks = math.Max(30, stocks-10)
		bonds = math.Min(50, bonds+5)
		deposits = math.Min(15, deposits+5)
	}

	return domain.TargetAllocation{Stocks: stocks, Bonds: bonds, Deposits: deposits, Cash: cash}
}

// currentAllocation measures the book at average prices, in percent of
// total value including ARS cash.
func currentAllocation(acc *domain.Account) (stocks, bonds, deposits, cash, total float64) {
	cashValue := acc.Cash.ARS + acc.Cash.USD
	total = cashValue

	var stocksValue, bondsValue, depositsValue float64
	for _, pos := range acc.Positions {
		switch pos.Type {
		case domain.AssetStock, domain.AssetCrypto:
			stocksValue += pos.Quantity * pos.AveragePrice
		case domain.AssetBond:
			bondsValue += pos.Quantity * pos.AveragePrice
		case domain.AssetFixedTermDeposit, domain.AssetCaucion:
			depositsValue += pos.Amount
		}
	}
	total += stocksValue + bondsValue + depositsValue
	if total <= 0 {
		return 0, 0, 0, 0, 0
	}
	return stocksValue / total * 100, bondsValue / total * 100,
		depositsValue / total * 100, cashValue / total * 100, total
}

func recommendations(profile domain.InvestorProfile, acc *domain.Account, target domain.TargetAllocation, now time.Time) []domain.StrategyRecommendation {
	var recs []domain.StrategyRecommendation
	add := func(rec domain.StrategyRecommendation) {
		rec.ID = fmt.Sprintf("rec_%s", uuid.New().String())
		recs = append(recs, rec)
	}

	stocks, bonds, _, _, total := currentAllocation(acc)
	cashValue := acc.Cash.ARS + acc.Cash.USD

	if stocks < target.Stocks-5 {
		add(domain.StrategyRecommendation{
			Action:     "increase",
			AssetClass: "stocks",
			Reason:     fmt.Sprintf("Tu portafolio tiene %.1f%% en acciones, pero tu estrategia objetivo es %.0f%%", stocks, target.Stocks),
			Priority:   "high", ExpectedImpact: "positive",
		})
	} else if stocks > target.Stocks+5 {
		add(domain.StrategyRecommendation{
			Action:     "decrease",
			AssetClass: "stocks",
			Reason:     fmt.Sprintf("Tu portafolio tiene %.1f%% en acciones, pero tu estrategia objetivo es %.0f%%", stocks, target.Stocks),
			Priority:   "medium", ExpectedImpact: "neutral",
		})
	}

	if bonds < target.Bonds-5 {
		add(domain.StrategyRecommendation{
			Action:     "increase",
			AssetClass: "bonds",
			Reason:     fmt.Sprintf("Tu portafolio tiene %.1f%% en bonos, pero tu estrategia objetivo es %.0f%%", bonds, target.Bonds),
			Priority:   "high", ExpectedImpact: "positive",
		})
	}

	held := make(map[string]bool)
	techCount := 0
	for _, pos := range acc.Positions {
		if pos.Type != domain.AssetStock {
			continue
		}
		held[pos.Symbol] = true
		if techSymbols[pos.Symbol] {
			techCount++
		}
	}

	if techCount > 3 {
		for _, alt := range rotationCandidates {
			if !held[alt] {
				add(domain.StrategyRecommendation{
					Action:       "rotate",
					TargetSymbol: alt,
					Reason:       "Tu portafolio está muy concentrado en tecnología. Considera diversificar",
					Priority:     "medium", ExpectedImpact: "positive",
				})
				break
			}
		}
	}

	if profile.RiskAppetite == domain.RiskConservative && held["TSLA"] {
		add(domain.StrategyRecommendation{
			Action:       "rotate",
			Symbol:       "TSLA",
			TargetSymbol: "JNJ",
			Reason:       "TSLA es muy volátil para un perfil conservador. Considera JNJ",
			Priority:     "high", ExpectedImpact: "positive",
		})
	}

	if total > 0 && cashValue > total*0.15 {
		add(domain.StrategyRecommendation{
			Action:     "decrease",
			AssetClass: "cash",
			Reason:     "Tienes mucho efectivo disponible. Considera invertirlo según tu estrategia",
			Priority:   "medium", ExpectedImpact: "positive",
		})
	} else if total > 0 && cashValue < total*0.02 {
		add(domain.StrategyRecommendation{
			Action:     "increase",
			AssetClass: "cash",
			Reason:     "Tu efectivo disponible es bajo. Considera mantener más liquidez",
			Priority:   "low", ExpectedImpact: "neutral",
		})
	}

	if shortTermGoals(acc.Goals, now) > 0 && stocks > 70 {
		add(domain.StrategyRecommendation{
			Action:     "decrease",
			AssetClass: "stocks",
			Reason:     "Tienes metas a corto plazo. Considera reducir la exposición a acciones",
			Priority:   "high", ExpectedImpact: "positive",
		})
	}

	if len(recs) > 5 {
		recs = recs[:5]
	}
	return recs
}

func averageYearsToGoal(goals []domain.Goal, now time.Time) float64 {
	if len(goals) == 0 {
		return 5
	}
	sum := 0.0
	for _, goal := range goals {
		if d, err := domain.Day(goal.TargetDate); err == nil {
			sum += d.Sub(now).Hours() / 24 / 365.25
		}
	}
	return sum / float64(len(goals))
}

func shortTermGoals(goals []domain.Goal, now time.Time) int {
	n := 0
	for _, goal := range goals {
		if d, err := domain.Day(goal.TargetDate); err == nil {
			if d.Sub(now).Hours()/24/365.25 < 3 {
				n++
			}
		}
	}
	return n
}

func timeHorizon(goals []domain.Goal, now time.Time) string {
	if len(goals) == 0 {
		return "5-10 años"
	}
	years := averageYearsToGoal(goals, now)
	switch {
	case years < 3:
		return "Corto plazo (< 3 años)"
	case years < 7:
		return "Mediano plazo (3-7 años)"
	}
	return "Largo plazo (> 7 años)"
}

func strategyNotes(profile domain.InvestorProfile, goals []domain.Goal) string {
	var notes []string

	switch profile.RiskAppetite {
	case domain.RiskConservative:
		notes = append(notes, "Estrategia conservadora: prioriza la preservación de capital")
	case domain.RiskAggressive:
		notes = append(notes, "Estrategia agresiva: busca maximizar retornos asumiendo mayor riesgo")
	}

	if len(goals) > 0 {
		notes = append(notes, fmt.Sprintf("Estrategia alineada con %d meta(s) de inversión", len(goals)))
	}

	if profile.KnowledgeLevels["stocks"] == domain.KnowledgeHigh {
		notes = append(notes, "Perfil de alto conocimiento: puede manejar instrumentos más complejos")
	}

	return strings.Join(notes, ". ")
}
