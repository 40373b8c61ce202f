package advisor

import (
	"strings"

	"github.com/mbelardi/finanzas/internal/domain"
)

var (
	conservativeAllocation = Allocation{Stocks: 20, Bonds: 50, Deposits: 30}
	balancedAllocation     = Allocation{Stocks: 50, Bonds: 30, Deposits: 20}
	aggressiveAllocation   = Allocation{Stocks: 80, Bonds: 15, Deposits: 5}
)

// AllocationScore rates an investor profile on a small additive scale:
// risk appetite weighs double, horizon, knowledge and age weigh one
// point each.
func AllocationScore(profile domain.InvestorProfile) int {
	score := 0

	switch profile.RiskAppetite {
	case domain.RiskConservative:
		score -= 2
	case domain.RiskAggressive:
		score += 2
	}

	if strings.Contains(profile.HoldingPeriod, "Largo plazo") {
		score++
	} else if strings.Contains(profile.HoldingPeriod, "Corto plazo") {
		score--
	}

	avg := profile.AverageKnowledge()
	if avg > 1.5 {
		score++
	}
	if avg < 1 {
		score--
	}

	switch profile.AgeGroup {
	case "18-30", "31-40":
		score++
	case "51-65", "65+":
		score--
	}

	return score
}

// SuggestAllocation maps the profile score onto the allocation bands.
// Scores between the anchor bands get the midpoint of the two
// neighboring allocations.
func SuggestAllocation(profile domain.InvestorProfile) Allocation {
	score := AllocationScore(profile)
	switch {
	case score <= -2:
		return conservativeAllocation
	case score <= 0:
		return midpoint(conservativeAllocation, balancedAllocation)
	case score <= 2:
		return midpoint(balancedAllocation, aggressiveAllocation)
	}
	return aggressiveAllocation
}

func midpoint(a, b Allocation) Allocation {
	return Allocation{
		Stocks:   (a.Stocks + b.Stocks) / 2,
		Bonds:    (a.Bonds + b.Bonds) / 2,
		Deposits: (a.Deposits + b.Deposits) / 2,
	}
}
