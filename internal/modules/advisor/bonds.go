package advisor

import (
	"math"
	"sort"

	"github.com/mbelardi/finanzas/internal/domain"
)

// SuggestBonds scores every bond in the universe for a risk profile and
// returns the ones with positive score, best first. Ordering is stable
// so equally scored bonds keep their universe order.
func SuggestBonds(profile RiskProfile, bonds []domain.Bond) []BondRecommendation {
	recs := make([]BondRecommendation, 0, len(bonds))
	for _, bond := range bonds {
		score := BondScore(bond, profile)
		if score <= 0 {
			continue
		}
		recs = append(recs, BondRecommendation{
			Bond:    bond,
			Score:   score,
			Reasons: bondReasons(bond, profile),
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})
	return recs
}

// BondScore is a weighted additive fit score. Missing quote fields
// contribute nothing rather than scoring as zero values.
func BondScore(bond domain.Bond, profile RiskProfile) float64 {
	score := 0.0

	if bond.TIR != nil {
		weight := 0.7
		switch profile {
		case ProfileConservative:
			weight = 0.3
		case ProfileModerate:
			weight = 0.5
		}
		score += *bond.TIR / 100 * weight
	}

	if bond.Parity != nil {
		if profile == ProfileConservative {
			distanceFromPar := math.Abs(*bond.Parity - 100)
			score += (100 - distanceFromPar) / 100 * 0.4
		} else {
			score += *bond.Parity / 100 * 0.3
		}
	}

	if bond.UPTIR != nil {
		weight := 0.5
		switch profile {
		case ProfileConservative:
			weight = 0.1
		case ProfileModerate:
			weight = 0.3
		}
		score += *bond.UPTIR / 100 * weight
	}

	if bond.Duration != nil {
		switch profile {
		case ProfileConservative:
			score += 1 / math.Max(*bond.Duration, 1) * 0.2
		case ProfileAggressive:
			score += math.Min(*bond.Duration/10, 1) * 0.2
		}
	}

	if bond.Volume != nil {
		score += math.Min(*bond.Volume/1_000_000, 1) * 0.1
	}

	return score
}

func bondReasons(bond domain.Bond, profile RiskProfile) []string {
	var reasons []string

	if bond.TIR != nil {
		switch {
		case profile == ProfileConservative && *bond.TIR > 800:
			reasons = append(reasons, "TIR atractivo para perfil conservador")
		case profile == ProfileModerate && *bond.TIR > 1200:
			reasons = append(reasons, "TIR alto para perfil moderado")
		case profile == ProfileAggressive && *bond.TIR > 1500:
			reasons = append(reasons, "TIR muy alto para perfil arriesgado")
		}
	}

	if bond.Parity != nil {
		if profile == ProfileConservative && *bond.Parity >= 90 && *bond.Parity <= 110 {
			reasons = append(reasons, "Paridad cercana al valor nominal")
		} else if profile == ProfileAggressive && *bond.Parity > 120 {
			reasons = append(reasons, "Alta paridad para mayor retorno")
		}
	}

	if bond.UPTIR != nil && profile == ProfileAggressive && *bond.UPTIR > 1500 {
		reasons = append(reasons, "UPTIR alto para perfil arriesgado")
	}

	if bond.Volume != nil && *bond.Volume > 500_000 {
		reasons = append(reasons, "Alto volumen de negociación")
	}

	return reasons
}
