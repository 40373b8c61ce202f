package advisor

import "github.com/mbelardi/finanzas/internal/domain"

// RiskProfile is the advisor-facing risk bucket derived from the survey
type RiskProfile string

const (
	ProfileConservative RiskProfile = "conservador"
	ProfileModerate     RiskProfile = "moderado"
	ProfileAggressive   RiskProfile = "arriesgado"
)

// IsValid checks if the profile token is a known value
func (p RiskProfile) IsValid() bool {
	return p == ProfileConservative || p == ProfileModerate || p == ProfileAggressive
}

// ProfileFromAppetite maps the survey's risk appetite to an advisor
// profile. Anything unset or unknown counts as moderate.
func ProfileFromAppetite(appetite domain.RiskAppetite) RiskProfile {
	switch appetite {
	case domain.RiskConservative:
		return ProfileConservative
	case domain.RiskAggressive:
		return ProfileAggressive
	}
	return ProfileModerate
}

// Allocation is a recommended portfolio split in percent
type Allocation struct {
	Stocks   float64 `json:"stocks"`
	Bonds    float64 `json:"bonds"`
	Deposits float64 `json:"deposits"`
}

// BondRecommendation pairs a bond with its fit score and the reasons
// shown to the user.
type BondRecommendation struct {
	Bond    domain.Bond `json:"bond"`
	Score   float64     `json:"score"`
	Reasons []string    `json:"reasons"`
}
