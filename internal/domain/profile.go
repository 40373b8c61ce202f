package domain

// RiskAppetite is the self-declared risk tolerance from the onboarding survey
type RiskAppetite string

const (
	RiskConservative RiskAppetite = "Conservador"
	RiskBalanced     RiskAppetite = "Balanceado"
	RiskAggressive   RiskAppetite = "Agresivo"
)

// IsValid checks if the risk appetite is a known value
func (r RiskAppetite) IsValid() bool {
	return r == RiskConservative || r == RiskBalanced || r == RiskAggressive
}

// KnowledgeLevel rates familiarity with one instrument class
type KnowledgeLevel string

const (
	KnowledgeLow    KnowledgeLevel = "Bajo"
	KnowledgeMedium KnowledgeLevel = "Medio"
	KnowledgeHigh   KnowledgeLevel = "Alto"
)

// Numeric maps a knowledge level to its score contribution (0, 1 or 2)
func (k KnowledgeLevel) Numeric() float64 {
	switch k {
	case KnowledgeHigh:
		return 2
	case KnowledgeMedium:
		return 1
	}
	return 0
}

// InvestorProfile is the onboarding survey result used by the advisor
type InvestorProfile struct {
	InstrumentsUsed    []string                  `json:"instrumentsUsed"`
	KnowledgeLevels    map[string]KnowledgeLevel `json:"knowledgeLevels"`
	HoldingPeriod      string                    `json:"holdingPeriod"`
	AgeGroup           string                    `json:"ageGroup"`
	RiskAppetite       RiskAppetite              `json:"riskAppetite"`
	InvestmentAmount   float64                   `json:"investmentAmount"`
	InvestmentSharePct float64                   `json:"investmentSharePct"`
}

// AverageKnowledge returns the mean numeric knowledge level across all
// rated instruments, 0 when none are rated.
func (p InvestorProfile) AverageKnowledge() float64 {
	if len(p.KnowledgeLevels) == 0 {
		return 0
	}
	total := 0.0
	for _, level := range p.KnowledgeLevels {
		total += level.Numeric()
	}
	return total / float64(len(p.KnowledgeLevels))
}
