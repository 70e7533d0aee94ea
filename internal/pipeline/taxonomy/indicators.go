package taxonomy

// RiskCategory is one of the five fixed risk dimensions the risk agent scores.
type RiskCategory struct {
	Key        string
	Weight     float64
	Indicators map[string]int // term -> severity in [1,3]
	Templates  []MitigationTemplate
}

// MitigationTemplate is a canned mitigation suggestion, selected when its
// TriggerIndicators intersect the indicators that fired for a category.
type MitigationTemplate struct {
	Text               string
	TriggerIndicators  []string
}

// DefaultRiskCategories returns the five fixed risk categories with their
// indicator banks and weights. Weights need not sum to 1; totalScore is a
// weighted average normalized by the sum of weights.
func DefaultRiskCategories() []RiskCategory {
	return []RiskCategory{
		{
			Key: "technical", Weight: 0.25,
			Indicators: map[string]int{
				"incompatibilidad técnica": 3, "especificación ambigua": 2, "norma obsoleta": 2, "sin ensayo de calidad": 2,
			},
			Templates: []MitigationTemplate{
				{Text: "Require an independent technical review before award", TriggerIndicators: []string{"incompatibilidad técnica", "especificación ambigua"}},
			},
		},
		{
			Key: "economic", Weight: 0.25,
			Indicators: map[string]int{
				"presupuesto insuficiente": 3, "sin fórmula de reajuste": 2, "penalidad excesiva": 2, "anticipo no garantizado": 3,
			},
			Templates: []MitigationTemplate{
				{Text: "Request a revised budget breakdown with adjustment formula", TriggerIndicators: []string{"presupuesto insuficiente", "sin fórmula de reajuste"}},
			},
		},
		{
			Key: "legal", Weight: 0.2,
			Indicators: map[string]int{
				"cláusula ambigua": 2, "sin garantía de fiel cumplimiento": 3, "jurisdicción no especificada": 2, "responsabilidad ilimitada": 3,
			},
			Templates: []MitigationTemplate{
				{Text: "Escalate to legal counsel for clause review", TriggerIndicators: []string{"sin garantía de fiel cumplimiento", "responsabilidad ilimitada"}},
			},
		},
		{
			Key: "operational", Weight: 0.15,
			Indicators: map[string]int{
				"plazo irreal": 3, "recursos insuficientes": 2, "dependencia de terceros": 2,
			},
			Templates: []MitigationTemplate{
				{Text: "Revalidate the schedule against the contractor's declared capacity", TriggerIndicators: []string{"plazo irreal"}},
			},
		},
		{
			Key: "supplier", Weight: 0.15,
			Indicators: map[string]int{
				"proveedor único": 3, "sin historial verificable": 2, "capacidad financiera no acreditada": 2,
			},
			Templates: []MitigationTemplate{
				{Text: "Require a secondary supplier qualification path", TriggerIndicators: []string{"proveedor único"}},
			},
		},
	}
}
