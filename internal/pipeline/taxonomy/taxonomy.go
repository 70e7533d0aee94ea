// Package taxonomy defines the fixed 9-section classification taxonomy and
// the rule/indicator tables consumed by the classification, validation, and
// risk agents. All three tables are read-only after load; editing the
// taxonomy requires a schema bump per the classification agent's contract.
package taxonomy

// Section describes one node of the closed, 9-entry section taxonomy.
type Section struct {
	Key         string
	Keywords    []string
	Priority    int
	Description string
}

// SectionUnclassified is the sink bucket for fragments whose best-match
// confidence falls below the classification agent's threshold.
const SectionUnclassified = "unclassified"

// Default returns the fixed 9-section taxonomy. Pipeline.Taxonomy.Path is
// validated by the config package, but no loader reads a taxonomy from it.
func Default() []Section {
	return []Section{
		{Key: "general_conditions", Priority: 1, Description: "General conditions and contract framework",
			Keywords: []string{"condiciones generales", "contrato", "objeto del contrato", "partes", "alcance"}},
		{Key: "technical_specifications", Priority: 2, Description: "Technical specifications and materials",
			Keywords: []string{"especificaciones técnicas", "materiales", "normas técnicas", "calidad", "tolerancias"}},
		{Key: "economic_terms", Priority: 3, Description: "Pricing, payment, and budget",
			Keywords: []string{"presupuesto", "precio", "pago", "anticipo", "reajuste", "valorización"}},
		{Key: "legal_requirements", Priority: 4, Description: "Legal and regulatory compliance",
			Keywords: []string{"ley de contrataciones", "reglamento", "garantías", "penalidades", "resolución"}},
		{Key: "timeline_schedule", Priority: 5, Description: "Schedule, deadlines, and milestones",
			Keywords: []string{"cronograma", "plazo", "fecha límite", "hitos", "entrega"}},
		{Key: "evaluation_criteria", Priority: 6, Description: "Bid evaluation and scoring methodology",
			Keywords: []string{"criterios de evaluación", "puntaje", "calificación", "factores de evaluación"}},
		{Key: "contractor_requirements", Priority: 7, Description: "Contractor eligibility and qualifications",
			Keywords: []string{"requisitos del postor", "experiencia", "capacidad técnica", "ruc", "inscripción"}},
		{Key: "risk_management", Priority: 8, Description: "Risk allocation and mitigation",
			Keywords: []string{"riesgos", "seguros", "responsabilidad", "caso fortuito", "fuerza mayor"}},
		{Key: "administrative_procedures", Priority: 9, Description: "Administrative and procedural rules",
			Keywords: []string{"procedimiento administrativo", "notificación", "recursos", "consultas", "absolución"}},
	}
}

// Keys returns the ordered list of section keys, excluding the unclassified sink.
func Keys(sections []Section) []string {
	keys := make([]string, len(sections))
	for i, s := range sections {
		keys[i] = s.Key
	}
	return keys
}
