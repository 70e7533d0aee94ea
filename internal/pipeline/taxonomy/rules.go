package taxonomy

import "regexp"

// RuleKind distinguishes how a compliance rule's predicate is evaluated.
type RuleKind string

const (
	RuleKindRegex           RuleKind = "regex"
	RuleKindKeywordSet      RuleKind = "keyword_set"
	RuleKindSectionPresence RuleKind = "section_presence"
)

// ComplianceRule is one (predicate, category) pair in the rule set applied
// by the validation agent. DocTypes restricts which declared document types
// the rule applies to; an empty slice means "all types".
type ComplianceRule struct {
	ID          string
	Category    string
	Kind        RuleKind
	Pattern     string
	Keywords    []string
	SectionKey  string
	DocTypes    []string
	Remediation string
	compiled    *regexp.Regexp
}

// Compile lazily compiles the rule's regex pattern, if any, and returns it.
func (r *ComplianceRule) Compile() (*regexp.Regexp, error) {
	if r.Kind != RuleKindRegex {
		return nil, nil
	}
	if r.compiled != nil {
		return r.compiled, nil
	}
	re, err := regexp.Compile(r.Pattern)
	if err != nil {
		return nil, err
	}
	r.compiled = re
	return re, nil
}

// AppliesTo reports whether the rule is scoped to the given declared doc type.
func (r *ComplianceRule) AppliesTo(docType string) bool {
	if len(r.DocTypes) == 0 {
		return true
	}
	for _, t := range r.DocTypes {
		if t == docType {
			return true
		}
	}
	return false
}

// DefaultRules returns the built-in compliance rule set for construction
// tender documents. No rule sets DocTypes, so every rule applies to every
// declared document type.
func DefaultRules() []ComplianceRule {
	return []ComplianceRule{
		{ID: "rc-001", Category: "legal", Kind: RuleKindKeywordSet,
			Keywords: []string{"ley de contrataciones", "reglamento de la ley"},
			Remediation: "Cite the applicable procurement law and its regulation"},
		{ID: "rc-002", Category: "legal", Kind: RuleKindSectionPresence,
			SectionKey: "legal_requirements", Remediation: "Add a legal requirements section"},
		{ID: "rc-003", Category: "economic", Kind: RuleKindRegex,
			Pattern: `(?i)presupuesto\s+(referencial|base)`, Remediation: "State the reference/base budget"},
		{ID: "rc-004", Category: "economic", Kind: RuleKindKeywordSet,
			Keywords: []string{"forma de pago", "valorización"}, Remediation: "Describe the payment method"},
		{ID: "rc-005", Category: "technical", Kind: RuleKindSectionPresence,
			SectionKey: "technical_specifications", Remediation: "Add a technical specifications section"},
		{ID: "rc-006", Category: "technical", Kind: RuleKindKeywordSet,
			Keywords: []string{"norma técnica", "control de calidad"}, Remediation: "Reference applicable technical standards"},
		{ID: "rc-007", Category: "schedule", Kind: RuleKindRegex,
			Pattern: `(?i)plazo\s+de\s+ejecuci[oó]n`, Remediation: "State the execution deadline"},
		{ID: "rc-008", Category: "schedule", Kind: RuleKindSectionPresence,
			SectionKey: "timeline_schedule", Remediation: "Add a schedule/timeline section"},
		{ID: "rc-009", Category: "contractor", Kind: RuleKindKeywordSet,
			Keywords: []string{"requisitos de calificación", "experiencia del postor"},
			Remediation: "State contractor qualification requirements"},
		{ID: "rc-010", Category: "contractor", Kind: RuleKindRegex,
			Pattern: `(?i)\bruc\b`, Remediation: "Require disclosure of the contractor's RUC"},
	}
}
