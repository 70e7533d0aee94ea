// Package validator implements the validation agent: a weighted blend of
// structural completeness, rule-based compliance, and date coherence checks
// over a classified document.
package validator

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/turtacn/tender-intel/internal/domain/document"
	"github.com/turtacn/tender-intel/internal/pipeline/taxonomy"
)

const (
	structuralWeight = 0.4
	complianceWeight = 0.4
	datesWeight      = 0.2

	levelAprobadoThreshold            = 80.0
	levelAprobadoConObservacion       = 50.0
	complianceHighThreshold           = 80.0
	complianceMediumThreshold         = 50.0
	minDistinctDatesForAdequacy       = 3
	minDeadlinePhrasesForAdequacy     = 1
	defaultMinDocumentLength          = 500
)

// minLengthByType gives the minimum canonicalized-text length considered
// "adequate" for each declared document type; unknown types fall back to
// defaultMinDocumentLength.
var minLengthByType = map[string]int{
	"bases_tecnicas":       1500,
	"bases_administrativas": 1200,
	"contrato":             2000,
	"adenda":               300,
	"tdr":                  800,
}

var (
	absoluteDateRe = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`)
	deadlineVerbRe = regexp.MustCompile(`(?i)(plazo|fecha\s+límite|vence|deberá\s+presentarse|fecha\s+de\s+entrega)`)
)

// Agent is the validation agent. rules and sections are normally
// taxonomy.DefaultRules() / taxonomy.Default(), injected for testability.
type Agent struct {
	rules    []taxonomy.ComplianceRule
	sections []taxonomy.Section
}

// New constructs a validation Agent.
func New(rules []taxonomy.ComplianceRule, sections []taxonomy.Section) *Agent {
	return &Agent{rules: rules, sections: sections}
}

// Validate runs all three sub-checks over fullText/assignment and returns
// the combined ValidationRecord for docID.
func (a *Agent) Validate(docID, docType, fullText string, assignment *document.SectionAssignment) *document.ValidationRecord {
	structural := a.checkStructural(docType, fullText, assignment)
	compliance := a.checkCompliance(docType, fullText, assignment)
	dates := checkDates(fullText)
	structural.HasDates = dates.Count > 0

	overall := structuralWeight*structural.CompletionPct +
		complianceWeight*compliance.OverallPct +
		datesWeight*dateScore(dates)

	rec := &document.ValidationRecord{
		DocID:        docID,
		OverallScore: overall,
		Level:        overallLevel(overall),
		Structural:   structural,
		Compliance:   compliance,
		Dates:        dates,
	}
	rec.Recommendations = a.recommendations(structural, compliance, dates)
	rec.Summary = summarize(rec)
	return rec
}

func (a *Agent) checkStructural(docType, fullText string, assignment *document.SectionAssignment) document.StructuralCheck {
	required := len(a.sections)
	found := 0
	var missing []string
	for _, sec := range a.sections {
		stats, ok := assignment.Sections[sec.Key]
		if ok && len(stats.FragIDs) > 0 {
			found++
		} else {
			missing = append(missing, sec.Key)
		}
	}

	minLen := minLengthByType[docType]
	if minLen == 0 {
		minLen = defaultMinDocumentLength
	}

	completionPct := 0.0
	if required > 0 {
		completionPct = float64(found) / float64(required) * 100
	}

	return document.StructuralCheck{
		RequiredSections: required,
		FoundSections:    found,
		Missing:          missing,
		CompletionPct:    completionPct,
		AdequateLength:   len(fullText) >= minLen,
	}
}

func (a *Agent) checkCompliance(docType, fullText string, assignment *document.SectionAssignment) document.ComplianceCheck {
	lower := strings.ToLower(fullText)
	byCategory := make(map[string]document.ComplianceCategory)
	checked, passed := 0, 0

	for i := range a.rules {
		rule := &a.rules[i]
		if !rule.AppliesTo(docType) {
			continue
		}
		checked++
		ok := evaluateRule(rule, lower, assignment)

		cat := byCategory[rule.Category]
		if ok {
			passed++
			cat.Found = append(cat.Found, rule.ID)
		} else {
			cat.Missing = append(cat.Missing, rule.ID)
		}
		byCategory[rule.Category] = cat
	}

	for cat, stats := range byCategory {
		total := len(stats.Found) + len(stats.Missing)
		if total > 0 {
			stats.Pct = float64(len(stats.Found)) / float64(total) * 100
		}
		byCategory[cat] = stats
	}

	overallPct := 0.0
	if checked > 0 {
		overallPct = float64(passed) / float64(checked) * 100
	}

	return document.ComplianceCheck{
		RulesChecked: checked,
		RulesPassed:  passed,
		ByCategory:   byCategory,
		OverallPct:   overallPct,
		Level:        complianceLevel(overallPct),
	}
}

func evaluateRule(rule *taxonomy.ComplianceRule, lowerText string, assignment *document.SectionAssignment) bool {
	switch rule.Kind {
	case taxonomy.RuleKindKeywordSet:
		for _, kw := range rule.Keywords {
			if strings.Contains(lowerText, strings.ToLower(kw)) {
				return true
			}
		}
		return false
	case taxonomy.RuleKindRegex:
		re, err := rule.Compile()
		if err != nil || re == nil {
			return false
		}
		return re.MatchString(lowerText)
	case taxonomy.RuleKindSectionPresence:
		stats, ok := assignment.Sections[rule.SectionKey]
		return ok && len(stats.FragIDs) > 0
	default:
		return false
	}
}

func checkDates(fullText string) document.DateCheck {
	matches := absoluteDateRe.FindAllString(fullText, -1)
	distinct := make(map[string]bool, len(matches))
	for _, m := range matches {
		distinct[m] = true
	}
	samples := make([]string, 0, len(distinct))
	for m := range distinct {
		samples = append(samples, m)
	}
	sort.Strings(samples)
	if len(samples) > 5 {
		samples = samples[:5]
	}

	deadlineMatches := deadlineVerbRe.FindAllString(fullText, -1)

	var issues []string
	if len(distinct) < minDistinctDatesForAdequacy {
		issues = append(issues, "fewer than 3 distinct dates found in document")
	}
	if len(deadlineMatches) < minDeadlinePhrasesForAdequacy {
		issues = append(issues, "no explicit deadline language found")
	}

	return document.DateCheck{
		Count:     len(distinct),
		Deadlines: len(deadlineMatches),
		Samples:   samples,
		Issues:    issues,
	}
}

func dateScore(d document.DateCheck) float64 {
	if d.Count >= minDistinctDatesForAdequacy && d.Deadlines >= minDeadlinePhrasesForAdequacy {
		return 100
	}
	if d.Count > 0 || d.Deadlines > 0 {
		return 50
	}
	return 0
}

func complianceLevel(pct float64) document.ComplianceLevel {
	switch {
	case pct >= complianceHighThreshold:
		return document.ComplianceHigh
	case pct >= complianceMediumThreshold:
		return document.ComplianceMedium
	default:
		return document.ComplianceLow
	}
}

func overallLevel(score float64) document.ValidationLevel {
	switch {
	case score >= levelAprobadoThreshold:
		return document.ValidationAprobado
	case score >= levelAprobadoConObservacion:
		return document.ValidationAprobadoConObservacion
	default:
		return document.ValidationRechazado
	}
}

func (a *Agent) recommendations(structural document.StructuralCheck, compliance document.ComplianceCheck, dates document.DateCheck) []string {
	var recs []string
	for _, missing := range structural.Missing {
		recs = append(recs, "Add a "+missing+" section")
	}
	for i := range a.rules {
		rule := &a.rules[i]
		cat, ok := compliance.ByCategory[rule.Category]
		if !ok {
			continue
		}
		for _, missingID := range cat.Missing {
			if missingID == rule.ID {
				recs = append(recs, rule.Remediation)
			}
		}
	}
	recs = append(recs, dates.Issues...)
	return dedupe(recs)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func summarize(rec *document.ValidationRecord) string {
	return strings.TrimSpace(strings.Join([]string{
		string(rec.Level),
		"-",
		"structural", percentString(rec.Structural.CompletionPct),
		"compliance", percentString(rec.Compliance.OverallPct),
	}, " "))
}

func percentString(pct float64) string {
	return strconv.FormatFloat(pct, 'f', 1, 64) + "%"
}
