// Package document holds the core data model shared by every analysis
// stage: Document, Fragment, SectionAssignment, ValidationRecord,
// RiskAssessment, RUCRecord, AnalysisArtifact, and Comparison. Types here
// are pure value objects; no component other than the one that produces a
// record is allowed to mutate it once written.
package document

import "time"

// AnalysisLevel selects how thorough a pipeline run should be.
type AnalysisLevel string

const (
	LevelBasic         AnalysisLevel = "basic"
	LevelComprehensive AnalysisLevel = "comprehensive"
)

// ValidationLevel is the overall compliance verdict for a document.
type ValidationLevel string

const (
	ValidationAprobado               ValidationLevel = "APROBADO"
	ValidationAprobadoConObservacion ValidationLevel = "APROBADO_CON_OBSERVACIONES"
	ValidationRechazado              ValidationLevel = "RECHAZADO"
)

// ComplianceLevel buckets a compliance category's pass rate.
type ComplianceLevel string

const (
	ComplianceLow    ComplianceLevel = "low"
	ComplianceMedium ComplianceLevel = "medium"
	ComplianceHigh   ComplianceLevel = "high"
)

// RiskLevel buckets a risk category or overall risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskVeryHigh RiskLevel = "very_high"
)

// RUCBucket classifies the overall quality of an extracted contractor ID set.
type RUCBucket string

const (
	RUCExcelente  RUCBucket = "EXCELENTE"
	RUCBueno      RUCBucket = "BUENO"
	RUCDeficiente RUCBucket = "DEFICIENTE"
)

// StageStatus is the terminal outcome of a single orchestrator stage.
type StageStatus string

const (
	StageSuccess StageStatus = "success"
	StageFailed  StageStatus = "failed"
	StageSkipped StageStatus = "skipped"
)

// OverallStatus is the terminal outcome of an entire pipeline run.
type OverallStatus string

const (
	OverallSuccess        OverallStatus = "success"
	OverallPartialSuccess OverallStatus = "partial_success"
	OverallFailed         OverallStatus = "failed"
)

// RunStage names a node in the orchestrator's state machine.
type RunStage string

const (
	StageIdle        RunStage = "IDLE"
	StageExtracting  RunStage = "EXTRACTING"
	StageChunking    RunStage = "CHUNKING"
	StageClassifying RunStage = "CLASSIFYING"
	StageValidating  RunStage = "VALIDATING"
	StageRisk        RunStage = "RISK"
	StageRUC         RunStage = "RUC"
	StageAggregating RunStage = "AGGREGATING"
	StageDone        RunStage = "DONE"
	StageFailedNode  RunStage = "FAILED"
)

// Document is the immutable record created on ingest. DocID is the SHA-256
// fingerprint of the declared type concatenated with canonicalized text, so
// re-uploading byte-identical content yields the same DocID.
type Document struct {
	DocID        string    `json:"doc_id"`
	Path         string    `json:"path"`
	DeclaredType string    `json:"declared_type"`
	DetectedType string    `json:"detected_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// CharSpan is a half-open [Start, End) byte offset range into a document's
// canonicalized text.
type CharSpan struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Fragment is one chunk produced by the text chunker. It is immutable once
// created; assignment fields are populated by the classification agent on
// the same run and never touched again.
type Fragment struct {
	FragID               string    `json:"frag_id"`
	DocID                string    `json:"doc_id"`
	Ordinal              int       `json:"ordinal"`
	Text                 string    `json:"text"`
	CharSpan             CharSpan  `json:"char_span"`
	Vector               []float32 `json:"vector,omitempty"`
	AssignedSection      string    `json:"assigned_section,omitempty"`
	AssignmentConfidence float64   `json:"assignment_confidence,omitempty"`
}

// SectionStats aggregates the fragments assigned to one taxonomy section
// for a single document.
type SectionStats struct {
	FragIDs        []string `json:"frag_ids"`
	AggregateChars int      `json:"aggregate_chars"`
	TopKeywords    []string `json:"top_keywords"`
	Confidence     float64  `json:"confidence"`
}

// SectionAssignment is the classification agent's per-document output:
// sectionKey -> aggregate stats. SectionKey "unclassified" catches fragments
// whose max confidence fell below the configured threshold.
type SectionAssignment struct {
	DocID    string                  `json:"doc_id"`
	Sections map[string]SectionStats `json:"sections"`
}

// StructuralCheck reports completeness of the expected taxonomy sections.
type StructuralCheck struct {
	RequiredSections int      `json:"required_sections"`
	FoundSections    int      `json:"found_sections"`
	Missing          []string `json:"missing"`
	CompletionPct    float64  `json:"completion_pct"`
	HasDates         bool     `json:"has_dates"`
	AdequateLength   bool     `json:"adequate_length"`
}

// ComplianceCategory is the per-category outcome of the rule engine.
type ComplianceCategory struct {
	Pct     float64  `json:"pct"`
	Missing []string `json:"missing"`
	Found   []string `json:"found"`
}

// ComplianceCheck is the compliance sub-validator's output.
type ComplianceCheck struct {
	RulesChecked int                           `json:"rules_checked"`
	RulesPassed  int                           `json:"rules_passed"`
	ByCategory   map[string]ComplianceCategory `json:"by_category"`
	OverallPct   float64                       `json:"overall_pct"`
	Level        ComplianceLevel               `json:"level"`
}

// DateCheck is the date-coherence sub-validator's output.
type DateCheck struct {
	Count     int       `json:"count"`
	Deadlines int       `json:"deadlines"`
	Samples   []string  `json:"samples"`
	Issues    []string  `json:"issues"`
}

// ValidationRecord is the validation agent's per-run output for one document.
type ValidationRecord struct {
	DocID          string          `json:"doc_id"`
	OverallScore   float64         `json:"overall_score"`
	Level          ValidationLevel `json:"level"`
	Structural     StructuralCheck `json:"structural"`
	Compliance     ComplianceCheck `json:"compliance"`
	Dates          DateCheck       `json:"dates"`
	Recommendations []string       `json:"recommendations"`
	Summary        string          `json:"summary"`
}

// CategoryRisk is the risk agent's per-category score.
type CategoryRisk struct {
	Score             float64   `json:"score"`
	Level             RiskLevel `json:"level"`
	IndicatorsDetected int      `json:"indicators_detected"`
	Mentions          []string  `json:"mentions"`
	SemanticRisks     []string  `json:"semantic_risks"`
	Weight            float64   `json:"weight"`
}

// RiskBucketCount groups how many categories fall in each risk bucket for the
// comparison/report layers.
type RiskBucketCount struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// RiskAssessment is the risk agent's per-run output for one document.
type RiskAssessment struct {
	DocID         string                  `json:"doc_id"`
	CategoryRisks map[string]CategoryRisk `json:"category_risks"`
	TotalScore    float64                 `json:"total_score"`
	OverallLevel  RiskLevel               `json:"overall_level"`
	CriticalRisks []string                `json:"critical_risks"`
	Mitigations   []string                `json:"mitigations"`
	Matrix        RiskBucketCount         `json:"matrix"`
}

// RUCCandidate is one extracted-and-checked contractor ID.
type RUCCandidate struct {
	Raw                string  `json:"raw"`
	Normalized         string  `json:"normalized"`
	ChecksumValid      bool    `json:"checksum_valid"`
	Verified           bool    `json:"verified"`
	Activity           string  `json:"activity,omitempty"`
	CompatibilityScore float64 `json:"compatibility_score,omitempty"`
}

// RUCRecord is the RUC validator's per-run output for one document.
type RUCRecord struct {
	DocID string         `json:"doc_id"`
	Found []RUCCandidate `json:"found"`
	Score float64        `json:"score"`
	Bucket RUCBucket     `json:"bucket"`
}

// StageResult captures one orchestrator stage's terminal status.
type StageResult struct {
	Status    StageStatus `json:"status"`
	Data      interface{} `json:"data,omitempty"`
	Errors    []string    `json:"errors,omitempty"`
	StartedAt time.Time   `json:"started_at"`
	EndedAt   time.Time   `json:"ended_at"`
}

// AnalysisArtifact is the orchestrator's final per-run output: the single
// record downstream consumers (comparison, report assembler) read.
type AnalysisArtifact struct {
	RunID           string                 `json:"run_id"`
	DocID           string                 `json:"doc_id"`
	AnalysisLevel   AnalysisLevel          `json:"analysis_level"`
	StageResults    map[string]StageResult `json:"stage_results"`
	OverallStatus   OverallStatus          `json:"overall_status"`
	KeyFindings     []string               `json:"key_findings"`
	Recommendations []string               `json:"recommendations"`
	CreatedAt       time.Time              `json:"created_at"`
}

// RunID derives the artifact identity from its docID and analysis level, per
// the fingerprinting rule in the data model.
func RunID(docID string, level AnalysisLevel) string {
	return docID + ":" + string(level)
}

// DimensionValue is one document's value for one comparison dimension.
type DimensionValue struct {
	DocID     string  `json:"doc_id"`
	Numeric   float64 `json:"numeric,omitempty"`
	Category  string  `json:"category,omitempty"`
	Available bool    `json:"available"`
}

// DimensionDiff is the aggregate differential for a single comparison
// dimension across all participating documents.
type DimensionDiff struct {
	Dimension string           `json:"dimension"`
	Min       float64          `json:"min,omitempty"`
	Max       float64          `json:"max,omitempty"`
	Mean      float64          `json:"mean,omitempty"`
	Mode      string           `json:"mode,omitempty"`
	PerDoc    []DimensionValue `json:"per_doc"`
	Rank      []string         `json:"rank,omitempty"`
}

// Comparison is a read-only, frozen view over N analysis artifacts for the
// same analysis level.
type Comparison struct {
	ComparisonID  string                       `json:"comparison_id"`
	PerDoc        map[string]string            `json:"per_doc"` // docID -> runID
	DiffMatrix    map[string]DimensionDiff      `json:"diff_matrix"`
	AnalysisLevel AnalysisLevel                `json:"analysis_level"`
	CreatedAt     time.Time                    `json:"created_at"`
}

// RunStatus is the polling response for an in-flight or completed run.
type RunStatus struct {
	RunID         string        `json:"run_id"`
	Stage         RunStage      `json:"stage"`
	Progress      float64       `json:"progress"`
	OverallStatus OverallStatus `json:"overall_status"`
	ArtifactRefs  []string      `json:"artifact_refs,omitempty"`
}
