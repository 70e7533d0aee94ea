package document

import "context"

// Repository persists and retrieves every record produced by the analysis
// pipeline. A single implementation backs both the artifact store (on-disk
// JSON per the persisted layout) and any future database-backed store;
// callers depend only on this interface.
type Repository interface {
	SaveDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, docID string) (*Document, error)

	SaveFragments(ctx context.Context, runID string, fragments []Fragment) error
	GetFragments(ctx context.Context, runID string) ([]Fragment, error)

	SaveSectionAssignment(ctx context.Context, runID string, sa *SectionAssignment) error
	GetSectionAssignment(ctx context.Context, runID string) (*SectionAssignment, error)

	SaveValidationRecord(ctx context.Context, runID string, vr *ValidationRecord) error
	GetValidationRecord(ctx context.Context, runID string) (*ValidationRecord, error)

	SaveRiskAssessment(ctx context.Context, runID string, ra *RiskAssessment) error
	GetRiskAssessment(ctx context.Context, runID string) (*RiskAssessment, error)

	SaveRUCRecord(ctx context.Context, runID string, rr *RUCRecord) error
	GetRUCRecord(ctx context.Context, runID string) (*RUCRecord, error)

	SaveArtifact(ctx context.Context, artifact *AnalysisArtifact) error
	GetArtifact(ctx context.Context, runID string) (*AnalysisArtifact, error)
	GetLatestArtifactForDoc(ctx context.Context, docID string) (*AnalysisArtifact, error)

	SaveComparison(ctx context.Context, cmp *Comparison) error
	GetComparison(ctx context.Context, comparisonID string) (*Comparison, error)

	SaveRunStatus(ctx context.Context, status *RunStatus) error
	GetRunStatus(ctx context.Context, runID string) (*RunStatus, error)
}
