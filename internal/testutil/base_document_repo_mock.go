package testutil

import (
	"context"

	"github.com/turtacn/tender-intel/internal/domain/document"
)

// BaseDocumentRepoMock is a no-op document.Repository implementation for
// tests that need a dependency to satisfy an interface without caring about
// its behavior. Embed it and override only the methods a test exercises.
type BaseDocumentRepoMock struct{}

func (BaseDocumentRepoMock) SaveDocument(ctx context.Context, doc *document.Document) error {
	return nil
}
func (BaseDocumentRepoMock) GetDocument(ctx context.Context, docID string) (*document.Document, error) {
	return nil, nil
}

func (BaseDocumentRepoMock) SaveFragments(ctx context.Context, runID string, fragments []document.Fragment) error {
	return nil
}
func (BaseDocumentRepoMock) GetFragments(ctx context.Context, runID string) ([]document.Fragment, error) {
	return nil, nil
}

func (BaseDocumentRepoMock) SaveSectionAssignment(ctx context.Context, runID string, sa *document.SectionAssignment) error {
	return nil
}
func (BaseDocumentRepoMock) GetSectionAssignment(ctx context.Context, runID string) (*document.SectionAssignment, error) {
	return nil, nil
}

func (BaseDocumentRepoMock) SaveValidationRecord(ctx context.Context, runID string, vr *document.ValidationRecord) error {
	return nil
}
func (BaseDocumentRepoMock) GetValidationRecord(ctx context.Context, runID string) (*document.ValidationRecord, error) {
	return nil, nil
}

func (BaseDocumentRepoMock) SaveRiskAssessment(ctx context.Context, runID string, ra *document.RiskAssessment) error {
	return nil
}
func (BaseDocumentRepoMock) GetRiskAssessment(ctx context.Context, runID string) (*document.RiskAssessment, error) {
	return nil, nil
}

func (BaseDocumentRepoMock) SaveRUCRecord(ctx context.Context, runID string, rr *document.RUCRecord) error {
	return nil
}
func (BaseDocumentRepoMock) GetRUCRecord(ctx context.Context, runID string) (*document.RUCRecord, error) {
	return nil, nil
}

func (BaseDocumentRepoMock) SaveArtifact(ctx context.Context, artifact *document.AnalysisArtifact) error {
	return nil
}
func (BaseDocumentRepoMock) GetArtifact(ctx context.Context, runID string) (*document.AnalysisArtifact, error) {
	return nil, nil
}
func (BaseDocumentRepoMock) GetLatestArtifactForDoc(ctx context.Context, docID string) (*document.AnalysisArtifact, error) {
	return nil, nil
}

func (BaseDocumentRepoMock) SaveComparison(ctx context.Context, cmp *document.Comparison) error {
	return nil
}
func (BaseDocumentRepoMock) GetComparison(ctx context.Context, comparisonID string) (*document.Comparison, error) {
	return nil, nil
}

func (BaseDocumentRepoMock) SaveRunStatus(ctx context.Context, status *document.RunStatus) error {
	return nil
}
func (BaseDocumentRepoMock) GetRunStatus(ctx context.Context, runID string) (*document.RunStatus, error) {
	return nil, nil
}
