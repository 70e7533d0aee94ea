// Package errors_test provides comprehensive table-driven unit tests for the
// error code definitions in pkg/errors/codes.go.
package errors_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/turtacn/tender-intel/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Test data — exhaustive table of every declared ErrorCode
// ─────────────────────────────────────────────────────────────────────────────

type codeEntry struct {
	code           errors.ErrorCode
	expectedString string
	expectedHTTP   int
}

// allCodes enumerates every ErrorCode constant defined in codes.go together
// with its expected String() output and expected HTTPStatus() mapping.
// The table is the single source of truth for both test functions below.
var allCodes = []codeEntry{
	// ── General ──────────────────────────────────────────────────────────────
	{errors.CodeOK, "OK", http.StatusOK},
	{errors.CodeUnknown, "UNKNOWN", http.StatusInternalServerError},
	{errors.CodeInvalidParam, "INVALID_PARAM", http.StatusBadRequest},
	{errors.CodeUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized},
	{errors.CodeForbidden, "FORBIDDEN", http.StatusForbidden},
	{errors.CodeNotFound, "NOT_FOUND", http.StatusNotFound},
	{errors.CodeConflict, "CONFLICT", http.StatusConflict},
	{errors.CodeRateLimit, "RATE_LIMIT", http.StatusTooManyRequests},
	{errors.CodeInternal, "INTERNAL_ERROR", http.StatusInternalServerError},
	{errors.CodeNotImplemented, "NOT_IMPLEMENTED", http.StatusNotImplemented},

	// ── Document ──────────────────────────────────────────────────────────────
	{errors.CodeDocumentNotFound, "DOCUMENT_NOT_FOUND", http.StatusNotFound},
	{errors.CodeDocumentUnreadable, "DOCUMENT_UNREADABLE", http.StatusInternalServerError},
	{errors.CodeUnsupportedFormat, "UNSUPPORTED_FORMAT", http.StatusBadRequest},
	{errors.CodeChunkingFailed, "CHUNKING_FAILED", http.StatusBadRequest},

	// ── Classification ────────────────────────────────────────────────────────
	{errors.CodeTaxonomyInvalid, "TAXONOMY_INVALID", http.StatusBadRequest},
	{errors.CodeEmbeddingUnavailable, "EMBEDDING_UNAVAILABLE", http.StatusServiceUnavailable},
	{errors.CodeEmbeddingDimensionMismatch, "EMBEDDING_DIMENSION_MISMATCH", http.StatusBadRequest},
	{errors.CodeClassificationFailed, "CLASSIFICATION_FAILED", http.StatusInternalServerError},

	// ── Validation ────────────────────────────────────────────────────────────
	{errors.CodeRuleSetInvalid, "RULE_SET_INVALID", http.StatusBadRequest},
	{errors.CodeValidationFailed, "VALIDATION_FAILED", http.StatusInternalServerError},

	// ── Risk ──────────────────────────────────────────────────────────────────
	{errors.CodeIndicatorSetInvalid, "INDICATOR_SET_INVALID", http.StatusInternalServerError},
	{errors.CodeRiskAssessmentFailed, "RISK_ASSESSMENT_FAILED", http.StatusInternalServerError},

	// ── RUC ───────────────────────────────────────────────────────────────────
	{errors.CodeRUCNotFound, "RUC_NOT_FOUND", http.StatusNotFound},
	{errors.CodeRUCChecksumInvalid, "RUC_CHECKSUM_INVALID", http.StatusInternalServerError},
	{errors.CodeRUCSuffixRejected, "RUC_SUFFIX_REJECTED", http.StatusInternalServerError},

	// ── Comparison ────────────────────────────────────────────────────────────
	{errors.CodeComparisonInsufficientDocs, "COMPARISON_INSUFFICIENT_DOCS", http.StatusBadRequest},
	{errors.CodeComparisonStageUnavailable, "COMPARISON_STAGE_UNAVAILABLE", http.StatusInternalServerError},

	// ── Orchestrator ──────────────────────────────────────────────────────────
	{errors.CodeRunNotFound, "RUN_NOT_FOUND", http.StatusNotFound},
	{errors.CodeStageTimeout, "STAGE_TIMEOUT", http.StatusGatewayTimeout},
	{errors.CodeStageFailed, "STAGE_FAILED", http.StatusInternalServerError},
	{errors.CodeWorkerPoolExhausted, "WORKER_POOL_EXHAUSTED", http.StatusServiceUnavailable},

	// ── Infrastructure ────────────────────────────────────────────────────────
	{errors.CodeDBConnectionError, "DB_CONNECTION_ERROR", http.StatusServiceUnavailable},
	{errors.CodeDBQueryError, "DB_QUERY_ERROR", http.StatusInternalServerError},
	{errors.CodeCacheError, "CACHE_ERROR", http.StatusInternalServerError},
	{errors.CodeSearchError, "SEARCH_ERROR", http.StatusInternalServerError},
	{errors.CodeMessageQueueError, "MESSAGE_QUEUE_ERROR", http.StatusServiceUnavailable},
	{errors.CodeStorageError, "STORAGE_ERROR", http.StatusServiceUnavailable},
}

// ─────────────────────────────────────────────────────────────────────────────
// TestErrorCode_String
// ─────────────────────────────────────────────────────────────────────────────

// TestErrorCode_String verifies that every declared ErrorCode returns the
// expected non-empty string representation from its String() method.
func TestErrorCode_String(t *testing.T) {
	t.Parallel()

	for _, tc := range allCodes {
		tc := tc // capture range variable
		t.Run(tc.expectedString, func(t *testing.T) {
			t.Parallel()

			got := tc.code.String()

			// Must never be empty.
			assert.NotEmpty(t, got,
				"String() for code %d must not be empty", int(tc.code))

			// Must match the exact expected name.
			assert.Equal(t, tc.expectedString, got,
				"String() for code %d returned unexpected value", int(tc.code))
		})
	}
}

// TestErrorCode_String_Unknown verifies that an ErrorCode value that does not
// correspond to any declared constant returns the sentinel string "UNKNOWN_CODE".
func TestErrorCode_String_Unknown(t *testing.T) {
	t.Parallel()

	unknownCodes := []errors.ErrorCode{
		errors.ErrorCode(99999),
		errors.ErrorCode(-1),
		errors.ErrorCode(1),
		errors.ErrorCode(12345),
	}

	for _, code := range unknownCodes {
		code := code
		t.Run("", func(t *testing.T) {
			t.Parallel()
			got := code.String()
			assert.NotEmpty(t, got,
				"String() must never return an empty string even for unknown codes")
			assert.Equal(t, "UNKNOWN_CODE", got,
				"String() for undeclared code %d should return UNKNOWN_CODE", int(code))
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// TestErrorCode_HTTPStatus
// ─────────────────────────────────────────────────────────────────────────────

// TestErrorCode_HTTPStatus verifies that every declared ErrorCode returns the
// correct HTTP status code from its HTTPStatus() method.
func TestErrorCode_HTTPStatus(t *testing.T) {
	t.Parallel()

	for _, tc := range allCodes {
		tc := tc
		t.Run(tc.expectedString, func(t *testing.T) {
			t.Parallel()

			got := tc.code.HTTPStatus()

			assert.Equal(t, tc.expectedHTTP, got,
				"HTTPStatus() for %s (code %d) returned %d, want %d",
				tc.expectedString, int(tc.code), got, tc.expectedHTTP)
		})
	}
}

// TestErrorCode_HTTPStatus_SpecificMappings provides explicit, named test cases
// for the most commonly referenced mappings so that failures produce maximally
// descriptive output.
func TestErrorCode_HTTPStatus_SpecificMappings(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		code errors.ErrorCode
		want int
	}{
		{"NotFound→404", errors.CodeNotFound, http.StatusNotFound},
		{"Unauthorized→401", errors.CodeUnauthorized, http.StatusUnauthorized},
		{"InvalidParam→400", errors.CodeInvalidParam, http.StatusBadRequest},
		{"Internal→500", errors.CodeInternal, http.StatusInternalServerError},
		{"RateLimit→429", errors.CodeRateLimit, http.StatusTooManyRequests},
		{"DocumentNotFound→404", errors.CodeDocumentNotFound, http.StatusNotFound},
		{"UnsupportedFormat→400", errors.CodeUnsupportedFormat, http.StatusBadRequest},
		{"StageTimeout→504", errors.CodeStageTimeout, http.StatusGatewayTimeout},
		{"EmbeddingUnavailable→503", errors.CodeEmbeddingUnavailable, http.StatusServiceUnavailable},
		{"DBConnectionError→503", errors.CodeDBConnectionError, http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.code.HTTPStatus(),
				"HTTPStatus() mismatch for %s", tc.name)
		})
	}
}

// TestErrorCode_HTTPStatus_Unknown verifies that any undeclared ErrorCode
// falls through to the default branch and returns 500 Internal Server Error.
func TestErrorCode_HTTPStatus_Unknown(t *testing.T) {
	t.Parallel()

	unknownCodes := []errors.ErrorCode{
		errors.ErrorCode(99999),
		errors.ErrorCode(-1),
		errors.ErrorCode(1),
	}

	for _, code := range unknownCodes {
		code := code
		t.Run("", func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, http.StatusInternalServerError, code.HTTPStatus(),
				"HTTPStatus() for undeclared code %d should default to 500", int(code))
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// TestErrorCode_AllCodesHaveValidHTTPStatus ensures that every code in the
// master table maps to a valid, well-known HTTP status code (i.e. one of the
// values defined in net/http). This guards against typos such as returning
// 40 instead of 400.
// ─────────────────────────────────────────────────────────────────────────────
func TestErrorCode_AllCodesHaveValidHTTPStatus(t *testing.T) {
	t.Parallel()

	validStatuses := map[int]bool{
		http.StatusOK:                  true,
		http.StatusBadRequest:          true,
		http.StatusUnauthorized:        true,
		http.StatusForbidden:           true,
		http.StatusNotFound:            true,
		http.StatusConflict:            true,
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusServiceUnavailable:  true,
		http.StatusGatewayTimeout:      true,
		http.StatusNotImplemented:      true,
	}

	for _, tc := range allCodes {
		tc := tc
		t.Run(tc.expectedString, func(t *testing.T) {
			t.Parallel()
			status := tc.code.HTTPStatus()
			assert.True(t, validStatuses[status],
				"HTTPStatus() for %s returned unexpected status code %d",
				tc.expectedString, status)
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// TestErrorCode_DomainRanges validates that each error code integer value falls
// within the expected numeric range for its business domain. This prevents
// accidental cross-domain code collisions as the codebase grows.
// ─────────────────────────────────────────────────────────────────────────────
func TestErrorCode_DomainRanges(t *testing.T) {
	t.Parallel()

	type rangeEntry struct {
		code errors.ErrorCode
		low  int
		high int
		name string
	}

	ranges := []rangeEntry{
		// General
		{errors.CodeOK, 0, 0, "CodeOK"},
		{errors.CodeUnknown, 10000, 10999, "CodeUnknown"},
		{errors.CodeInvalidParam, 10000, 10999, "CodeInvalidParam"},
		{errors.CodeUnauthorized, 10000, 10999, "CodeUnauthorized"},
		{errors.CodeForbidden, 10000, 10999, "CodeForbidden"},
		{errors.CodeNotFound, 10000, 10999, "CodeNotFound"},
		{errors.CodeConflict, 10000, 10999, "CodeConflict"},
		{errors.CodeRateLimit, 10000, 10999, "CodeRateLimit"},
		{errors.CodeInternal, 10000, 10999, "CodeInternal"},
		// Document
		{errors.CodeDocumentNotFound, 20000, 29999, "CodeDocumentNotFound"},
		{errors.CodeDocumentUnreadable, 20000, 29999, "CodeDocumentUnreadable"},
		{errors.CodeUnsupportedFormat, 20000, 29999, "CodeUnsupportedFormat"},
		{errors.CodeChunkingFailed, 20000, 29999, "CodeChunkingFailed"},
		// Classification
		{errors.CodeTaxonomyInvalid, 30000, 39999, "CodeTaxonomyInvalid"},
		{errors.CodeEmbeddingUnavailable, 30000, 39999, "CodeEmbeddingUnavailable"},
		{errors.CodeEmbeddingDimensionMismatch, 30000, 39999, "CodeEmbeddingDimensionMismatch"},
		{errors.CodeClassificationFailed, 30000, 39999, "CodeClassificationFailed"},
		// Validation
		{errors.CodeRuleSetInvalid, 40000, 49999, "CodeRuleSetInvalid"},
		{errors.CodeValidationFailed, 40000, 49999, "CodeValidationFailed"},
		// Risk
		{errors.CodeIndicatorSetInvalid, 50000, 59999, "CodeIndicatorSetInvalid"},
		{errors.CodeRiskAssessmentFailed, 50000, 59999, "CodeRiskAssessmentFailed"},
		// RUC
		{errors.CodeRUCNotFound, 60000, 69999, "CodeRUCNotFound"},
		{errors.CodeRUCChecksumInvalid, 60000, 69999, "CodeRUCChecksumInvalid"},
		{errors.CodeRUCSuffixRejected, 60000, 69999, "CodeRUCSuffixRejected"},
		// Comparison
		{errors.CodeComparisonInsufficientDocs, 70000, 79999, "CodeComparisonInsufficientDocs"},
		{errors.CodeComparisonStageUnavailable, 70000, 79999, "CodeComparisonStageUnavailable"},
		// Orchestrator
		{errors.CodeRunNotFound, 80000, 89999, "CodeRunNotFound"},
		{errors.CodeStageTimeout, 80000, 89999, "CodeStageTimeout"},
		{errors.CodeStageFailed, 80000, 89999, "CodeStageFailed"},
		{errors.CodeWorkerPoolExhausted, 80000, 89999, "CodeWorkerPoolExhausted"},
		// Infrastructure
		{errors.CodeDBConnectionError, 90000, 99999, "CodeDBConnectionError"},
		{errors.CodeDBQueryError, 90000, 99999, "CodeDBQueryError"},
		{errors.CodeCacheError, 90000, 99999, "CodeCacheError"},
		{errors.CodeSearchError, 90000, 99999, "CodeSearchError"},
		{errors.CodeMessageQueueError, 90000, 99999, "CodeMessageQueueError"},
		{errors.CodeStorageError, 90000, 99999, "CodeStorageError"},
	}

	for _, r := range ranges {
		r := r
		t.Run(r.name, func(t *testing.T) {
			t.Parallel()
			v := int(r.code)
			assert.GreaterOrEqual(t, v, r.low,
				"%s value %d is below domain lower bound %d", r.name, v, r.low)
			assert.LessOrEqual(t, v, r.high,
				"%s value %d is above domain upper bound %d", r.name, v, r.high)
		})
	}
}
