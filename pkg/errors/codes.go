// Package errors provides centralized error code definitions for the
// tender-intel platform. All error codes are grouped by business domain and
// mapped to HTTP status codes.
package errors

import "net/http"

// ErrorCode represents a typed error code used throughout the tender-intel
// platform. Codes are partitioned by domain to avoid conflicts and simplify
// maintenance.
type ErrorCode int

// ─────────────────────────────────────────────────────────────────────────────
// General / cross-cutting error codes  (1xxxx)
// ─────────────────────────────────────────────────────────────────────────────
const (
	// CodeOK indicates no error.
	CodeOK ErrorCode = 0

	// CodeUnknown is a catch-all for errors that have not been categorised.
	CodeUnknown ErrorCode = 10000

	// CodeInvalidParam is returned when one or more request parameters fail
	// validation (missing required fields, type mismatch, out-of-range values, etc.).
	CodeInvalidParam ErrorCode = 10001

	// CodeUnauthorized is returned when a request lacks valid authentication credentials.
	CodeUnauthorized ErrorCode = 10002

	// CodeForbidden is returned when authenticated credentials do not grant access
	// to the requested resource or action.
	CodeForbidden ErrorCode = 10003

	// CodeNotFound is returned when the requested resource does not exist.
	CodeNotFound ErrorCode = 10004

	// CodeConflict is returned when a create/update operation violates a uniqueness
	// or state constraint (e.g., duplicate resource, optimistic lock failure).
	CodeConflict ErrorCode = 10005

	// CodeRateLimit is returned when the caller has exceeded the allowed request rate.
	CodeRateLimit ErrorCode = 10006

	// CodeInternal is returned for unexpected server-side errors that are not
	// attributable to the caller.
	CodeInternal ErrorCode = 10007

	// CodeNotImplemented is returned when a requested feature or endpoint is
	// not yet implemented.
	CodeNotImplemented ErrorCode = 10008
)

// ─────────────────────────────────────────────────────────────────────────────
// Document domain error codes  (2xxxx)
// ─────────────────────────────────────────────────────────────────────────────
const (
	// CodeDocumentNotFound is returned when a document with the requested docId
	// cannot be located in the registry or artifact store.
	CodeDocumentNotFound ErrorCode = 20001

	// CodeDocumentUnreadable is returned when the declared document type cannot
	// be opened or its content cannot be normalised to text.
	CodeDocumentUnreadable ErrorCode = 20002

	// CodeUnsupportedFormat is returned when a document's format is not one of
	// the formats the extractor adapter knows how to handle.
	CodeUnsupportedFormat ErrorCode = 20003

	// CodeChunkingFailed is returned when the text chunker cannot produce a
	// valid fragment sequence (e.g., reconstruction check fails).
	CodeChunkingFailed ErrorCode = 20004
)

// ─────────────────────────────────────────────────────────────────────────────
// Classification domain error codes  (3xxxx)
// ─────────────────────────────────────────────────────────────────────────────
const (
	// CodeTaxonomyInvalid is returned when the section taxonomy fails to load
	// or validate (missing section keys, empty keyword sets, etc.).
	CodeTaxonomyInvalid ErrorCode = 30001

	// CodeEmbeddingUnavailable is returned when every configured embedding
	// provider has failed for a given call.
	CodeEmbeddingUnavailable ErrorCode = 30002

	// CodeEmbeddingDimensionMismatch is returned when an embedding vector's
	// dimensionality does not match the collection it is being inserted into.
	CodeEmbeddingDimensionMismatch ErrorCode = 30003

	// CodeClassificationFailed is returned when the classification agent
	// cannot produce a section assignment for a fragment.
	CodeClassificationFailed ErrorCode = 30004
)

// ─────────────────────────────────────────────────────────────────────────────
// Validation domain error codes  (4xxxx)
// ─────────────────────────────────────────────────────────────────────────────
const (
	// CodeRuleSetInvalid is returned when the compliance rule set fails to load
	// or parse.
	CodeRuleSetInvalid ErrorCode = 40001

	// CodeValidationFailed is returned when the validation agent cannot
	// complete its structural/compliance/dates sub-checks.
	CodeValidationFailed ErrorCode = 40002
)

// ─────────────────────────────────────────────────────────────────────────────
// Risk domain error codes  (5xxxx)
// ─────────────────────────────────────────────────────────────────────────────
const (
	// CodeIndicatorSetInvalid is returned when the risk indicator corpus fails
	// to load for one or more of the five fixed risk categories.
	CodeIndicatorSetInvalid ErrorCode = 50001

	// CodeRiskAssessmentFailed is returned when the risk agent cannot compute
	// a score for a required category.
	CodeRiskAssessmentFailed ErrorCode = 50002
)

// ─────────────────────────────────────────────────────────────────────────────
// RUC domain error codes  (6xxxx)
// ─────────────────────────────────────────────────────────────────────────────
const (
	// CodeRUCNotFound is returned when no 13-digit RUC candidate can be located
	// in the document text.
	CodeRUCNotFound ErrorCode = 60001

	// CodeRUCChecksumInvalid is returned when a RUC candidate fails the
	// modulus-11 checksum.
	CodeRUCChecksumInvalid ErrorCode = 60002

	// CodeRUCSuffixRejected is returned when the pluggable sector-suffix rule
	// rejects an otherwise checksum-valid RUC.
	CodeRUCSuffixRejected ErrorCode = 60003
)

// ─────────────────────────────────────────────────────────────────────────────
// Comparison domain error codes  (7xxxx)
// ─────────────────────────────────────────────────────────────────────────────
const (
	// CodeComparisonInsufficientDocs is returned when fewer than two completed
	// analysis artifacts are supplied to the comparison agent.
	CodeComparisonInsufficientDocs ErrorCode = 70001

	// CodeComparisonStageUnavailable is returned when a requested comparison
	// dimension depends on a stage that did not complete for one or more
	// input documents; the comparison proceeds with that dimension marked
	// unavailable rather than failing outright.
	CodeComparisonStageUnavailable ErrorCode = 70002
)

// ─────────────────────────────────────────────────────────────────────────────
// Orchestrator domain error codes  (8xxxx)
// ─────────────────────────────────────────────────────────────────────────────
const (
	// CodeRunNotFound is returned when an analysis run with the requested
	// runId does not exist.
	CodeRunNotFound ErrorCode = 80001

	// CodeStageTimeout is returned when a pipeline stage exceeds its
	// configured deadline.
	CodeStageTimeout ErrorCode = 80002

	// CodeStageFailed is returned when a pipeline stage returns a terminal
	// error and the run transitions to FAILED.
	CodeStageFailed ErrorCode = 80003

	// CodeWorkerPoolExhausted is returned when no worker slot becomes
	// available before the submission deadline.
	CodeWorkerPoolExhausted ErrorCode = 80004
)

// ─────────────────────────────────────────────────────────────────────────────
// Infrastructure error codes  (9xxxx)
// ─────────────────────────────────────────────────────────────────────────────
const (
	// CodeDBConnectionError is returned when the application cannot establish or
	// re-use a connection to PostgreSQL or Neo4j.
	CodeDBConnectionError ErrorCode = 90001

	// CodeDBQueryError is returned when a database query fails due to syntax
	// errors, constraint violations (not covered by CodeConflict), or other
	// execution-time failures.
	CodeDBQueryError ErrorCode = 90002

	// CodeCacheError is returned when a Redis operation (GET, SET, DEL, EVAL, etc.)
	// fails due to connection loss, timeout, or an unexpected response.
	CodeCacheError ErrorCode = 90003

	// CodeSearchError is returned when an OpenSearch or Milvus query or indexing
	// operation fails.
	CodeSearchError ErrorCode = 90004

	// CodeMessageQueueError is returned when producing to or consuming from a
	// Kafka topic fails (broker unavailable, serialisation error, offset commit, etc.).
	CodeMessageQueueError ErrorCode = 90005

	// CodeStorageError is returned when a MinIO object storage operation (upload,
	// download, stat, delete) fails.
	CodeStorageError ErrorCode = 90006
)

// ─────────────────────────────────────────────────────────────────────────────
// String — human-readable name of the error code
// ─────────────────────────────────────────────────────────────────────────────

// String returns the human-readable name associated with an ErrorCode.
// It is safe to call on any value, including unknown codes.
func (c ErrorCode) String() string {
	switch c {
	// General
	case CodeOK:
		return "OK"
	case CodeUnknown:
		return "UNKNOWN"
	case CodeInvalidParam:
		return "INVALID_PARAM"
	case CodeUnauthorized:
		return "UNAUTHORIZED"
	case CodeForbidden:
		return "FORBIDDEN"
	case CodeNotFound:
		return "NOT_FOUND"
	case CodeConflict:
		return "CONFLICT"
	case CodeRateLimit:
		return "RATE_LIMIT"
	case CodeInternal:
		return "INTERNAL_ERROR"
	case CodeNotImplemented:
		return "NOT_IMPLEMENTED"

	// Document
	case CodeDocumentNotFound:
		return "DOCUMENT_NOT_FOUND"
	case CodeDocumentUnreadable:
		return "DOCUMENT_UNREADABLE"
	case CodeUnsupportedFormat:
		return "UNSUPPORTED_FORMAT"
	case CodeChunkingFailed:
		return "CHUNKING_FAILED"

	// Classification
	case CodeTaxonomyInvalid:
		return "TAXONOMY_INVALID"
	case CodeEmbeddingUnavailable:
		return "EMBEDDING_UNAVAILABLE"
	case CodeEmbeddingDimensionMismatch:
		return "EMBEDDING_DIMENSION_MISMATCH"
	case CodeClassificationFailed:
		return "CLASSIFICATION_FAILED"

	// Validation
	case CodeRuleSetInvalid:
		return "RULE_SET_INVALID"
	case CodeValidationFailed:
		return "VALIDATION_FAILED"

	// Risk
	case CodeIndicatorSetInvalid:
		return "INDICATOR_SET_INVALID"
	case CodeRiskAssessmentFailed:
		return "RISK_ASSESSMENT_FAILED"

	// RUC
	case CodeRUCNotFound:
		return "RUC_NOT_FOUND"
	case CodeRUCChecksumInvalid:
		return "RUC_CHECKSUM_INVALID"
	case CodeRUCSuffixRejected:
		return "RUC_SUFFIX_REJECTED"

	// Comparison
	case CodeComparisonInsufficientDocs:
		return "COMPARISON_INSUFFICIENT_DOCS"
	case CodeComparisonStageUnavailable:
		return "COMPARISON_STAGE_UNAVAILABLE"

	// Orchestrator
	case CodeRunNotFound:
		return "RUN_NOT_FOUND"
	case CodeStageTimeout:
		return "STAGE_TIMEOUT"
	case CodeStageFailed:
		return "STAGE_FAILED"
	case CodeWorkerPoolExhausted:
		return "WORKER_POOL_EXHAUSTED"

	// Infrastructure
	case CodeDBConnectionError:
		return "DB_CONNECTION_ERROR"
	case CodeDBQueryError:
		return "DB_QUERY_ERROR"
	case CodeCacheError:
		return "CACHE_ERROR"
	case CodeSearchError:
		return "SEARCH_ERROR"
	case CodeMessageQueueError:
		return "MESSAGE_QUEUE_ERROR"
	case CodeStorageError:
		return "STORAGE_ERROR"

	default:
		return "UNKNOWN_CODE"
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// HTTPStatus — mapping from domain error codes to HTTP status codes
// ─────────────────────────────────────────────────────────────────────────────

// HTTPStatus returns the most appropriate HTTP status code for the given
// ErrorCode. The mapping follows RFC 9110 semantics and is used by the HTTP
// ingress adapter to translate domain errors into responses.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case CodeOK:
		return http.StatusOK

	case CodeInvalidParam,
		CodeUnsupportedFormat,
		CodeChunkingFailed,
		CodeTaxonomyInvalid,
		CodeEmbeddingDimensionMismatch,
		CodeRuleSetInvalid,
		CodeComparisonInsufficientDocs:
		return http.StatusBadRequest

	case CodeUnauthorized:
		return http.StatusUnauthorized

	case CodeForbidden:
		return http.StatusForbidden

	case CodeNotFound,
		CodeDocumentNotFound,
		CodeRunNotFound,
		CodeRUCNotFound:
		return http.StatusNotFound

	case CodeConflict:
		return http.StatusConflict

	case CodeRateLimit:
		return http.StatusTooManyRequests

	case CodeEmbeddingUnavailable,
		CodeDBConnectionError,
		CodeMessageQueueError,
		CodeStorageError,
		CodeWorkerPoolExhausted:
		return http.StatusServiceUnavailable

	case CodeNotImplemented:
		return http.StatusNotImplemented

	case CodeStageTimeout:
		return http.StatusGatewayTimeout

	default:
		// CodeUnknown, CodeInternal, CodeDocumentUnreadable,
		// CodeClassificationFailed, CodeValidationFailed,
		// CodeRiskAssessmentFailed, CodeRUCChecksumInvalid,
		// CodeRUCSuffixRejected, CodeComparisonStageUnavailable,
		// CodeStageFailed, CodeDBQueryError, CodeCacheError,
		// CodeSearchError, and all unrecognised codes.
		return http.StatusInternalServerError
	}
}
