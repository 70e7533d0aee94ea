// Package extractor normalizes raw input artifacts to plain text plus
// metadata. PDF/DOCX/XLS conversion is delegated to out-of-process codecs
// that are out of scope for this module; Extractor only defines the
// contract and handles the in-scope TXT path directly.
package extractor

import (
	"strings"
	"unicode/utf8"

	"github.com/turtacn/tender-intel/pkg/errors"
)

// ArtifactType enumerates the declared input formats the extractor accepts.
type ArtifactType string

const (
	TypeTXT  ArtifactType = "txt"
	TypePDF  ArtifactType = "pdf"
	TypeDOCX ArtifactType = "docx"
	TypeXLS  ArtifactType = "xls"
	TypeXLSX ArtifactType = "xlsx"
)

// Result is the normalized output of extraction.
type Result struct {
	Text       string
	PageCount  int
	TableCount int
}

// Converter performs out-of-process conversion for a non-plain-text
// artifact type (PDF/DOCX/XLS). Implementations live outside this module's
// core; a nil Converter for a given type causes extraction to fail with
// CodeUnsupportedFormat rather than silently returning empty text.
type Converter interface {
	Convert(artifactType ArtifactType, raw []byte) (Result, error)
}

// Extractor normalizes raw bytes of a declared artifact type to plain text.
type Extractor struct {
	converter          Converter
	ocrDensityThreshold float64
}

// New constructs an Extractor. converter may be nil if only TXT input is
// ever presented to this deployment.
func New(converter Converter, ocrDensityThreshold float64) *Extractor {
	if ocrDensityThreshold <= 0 {
		ocrDensityThreshold = 0.1
	}
	return &Extractor{converter: converter, ocrDensityThreshold: ocrDensityThreshold}
}

// Extract returns normalized text for the given artifact. TXT is handled
// in-process; every other type is passed unchanged to the Converter. The
// ocrDensityThreshold is stored on the Extractor but not passed to the
// Converter, so no OCR-fallback decision is made here. Any non-TXT type
// without a registered Converter fails with CodeUnsupportedFormat.
func (e *Extractor) Extract(artifactType ArtifactType, raw []byte) (Result, error) {
	if artifactType == TypeTXT {
		text := string(raw)
		if !utf8.ValidString(text) {
			return Result{}, errors.New(errors.CodeDocumentUnreadable, "txt artifact is not valid utf-8")
		}
		return Result{Text: normalizeWhitespace(text)}, nil
	}

	if e.converter == nil {
		return Result{}, errors.New(errors.CodeUnsupportedFormat, "no converter registered for artifact type "+string(artifactType))
	}

	res, err := e.converter.Convert(artifactType, raw)
	if err != nil {
		return Result{}, errors.Wrap(err, errors.CodeDocumentUnreadable, "conversion failed for "+string(artifactType))
	}
	if strings.TrimSpace(res.Text) == "" {
		return Result{}, errors.New(errors.CodeDocumentUnreadable, "conversion produced empty text")
	}
	res.Text = normalizeWhitespace(res.Text)
	return res, nil
}

// normalizeWhitespace collapses runs of horizontal whitespace to a single
// space while preserving paragraph breaks (two or more consecutive
// newlines), matching the canonicalization the chunker's paragraph-boundary
// detection relies on.
func normalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	paragraphs := strings.Split(s, "\n\n")
	for i, p := range paragraphs {
		paragraphs[i] = strings.Join(strings.Fields(p), " ")
	}

	// Drop paragraphs that became empty after trimming (consecutive blank lines).
	out := paragraphs[:0]
	for _, p := range paragraphs {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.TrimSpace(strings.Join(out, "\n\n"))
}
