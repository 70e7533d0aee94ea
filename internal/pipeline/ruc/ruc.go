// Package ruc implements the RUC validator: extraction of 13-digit
// contractor identifiers from free text, a modulus-11 checksum, a
// sector-suffix compatibility check, and an optional external verification
// adapter.
package ruc

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/turtacn/tender-intel/internal/domain/document"
)

const (
	checksumWeightCount = 10

	formatWeight   = 0.4
	verifiedWeight = 0.3
	activityWeight = 0.3

	bucketExcelenteThreshold = 80.0
	bucketBuenoThreshold     = 60.0
)

// checksumWeights multiply digits 1-10 (0-indexed 0-9) before taking the
// result modulo 11 and comparing against digit 11.
var checksumWeights = [checksumWeightCount]int{4, 3, 2, 7, 6, 5, 4, 3, 2, 1}

// sectorSuffixes maps the two trailing digits of a RUC to the taxpayer
// activity category they denote.
var sectorSuffixes = map[string]string{
	"01": "persona_natural",
	"10": "sociedad_anonima",
	"15": "sucursal",
	"17": "sociedad_conyugal",
	"20": "persona_juridica",
}

// candidateRe matches 13-digit sequences allowing optional '-' or ' '
// separators between groups.
var candidateRe = regexp.MustCompile(`\b\d[\d\-\s]{11,20}\d\b`)

// VerificationAdapter optionally confirms a RUC against an external
// registry. When nil, every candidate is reported Verified=false without
// failing the record.
type VerificationAdapter interface {
	Verify(ctx context.Context, normalizedRUC string) (bool, error)
}

// Agent is the RUC validator.
type Agent struct {
	verifier         VerificationAdapter
	expectedActivity string // empty means no compatibility constraint
}

// New constructs a RUC validation Agent. verifier may be nil. expectedActivity,
// when non-empty, is compared against each candidate's derived sector activity.
func New(verifier VerificationAdapter, expectedActivity string) *Agent {
	return &Agent{verifier: verifier, expectedActivity: expectedActivity}
}

// Validate extracts and scores every RUC-shaped candidate in text and
// returns the aggregate RUCRecord for docID.
func (a *Agent) Validate(ctx context.Context, docID, text string) *document.RUCRecord {
	var candidates []document.RUCCandidate
	var scoreSum float64

	for _, raw := range candidateRe.FindAllString(text, -1) {
		normalized := normalize(raw)
		if len(normalized) != 13 {
			continue
		}
		checksumValid := checksum(normalized)
		activity, suffixOK := sectorSuffixes[normalized[11:13]]
		verified := a.verify(ctx, normalized)
		activityCompatible := suffixOK && (a.expectedActivity == "" || a.expectedActivity == activity)

		score := blendScore(checksumValid, verified, activityCompatible)
		scoreSum += score

		candidates = append(candidates, document.RUCCandidate{
			Raw:                raw,
			Normalized:         normalized,
			ChecksumValid:      checksumValid,
			Verified:           verified,
			Activity:           activity,
			CompatibilityScore: score,
		})
	}

	record := &document.RUCRecord{DocID: docID, Found: candidates}
	if len(candidates) > 0 {
		record.Score = scoreSum / float64(len(candidates))
	}
	record.Bucket = bucket(record.Score)
	return record
}

func (a *Agent) verify(ctx context.Context, normalized string) bool {
	if a.verifier == nil {
		return false
	}
	ok, err := a.verifier.Verify(ctx, normalized)
	if err != nil {
		return false
	}
	return ok
}

func normalize(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// checksum applies the modulus-11 weighted sum over the first 10 digits and
// compares the check digit (11 minus the remainder, or 0 when the remainder
// is 0 or 1) against the 11th digit.
func checksum(normalized string) bool {
	if len(normalized) < 11 {
		return false
	}
	var sum int
	for i := 0; i < checksumWeightCount; i++ {
		digit, err := strconv.Atoi(string(normalized[i]))
		if err != nil {
			return false
		}
		sum += digit * checksumWeights[i]
	}
	remainder := sum % 11
	check := 11 - remainder
	if check >= 10 {
		check = 0
	}
	expected, err := strconv.Atoi(string(normalized[10]))
	if err != nil {
		return false
	}
	return check == expected
}

func blendScore(checksumValid, verified, activityCompatible bool) float64 {
	var score float64
	if checksumValid {
		score += formatWeight * 100
	}
	if verified {
		score += verifiedWeight * 100
	}
	if activityCompatible {
		score += activityWeight * 100
	}
	return score
}

func bucket(score float64) document.RUCBucket {
	switch {
	case score >= bucketExcelenteThreshold:
		return document.RUCExcelente
	case score >= bucketBuenoThreshold:
		return document.RUCBueno
	default:
		return document.RUCDeficiente
	}
}
