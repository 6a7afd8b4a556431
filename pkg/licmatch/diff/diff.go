// Package diff compares an input license against its authoritative text.
package diff

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/oklog/ulid/v2"
	"github.com/pmezard/go-difflib/difflib"
)

// Report describes how an input differs from one reference license.
type Report struct {
	ID                string    `json:"id"`
	LicenseID         string    `json:"license_id"`
	SimilarityPercent float64   `json:"similarity_percent"`
	DiffLines         []string  `json:"diff_lines"`
	CreatedAt         time.Time `json:"created_at"`
}

// NewReport compares input against reference and stamps the result with a
// fresh ULID.
func NewReport(licenseID, reference, input string) Report {
	now := time.Now().UTC()
	return Report{
		ID:                ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		LicenseID:         licenseID,
		SimilarityPercent: SimilarityPercent(input, reference),
		DiffLines:         UnifiedDiff(reference, input),
		CreatedAt:         now,
	}
}

// SimilarityPercent returns (max-dist)/max*100 rounded to two decimals, where
// dist is the Levenshtein distance and max the longer length in runes. Two
// empty strings are identical.
func SimilarityPercent(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	return round2(float64(longest-dist) / float64(longest) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// UnifiedDiff returns a line diff from a to b with ---, +++ and @@ headers
// and no context lines. Lines carry no trailing newline.
func UnifiedDiff(a, b string) []string {
	out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: "reference",
		ToFile:   "input",
		Context:  0,
	})
	if err != nil || out == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	return lines
}
