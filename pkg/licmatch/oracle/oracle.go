// Package oracle decides whether a license text is the standard license it
// resembles or a modified copy of it.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/licensecheck"

	"github.com/cognicore/licmatch/pkg/licmatch/internalerr"
)

// StandardLicenseOracle reports whether candidate has no substantive
// deviation from reference.
type StandardLicenseOracle interface {
	IsStandard(ctx context.Context, reference, candidate string) (bool, error)
}

// Func adapts a function to StandardLicenseOracle.
type Func func(ctx context.Context, reference, candidate string) (bool, error)

func (f Func) IsStandard(ctx context.Context, reference, candidate string) (bool, error) {
	return f(ctx, reference, candidate)
}

// DefaultMinCoverage is the percentage of the candidate that must be covered
// by the reference for Licensecheck to call it standard.
const DefaultMinCoverage = 99.0

// Licensecheck compiles the reference into a github.com/google/licensecheck
// scanner and measures how much of the candidate it covers.
type Licensecheck struct {
	MinCoverage float64
}

const referenceID = "reference"

func (l Licensecheck) IsStandard(ctx context.Context, reference, candidate string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	scanner, err := licensecheck.NewScanner([]licensecheck.License{{ID: referenceID, LRE: literalLRE(reference)}})
	if err != nil {
		return false, fmt.Errorf("licensecheck: %w: %v", internalerr.ErrCollaboratorUnavailable, err)
	}

	cov := scanner.Scan([]byte(candidate))
	for _, m := range cov.Match {
		if m.ID != referenceID {
			return false, nil
		}
	}
	minCoverage := l.MinCoverage
	if minCoverage <= 0 {
		minCoverage = DefaultMinCoverage
	}
	return len(cov.Match) > 0 && cov.Percent >= minCoverage, nil
}

// lreSyntax lists the token sequences that carry meaning in the license
// regular expression language; plain text must not contain them.
var lreSyntax = strings.NewReplacer(
	"//**", " ", "**//", " ",
	"((", " ", "))", " ",
	"||", " ", "??", " ",
	"__", " ",
)

func literalLRE(text string) string {
	return lreSyntax.Replace(text)
}

// Command runs an external checker as `Args... <reference-file> <candidate-file>`.
// Exit status 0 means standard, 1 means modified, anything else is a failure.
type Command struct {
	Args []string
}

func (c Command) IsStandard(ctx context.Context, reference, candidate string) (bool, error) {
	if len(c.Args) == 0 {
		return false, fmt.Errorf("oracle command not set: %w", internalerr.ErrConfiguration)
	}

	dir, err := os.MkdirTemp("", "licmatch-oracle-")
	if err != nil {
		return false, err
	}
	defer os.RemoveAll(dir)

	refPath := filepath.Join(dir, "reference.txt")
	candPath := filepath.Join(dir, "candidate.txt")
	if err := os.WriteFile(refPath, []byte(reference), 0o600); err != nil {
		return false, err
	}
	if err := os.WriteFile(candPath, []byte(candidate), 0o600); err != nil {
		return false, err
	}

	args := append(append([]string{}, c.Args[1:]...), refPath, candPath)
	cmd := exec.CommandContext(ctx, c.Args[0], args...)
	out, err := cmd.CombinedOutput()
	if err == nil {
		return true, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return false, nil
	}
	return false, fmt.Errorf("oracle command %s: %w: %v: %s",
		c.Args[0], internalerr.ErrCollaboratorUnavailable, err, strings.TrimSpace(string(out)))
}
