// Package licmatch identifies which SPDX license a text is, and whether it
// is the standard text or a modified copy.
package licmatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cognicore/licmatch/pkg/licmatch/corpus"
	"github.com/cognicore/licmatch/pkg/licmatch/diff"
	"github.com/cognicore/licmatch/pkg/licmatch/internalerr"
	"github.com/cognicore/licmatch/pkg/licmatch/logging"
	"github.com/cognicore/licmatch/pkg/licmatch/match"
	"github.com/cognicore/licmatch/pkg/licmatch/metrics"
	"github.com/cognicore/licmatch/pkg/licmatch/oracle"
)

// Fetcher returns the authoritative text of a license. spdx.Client and
// ingest.DirSource satisfy it.
type Fetcher interface {
	Text(ctx context.Context, id string) (string, error)
}

// Engine is the license matching facade
type Engine struct {
	store     corpus.Store
	fetcher   Fetcher
	oracle    oracle.StandardLicenseOracle
	matcher   *match.Matcher
	threshold float64
	limit     float64
	logger    *zap.Logger
}

// Options configures an Engine
type Options struct {
	Store   corpus.Store
	Fetcher Fetcher
	// Oracle may be nil; close matches are then always reported as modified.
	Oracle    oracle.StandardLicenseOracle
	Matcher   *match.Matcher
	Threshold float64
	Limit     float64
	Logger    *zap.Logger
}

// New creates an Engine with the given dependencies
func New(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("licmatch: store required: %w", internalerr.ErrConfiguration)
	}
	if err := match.ValidateBounds(opts.Threshold, opts.Limit); err != nil {
		return nil, err
	}
	m := opts.Matcher
	if m == nil {
		m = match.New(match.Options{Logger: opts.Logger})
	}
	return &Engine{
		store:     opts.Store,
		fetcher:   opts.Fetcher,
		oracle:    opts.Oracle,
		matcher:   m,
		threshold: opts.Threshold,
		limit:     opts.Limit,
		logger:    logging.OrNop(opts.Logger),
	}, nil
}

// Close cleanly shuts down the store
func (e *Engine) Close() error {
	return e.store.Close()
}

// Snapshot loads the current corpus.
func (e *Engine) Snapshot(ctx context.Context) (*corpus.Snapshot, error) {
	return corpus.LoadSnapshot(ctx, e.store, e.logger)
}

// MatchLicense scores inputText against the current corpus.
func (e *Engine) MatchLicense(ctx context.Context, inputText string) (match.Result, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return match.Result{}, err
	}
	return e.matcher.GetCloseMatches(ctx, inputText, snap, e.threshold, e.limit)
}

// BuildDifferenceReport compares inputText with the authoritative text of
// licenseID.
func (e *Engine) BuildDifferenceReport(ctx context.Context, licenseID, inputText string) (diff.Report, error) {
	reference, err := e.reference(ctx, licenseID)
	if err != nil {
		return diff.Report{}, err
	}
	return diff.NewReport(licenseID, reference, inputText), nil
}

func (e *Engine) reference(ctx context.Context, licenseID string) (string, error) {
	if e.fetcher == nil {
		return "", fmt.Errorf("licmatch: no license fetcher: %w", internalerr.ErrConfiguration)
	}
	text, err := e.fetcher.Text(ctx, licenseID)
	if err != nil {
		metrics.RecordCollaboratorError("fetcher")
		return "", fmt.Errorf("fetch %s: %w", licenseID, err)
	}
	return text, nil
}

// Outcome is the verdict for one input.
type Outcome struct {
	Result match.Result
	// Standard is the license the oracle judged the input to be, unmodified.
	Standard string
	// Report is set when the input is a modified copy of a close match.
	Report *diff.Report
}

// Classify matches inputText and, for close matches, asks the oracle whether
// the input is a standard license. Close entries are tried from the highest
// score down; the first standard verdict wins. Otherwise a difference report
// is built against the best candidate.
//
// When the oracle or fetcher fails, the error wraps
// internalerr.ErrCollaboratorUnavailable and the returned Outcome still
// carries the match result.
func (e *Engine) Classify(ctx context.Context, inputText string) (Outcome, error) {
	res, err := e.MatchLicense(ctx, inputText)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Result: res}
	if res.Kind() != match.KindClose {
		return out, nil
	}

	references := make(map[string]string)
	ranked := res.Ranked()
	if e.oracle != nil {
		for _, id := range ranked {
			reference, err := e.reference(ctx, id)
			if err != nil {
				return out, collaboratorErr(err)
			}
			references[id] = reference

			standard, err := e.oracle.IsStandard(ctx, reference, inputText)
			if err != nil {
				metrics.RecordCollaboratorError("oracle")
				return out, collaboratorErr(fmt.Errorf("oracle %s: %w", id, err))
			}
			if standard {
				e.logger.Debug("standard license", zap.String("license_id", id))
				out.Standard = id
				return out, nil
			}
		}
	}

	best := ranked[0]
	reference, ok := references[best]
	if !ok {
		if reference, err = e.reference(ctx, best); err != nil {
			return out, collaboratorErr(err)
		}
	}
	report := diff.NewReport(best, reference, inputText)
	out.Report = &report
	e.logger.Debug("modified license",
		zap.String("license_id", best),
		zap.String("report_id", report.ID),
		zap.Float64("similarity_percent", report.SimilarityPercent))
	return out, nil
}

func collaboratorErr(err error) error {
	switch {
	case errors.Is(err, internalerr.ErrCollaboratorUnavailable),
		errors.Is(err, internalerr.ErrConfiguration),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %w", internalerr.ErrCollaboratorUnavailable, err)
}

const (
	msgNoConfidence = "There is not enough confidence threshold for the text to match against the SPDX License database."
	msgStandard     = "The given license is a SPDX Standard License."
	msgNoData       = "The SPDX License database is empty. Build it before matching."
)

// Message renders the outcome as a one-line verdict.
func (o Outcome) Message() string {
	switch o.Result.Kind() {
	case match.KindNoData:
		return msgNoData
	case match.KindNone:
		return msgNoConfidence
	case match.KindPerfect:
		if len(o.Result.Perfect) == 1 {
			id, score, _ := o.Result.Best()
			return fmt.Sprintf("Input license text matches with that of %s with a dice coefficient of %s", id, formatScore(score))
		}
		return "The following license ID(s) match: " + strings.Join(o.Result.IDs(), ", ")
	}
	if o.Standard != "" {
		return msgStandard
	}
	if o.Report != nil {
		return "The following license ID(s) match: " + o.Report.LicenseID
	}
	return "The following license ID(s) match: " + strings.Join(o.Result.Ranked(), ", ")
}

// formatScore prints whole numbers with one decimal, like 1.0.
func formatScore(score float64) string {
	s := strconv.FormatFloat(score, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
