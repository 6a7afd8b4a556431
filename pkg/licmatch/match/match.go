// Package match scores an input license text against every corpus entry and
// sorts the results into perfect and close matches.
package match

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/licmatch/pkg/licmatch/bigram"
	"github.com/cognicore/licmatch/pkg/licmatch/corpus"
	"github.com/cognicore/licmatch/pkg/licmatch/dice"
	"github.com/cognicore/licmatch/pkg/licmatch/internalerr"
	"github.com/cognicore/licmatch/pkg/licmatch/logging"
	"github.com/cognicore/licmatch/pkg/licmatch/metrics"
	"github.com/cognicore/licmatch/pkg/licmatch/normalize"
)

// Kind describes what a Result holds.
type Kind int

const (
	KindNone Kind = iota
	KindClose
	KindPerfect
	// KindNoData means the corpus was empty, so nothing could be scored.
	KindNoData
)

func (k Kind) String() string {
	switch k {
	case KindPerfect:
		return "perfect"
	case KindClose:
		return "close"
	case KindNoData:
		return "no_data"
	default:
		return "none"
	}
}

// Result is the outcome of one match query. At most one of Perfect and Close
// is non-empty.
type Result struct {
	Perfect map[string]float64
	Close   map[string]float64
	Scanned int
}

// Kind classifies the result.
func (r Result) Kind() Kind {
	switch {
	case len(r.Perfect) > 0:
		return KindPerfect
	case len(r.Close) > 0:
		return KindClose
	case r.Scanned == 0:
		return KindNoData
	default:
		return KindNone
	}
}

// Matches returns whichever set is populated.
func (r Result) Matches() map[string]float64 {
	if len(r.Perfect) > 0 {
		return r.Perfect
	}
	return r.Close
}

// IDs returns the matched license IDs in lexical order.
func (r Result) IDs() []string {
	m := r.Matches()
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Ranked returns the matched IDs by descending score, ties by ID.
func (r Result) Ranked() []string {
	m := r.Matches()
	ids := r.IDs()
	sort.SliceStable(ids, func(i, j int) bool {
		return m[ids[i]] > m[ids[j]]
	})
	return ids
}

// Best returns the highest scoring match. ok is false when there is none.
func (r Result) Best() (id string, score float64, ok bool) {
	ranked := r.Ranked()
	if len(ranked) == 0 {
		return "", 0, false
	}
	return ranked[0], r.Matches()[ranked[0]], true
}

// Partition applies the match policy to a complete score table. A score of
// exactly 1.0 or above limit is perfect; when anything is perfect only the
// perfect entries are kept. Otherwise entries strictly between threshold and
// limit are close.
func Partition(scores map[string]float64, threshold, limit float64) Result {
	res := Result{
		Perfect: map[string]float64{},
		Close:   map[string]float64{},
		Scanned: len(scores),
	}
	for id, s := range scores {
		if s == 1.0 || s > limit {
			res.Perfect[id] = s
		}
	}
	if len(res.Perfect) > 0 {
		return res
	}
	for id, s := range scores {
		if s > threshold && s < limit {
			res.Close[id] = s
		}
	}
	return res
}

// ValidateBounds checks 0 <= threshold <= limit <= 1.
func ValidateBounds(threshold, limit float64) error {
	if !(threshold >= 0 && threshold <= limit && limit <= 1) {
		return fmt.Errorf("threshold %v and limit %v must satisfy 0 <= threshold <= limit <= 1: %w",
			threshold, limit, internalerr.ErrConfiguration)
	}
	return nil
}

// Options configures a Matcher.
type Options struct {
	// Workers bounds the scan pool. Zero means GOMAXPROCS.
	Workers    int
	Mode       bigram.Mode
	Normalizer *normalize.Normalizer
	Logger     *zap.Logger
}

// Matcher scores inputs against corpus snapshots. It holds no corpus state
// and is safe for concurrent use.
type Matcher struct {
	workers int
	mode    bigram.Mode
	norm    *normalize.Normalizer
	logger  *zap.Logger
}

// New creates a Matcher.
func New(opts Options) *Matcher {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	n := opts.Normalizer
	if n == nil {
		n = normalize.New()
	}
	return &Matcher{
		workers: workers,
		mode:    opts.Mode,
		norm:    n,
		logger:  logging.OrNop(opts.Logger),
	}
}

// Mode returns the bigram mode used for scoring.
func (m *Matcher) Mode() bigram.Mode { return m.mode }

// Normalizer returns the normalizer applied to inputs.
func (m *Matcher) Normalizer() *normalize.Normalizer { return m.norm }

// Scores normalizes input once and scores it against every entry in snap.
// Entry texts are expected to be canonical already.
func (m *Matcher) Scores(ctx context.Context, input string, snap *corpus.Snapshot) (map[string]float64, error) {
	if snap.Len() == 0 {
		return map[string]float64{}, nil
	}

	start := time.Now()
	query := m.mode.Generate(m.norm.Normalize(input))

	entries := snap.Entries
	scores := make([]float64, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for i := range entries {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scores[i] = dice.Score(query, m.mode.Generate(entries[i].CanonicalText))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make(map[string]float64, len(entries))
	for i, e := range entries {
		out[e.LicenseID] = scores[i]
	}
	metrics.RecordScan(len(entries), time.Since(start))
	return out, nil
}

// GetCloseMatches scores input against snap and partitions the scores with
// threshold and limit. The bounds are checked before any work is done.
func (m *Matcher) GetCloseMatches(ctx context.Context, input string, snap *corpus.Snapshot, threshold, limit float64) (Result, error) {
	if err := ValidateBounds(threshold, limit); err != nil {
		return Result{}, err
	}

	scores, err := m.Scores(ctx, input, snap)
	if err != nil {
		metrics.RecordQuery("error")
		return Result{}, err
	}

	res := Partition(scores, threshold, limit)
	kind := res.Kind()
	metrics.RecordQuery(kind.String())
	m.logger.Debug("license match",
		zap.String("kind", kind.String()),
		zap.Int("scanned", res.Scanned),
		zap.Int("perfect", len(res.Perfect)),
		zap.Int("close", len(res.Close)))
	return res, nil
}
