// Package ingest builds the reference corpus from a license source.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/licmatch/pkg/licmatch/corpus"
	"github.com/cognicore/licmatch/pkg/licmatch/logging"
	"github.com/cognicore/licmatch/pkg/licmatch/metrics"
	"github.com/cognicore/licmatch/pkg/licmatch/normalize"
)

// DefaultWorkers is the fetch concurrency used when Builder.Workers is zero.
const DefaultWorkers = 2

// ErrNoLicenses is returned when no license could be fetched.
var ErrNoLicenses = errors.New("ingest: no license could be fetched")

// Stats summarizes one build.
type Stats struct {
	Listed   int
	Stored   int
	Failed   []string
	Duration time.Duration
}

// Builder fetches every license from Source, normalizes and compresses it,
// and replaces the contents of Store in one bulk load.
type Builder struct {
	Source     Source
	Store      corpus.Store
	Normalizer *normalize.Normalizer
	Workers    int
	// SkipDeprecated leaves out licenses whose IDs SPDX has deprecated.
	SkipDeprecated bool
	Logger         *zap.Logger
}

// Run performs the build. Individual fetch failures are logged and counted;
// the store is only replaced when at least one license was fetched.
func (b *Builder) Run(ctx context.Context) (Stats, error) {
	start := time.Now()
	logger := logging.OrNop(b.Logger)
	norm := b.Normalizer
	if norm == nil {
		norm = normalize.New()
	}
	workers := b.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	refs, err := b.Source.List(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("list licenses: %w", err)
	}

	var (
		mu      sync.Mutex
		entries = make(map[string][]byte, len(refs))
		stats   Stats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, ref := range refs {
		if b.SkipDeprecated && ref.IsDeprecated {
			continue
		}
		stats.Listed++
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := b.fetch(gctx, norm, ref.LicenseID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				metrics.RecordCollaboratorError("source")
				logger.Warn("license fetch failed", zap.String("license_id", ref.LicenseID), zap.Error(err))
				stats.Failed = append(stats.Failed, ref.LicenseID)
				return nil
			}
			entries[ref.LicenseID] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}
	sort.Strings(stats.Failed)

	if len(entries) == 0 {
		return stats, fmt.Errorf("%w (%d listed)", ErrNoLicenses, stats.Listed)
	}
	if err := b.Store.Replace(ctx, entries); err != nil {
		return stats, fmt.Errorf("replace corpus: %w", err)
	}

	stats.Stored = len(entries)
	stats.Duration = time.Since(start)
	logger.Info("corpus built",
		zap.Int("listed", stats.Listed),
		zap.Int("stored", stats.Stored),
		zap.Int("failed", len(stats.Failed)),
		zap.Duration("duration", stats.Duration))
	return stats, nil
}

func (b *Builder) fetch(ctx context.Context, norm *normalize.Normalizer, id string) ([]byte, error) {
	text, err := b.Source.Text(ctx, id)
	if err != nil {
		return nil, err
	}
	return corpus.Compress(norm.Normalize(text))
}

// IsEmpty reports whether st holds no licenses yet.
func IsEmpty(ctx context.Context, st corpus.Store) (bool, error) {
	keys, err := st.Keys(ctx)
	if err != nil {
		return false, err
	}
	return len(keys) == 0, nil
}
