package corpus

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cognicore/licmatch/pkg/licmatch/internalerr"
	"github.com/cognicore/licmatch/pkg/licmatch/logging"
	"github.com/cognicore/licmatch/pkg/licmatch/metrics"
)

// Entry is one reference license in canonical form.
type Entry struct {
	LicenseID     string
	CanonicalText string
}

// EntryError records a corpus entry that could not be loaded.
type EntryError struct {
	LicenseID string
	Err       error
}

func (e EntryError) Error() string {
	return fmt.Sprintf("corpus entry %s: %v", e.LicenseID, e.Err)
}

func (e EntryError) Unwrap() error { return e.Err }

// Snapshot is a point-in-time, read-only copy of the corpus. It is safe to
// share between goroutines as long as nobody appends to Entries.
type Snapshot struct {
	Entries  []Entry
	Failures []EntryError
}

// NewSnapshot builds a snapshot from entries already in canonical form.
func NewSnapshot(entries ...Entry) *Snapshot {
	return &Snapshot{Entries: entries}
}

// Len returns the number of usable entries.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Entries)
}

// Lookup returns the canonical text for id.
func (s *Snapshot) Lookup(id string) (string, bool) {
	if s == nil {
		return "", false
	}
	for _, e := range s.Entries {
		if e.LicenseID == id {
			return e.CanonicalText, true
		}
	}
	return "", false
}

// LoadSnapshot reads every entry from st. Entries that fail to decompress
// are skipped and listed in Failures; only listing the keys can fail the call.
func LoadSnapshot(ctx context.Context, st Store, logger *zap.Logger) (*Snapshot, error) {
	logger = logging.OrNop(logger)

	keys, err := st.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list corpus keys: %w", err)
	}
	sort.Strings(keys)

	snap := &Snapshot{Entries: make([]Entry, 0, len(keys))}
	for _, id := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := st.Get(ctx, id)
		if err != nil {
			snap.fail(logger, id, err)
			continue
		}
		text, err := Decompress(data)
		if err != nil {
			snap.fail(logger, id, fmt.Errorf("%w: %v", internalerr.ErrCorruptEntry, err))
			continue
		}
		snap.Entries = append(snap.Entries, Entry{LicenseID: id, CanonicalText: text})
	}

	metrics.SetCorpusSize(len(snap.Entries))
	logger.Debug("corpus snapshot loaded",
		zap.Int("entries", len(snap.Entries)),
		zap.Int("failures", len(snap.Failures)))
	return snap, nil
}

func (s *Snapshot) fail(logger *zap.Logger, id string, err error) {
	metrics.RecordCorruptEntry()
	logger.Warn("skipping corpus entry", zap.String("license_id", id), zap.Error(err))
	s.Failures = append(s.Failures, EntryError{LicenseID: id, Err: err})
}
