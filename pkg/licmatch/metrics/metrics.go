package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueriesTotal counts match queries by outcome kind (perfect, close, none, no_data, error)
	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "licmatch_queries_total",
		Help: "Total number of license match queries by outcome",
	}, []string{"kind"})

	// EntriesScoredTotal counts corpus entries scored against an input
	EntriesScoredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "licmatch_entries_scored_total",
		Help: "Total number of corpus entries scored",
	})

	// CorruptEntriesTotal counts corpus entries skipped because they could not be decoded
	CorruptEntriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "licmatch_corrupt_entries_total",
		Help: "Total number of corpus entries skipped as corrupt",
	})

	// ScanDuration tracks how long a full corpus scan takes
	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "licmatch_scan_duration_seconds",
		Help:    "Duration of a full corpus scan",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})

	// CollaboratorErrorsTotal counts failures of external collaborators by name
	CollaboratorErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "licmatch_collaborator_errors_total",
		Help: "Total number of failed calls to external collaborators",
	}, []string{"collaborator"})

	// CorpusSize tracks the number of entries in the last loaded snapshot
	CorpusSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "licmatch_corpus_entries",
		Help: "Number of entries in the most recently loaded corpus snapshot",
	})
)

// RecordQuery increments the query counter for an outcome kind
func RecordQuery(kind string) {
	QueriesTotal.WithLabelValues(kind).Inc()
}

// RecordScan records the number of scored entries and the scan duration
func RecordScan(entries int, d time.Duration) {
	EntriesScoredTotal.Add(float64(entries))
	ScanDuration.Observe(d.Seconds())
}

// RecordCorruptEntry increments the corrupt entry counter
func RecordCorruptEntry() {
	CorruptEntriesTotal.Inc()
}

// RecordCollaboratorError increments the error counter for a collaborator
func RecordCollaboratorError(name string) {
	CollaboratorErrorsTotal.WithLabelValues(name).Inc()
}

// SetCorpusSize sets the corpus size gauge
func SetCorpusSize(n int) {
	CorpusSize.Set(float64(n))
}
