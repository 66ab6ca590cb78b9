// Package metrics holds the Prometheus instruments shared by the term
// store, the indexes and the unification engine.
package metrics

import (
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

var (
	// TermsInterned counts Store lookups by outcome ("hit" reused a
	// canonical term, "miss" created one).
	TermsInterned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gokanterm_terms_interned_total",
		Help: "Term store lookups by result",
	}, []string{"result"})

	// TermsLive tracks canonical terms not yet reclaimed, across all stores.
	TermsLive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gokanterm_terms_live",
		Help: "Canonical terms currently held by term stores",
	})

	// IndexOperations counts discrimination-tree insertions and removals.
	IndexOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gokanterm_index_operations_total",
		Help: "Clause index entry operations by index and operation",
	}, []string{"index", "operation"})

	// RetrievalCandidates records how many candidates a retrieval produced.
	RetrievalCandidates = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gokanterm_retrieval_candidates",
		Help:    "Candidates produced per retrieval",
		Buckets: []float64{0, 1, 2, 5, 10, 50, 100, 1000},
	}, []string{"index", "mode"})

	// Unifications counts top-level unify/match/variant calls by result.
	Unifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gokanterm_unifications_total",
		Help: "Unification family calls by operation and result",
	}, []string{"operation", "result"})

	// BatchRetrieveDuration tracks batch retrieval latency.
	BatchRetrieveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gokanterm_batch_retrieve_duration_seconds",
		Help:    "Batch retrieval duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	})
)

// Result labels shared by the unification family.
const (
	ResultSuccess   = "success"
	ResultFail      = "fail"
	ResultExhausted = "exhausted"
)

// WriteText writes every gokanterm metric family gathered from g in the
// Prometheus text exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("metrics: gather: %w", err)
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "gokanterm_") {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("metrics: write %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
