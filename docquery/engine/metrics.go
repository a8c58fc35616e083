package engine

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// metrics:
//   - docquery_engine_documents_evaluated_total
//   - docquery_engine_documents_matched_total
//   - docquery_engine_run_duration_seconds
//   - docquery_engine_cache_hits_total
type metrics struct {
	evaluated prometheus.Counter
	matched   prometheus.Counter
	duration  prometheus.Histogram
	cacheHits prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		evaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "docquery",
			Subsystem: "engine",
			Name:      "documents_evaluated_total",
			Help:      "Total number of documents tested against a query",
		}),
		matched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "docquery",
			Subsystem: "engine",
			Name:      "documents_matched_total",
			Help:      "Total number of documents that matched a query",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "docquery",
			Subsystem: "engine",
			Name:      "run_duration_seconds",
			Help:      "Duration of query runs",
			Buckets:   prometheus.DefBuckets,
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "docquery",
			Subsystem: "engine",
			Name:      "cache_hits_total",
			Help:      "Total number of runs served by an interned query",
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.evaluated, m.matched, m.duration, m.cacheHits} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "cannot register engine metrics")
		}
	}
	return m, nil
}
