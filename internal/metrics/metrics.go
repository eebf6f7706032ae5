// Package metrics exposes run counters as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ppiankov/chronoqa/internal/errors"
)

// Collector holds the Prometheus metrics of a generation run
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// Candidate metrics
	Generated *prometheus.CounterVec
	Accepted  *prometheus.CounterVec
	Rejected  *prometheus.CounterVec

	// Output metrics
	BatchesWritten prometheus.Counter
	RecordsWritten prometheus.Counter
	QueueDepth     prometheus.Gauge

	// Dedup metrics
	DedupBloomOnly prometheus.Gauge

	// Scheduler metrics
	TypeState     *prometheus.GaugeVec
	TypeDuration  *prometheus.HistogramVec
	CandidateTime prometheus.Histogram
}

// NewCollector creates a collector with its own registry
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		Generated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "candidates_generated_total",
				Help:      "Total number of enumeration indices processed",
			},
			[]string{"question_type"},
		),
		Accepted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "candidates_accepted_total",
				Help:      "Total number of candidates accepted into the corpus",
			},
			[]string{"question_type"},
		),
		Rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "candidates_rejected_total",
				Help:      "Total number of candidates rejected, by reason",
			},
			[]string{"question_type", "reason"},
		),
		BatchesWritten: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batches_written_total",
				Help:      "Total number of batch files written",
			},
		),
		RecordsWritten: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_written_total",
				Help:      "Total number of records written",
			},
		),
		QueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sink_queue_depth",
				Help:      "Batches waiting for the writer",
			},
		),
		DedupBloomOnly: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dedup_bloom_only_hits",
				Help:      "Probable duplicates decided by the bloom filter alone",
			},
		),
		TypeState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "type_state",
				Help:      "1 for the current state of each question type",
			},
			[]string{"question_type", "state"},
		),
		TypeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "type_duration_seconds",
				Help:      "Wall time until a question type settled",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
			},
			[]string{"question_type", "state"},
		),
		CandidateTime: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "candidate_duration_seconds",
				Help:      "Time to generate, validate and score one candidate",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
		),
	}

	// Register all metrics with the registry
	registry.MustRegister(
		c.Generated,
		c.Accepted,
		c.Rejected,
		c.BatchesWritten,
		c.RecordsWritten,
		c.QueueDepth,
		c.DedupBloomOnly,
		c.TypeState,
		c.TypeDuration,
		c.CandidateTime,
	)

	return c
}

// Registry returns the collector's registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// SetState marks state as the current state of a question type
func (c *Collector) SetState(questionType string, state string, all []string) {
	for _, s := range all {
		value := 0.0
		if s == state {
			value = 1
		}
		c.TypeState.WithLabelValues(questionType, s).Set(value)
	}
}

// WriteTextfile writes the registry in the Prometheus text format, for the
// node exporter textfile collector
func (c *Collector) WriteTextfile(path string) error {
	return errors.Wrap(prometheus.WriteToTextfile(path, c.registry), "write metrics textfile")
}
