// Package metrics records solver activity as Prometheus metrics on a
// private registry.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cwbudde/algo-abund/abund"
)

const namespace = "pfsabund"

// Outcome labels for the solves counter.
const (
	OutcomeConverged = "converged"
	OutcomeCapped    = "capped"
	OutcomeFailed    = "failed"
)

// Recorder owns the solver metrics.
type Recorder struct {
	registry     *prometheus.Registry
	solves       *prometheus.CounterVec
	iterations   prometheus.Counter
	passes       prometheus.Histogram
	cacheLookups *prometheus.CounterVec
	duration     prometheus.Histogram
}

// NewRecorder registers the metrics on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solves_total",
			Help:      "Spectra processed, by outcome.",
		}, []string{"outcome"}),
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "continuum_iterations_total",
			Help:      "Continuum loop passes over all solves.",
		}),
		passes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "continuum_iterations",
			Help:      "Continuum loop passes per solve.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34, 50},
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synth_cache_lookups_total",
			Help:      "Synthetic spectrum cache lookups, by arm and result.",
		}, []string{"arm", "result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_duration_seconds",
			Help:      "Wall time of one solve.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}
	r.registry.MustRegister(r.solves, r.iterations, r.passes, r.cacheLookups, r.duration)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ObserveResult records a finished solve.
func (r *Recorder) ObserveResult(res *abund.Result, elapsed time.Duration) {
	outcome := OutcomeCapped
	if res.Converged {
		outcome = OutcomeConverged
	}
	r.solves.WithLabelValues(outcome).Inc()
	r.iterations.Add(float64(res.Iterations))
	r.passes.Observe(float64(res.Iterations))
	r.duration.Observe(elapsed.Seconds())
	for arm, st := range res.CacheStats {
		r.cacheLookups.WithLabelValues(arm.String(), "hit").Add(float64(st.Hits))
		r.cacheLookups.WithLabelValues(arm.String(), "miss").Add(float64(st.Misses))
	}
}

// ObserveFailure records a solve that returned an error.
func (r *Recorder) ObserveFailure(elapsed time.Duration) {
	r.solves.WithLabelValues(OutcomeFailed).Inc()
	r.duration.Observe(elapsed.Seconds())
}

// WriteTextfile writes the metrics in the Prometheus text format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}
