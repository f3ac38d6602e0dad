// Package prometheus exports run metrics through the Prometheus client.
//
//	reg := prometheus.NewRegistry()
//	mc := promcollector.NewCollector(reg)
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//	res, err := distkmeans.Run(ctx, g, points, d, k, distkmeans.WithMetricsCollector(mc))
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/distkmeans"
)

const namespace = "distkmeans"

var _ distkmeans.MetricsCollector = (*Collector)(nil)

// Collector implements distkmeans.MetricsCollector with Prometheus metrics.
type Collector struct {
	iterations        prometheus.Counter
	iterationLatency  prometheus.Histogram
	shift             prometheus.Gauge
	collectiveLatency *prometheus.HistogramVec
	emptyClusters     prometheus.Counter
	runs              *prometheus.CounterVec
	runLatency        prometheus.Histogram
	lastRunIterations prometheus.Gauge
}

// NewCollector creates the metrics and registers them with reg.
// A nil reg means prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "iterations_total",
			Help:      "Total iterations completed",
		}),
		iterationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "iteration_duration_seconds",
			Help:      "Wall time of one iteration including collectives",
			Buckets:   prometheus.DefBuckets,
		}),
		shift: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "centroid_shift",
			Help:      "Centroid shift of the most recent iteration",
		}),
		collectiveLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collective_duration_seconds",
			Help:      "Latency of collective operations, including waiting for peers",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
		emptyClusters: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "empty_clusters_total",
			Help:      "Clusters left without points, summed over iterations",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed runs by terminal state",
		}, []string{"state"}),
		runLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of complete runs",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		lastRunIterations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_iterations",
			Help:      "Iterations taken by the most recent run",
		}),
	}

	reg.MustRegister(
		c.iterations,
		c.iterationLatency,
		c.shift,
		c.collectiveLatency,
		c.emptyClusters,
		c.runs,
		c.runLatency,
		c.lastRunIterations,
	)
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordIteration implements distkmeans.MetricsCollector.
func (c *Collector) RecordIteration(_ int, shift float64, d time.Duration) {
	c.iterations.Inc()
	c.iterationLatency.Observe(d.Seconds())
	c.shift.Set(shift)
}

// RecordCollective implements distkmeans.MetricsCollector.
func (c *Collector) RecordCollective(op string, d time.Duration, err error) {
	c.collectiveLatency.WithLabelValues(op, status(err)).Observe(d.Seconds())
}

// RecordEmptyClusters implements distkmeans.MetricsCollector.
func (c *Collector) RecordEmptyClusters(n int) {
	c.emptyClusters.Add(float64(n))
}

// RecordRun implements distkmeans.MetricsCollector.
func (c *Collector) RecordRun(state distkmeans.State, iterations int, d time.Duration) {
	c.runs.WithLabelValues(state.String()).Inc()
	c.runLatency.Observe(d.Seconds())
	c.lastRunIterations.Set(float64(iterations))
}
