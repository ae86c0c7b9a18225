// Package metrics exports stat engine activity to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/udisondev/statengine/internal/stat"
	"github.com/udisondev/statengine/internal/tick"
)

const namespace = "statengine"

// Recorder holds the engine's collectors.
type Recorder struct {
	changes    *prometheus.CounterVec
	recomputes prometheus.Counter
	ticks      prometheus.Counter
	tickTime   prometheus.Histogram
	totals     *prometheus.GaugeVec

	gatherer prometheus.Gatherer
}

// NewRecorder creates the collectors and registers them on a fresh
// prometheus registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "changes_total",
			Help:      "Layer value changes beyond epsilon, by stat kind and layer.",
		}, []string{"kind", "layer"}),
		recomputes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recomputes_total",
			Help:      "Stats recomputed by the tick loop.",
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Completed tick loop iterations.",
		}),
		tickTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Time spent in one tick.",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		}),
		totals: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stat_total",
			Help:      "Last computed total value, by stat kind.",
		}, []string{"kind"}),
		gatherer: reg,
	}
	reg.MustRegister(r.changes, r.recomputes, r.ticks, r.tickTime, r.totals)
	return r
}

// ObserveChange counts one layer change.
func (r *Recorder) ObserveChange(c stat.Change) {
	r.changes.WithLabelValues(c.Kind.String(), c.Layer.String()).Inc()
}

// ObserveTick records one tick report.
func (r *Recorder) ObserveTick(rep tick.Report) {
	r.ticks.Inc()
	r.recomputes.Add(float64(rep.Recomputed))
	r.tickTime.Observe(rep.Took.Seconds())
}

// ObserveTotals sets the total gauge for every snapshot.
func (r *Recorder) ObserveTotals(snaps []stat.Snapshot) {
	for _, s := range snaps {
		r.totals.WithLabelValues(s.Kind.String()).Set(s.Total)
	}
}

// Attach wires the recorder to a registry and its tick loop. Both
// callbacks run on the loop goroutine, so reading the registry is safe.
//
// The total gauge follows change events, so it stays current whether the
// registry recomputes on mutation or once per tick.
func (r *Recorder) Attach(reg *stat.Registry, loop *tick.Loop) {
	reg.Subscribe(func(c stat.Change) {
		r.ObserveChange(c)
		r.totals.WithLabelValues(c.Kind.String()).Set(reg.TotalValue(c.Kind))
	})
	loop.AfterTick(r.ObserveTick)
}

// Gatherer exposes the underlying registry (used by tests).
func (r *Recorder) Gatherer() prometheus.Gatherer { return r.gatherer }

// Handler serves the metrics in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
