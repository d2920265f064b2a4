// Package metrics exports crafting service measurements to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Mithi83/Applied-Energistics-2/internal/calc"
	"github.com/Mithi83/Applied-Energistics-2/internal/cpu"
	"github.com/Mithi83/Applied-Energistics-2/internal/crafting"
	"github.com/Mithi83/Applied-Energistics-2/internal/interest"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

const namespace = "craftd"

// Collectors holds every craftd metric. It implements crafting.Recorder;
// CalcObserver and WatcherFailure plug into the calculation pool and the
// watcher index.
type Collectors struct {
	tickDuration   prometheus.Histogram
	ticks          prometheus.Counter
	clusters       prometheus.Gauge
	busyClusters   prometheus.Gauge
	links          prometheus.Gauge
	watchers       prometheus.Gauge
	craftableKeys  prometheus.Gauge
	craftingKeys   prometheus.Gauge
	broadcasts     *prometheus.CounterVec
	notifications  *prometheus.CounterVec
	submissions    *prometheus.CounterVec
	jobsFinished   *prometheus.CounterVec
	calcDuration   prometheus.Histogram
	calcResults    *prometheus.CounterVec
	watcherFailure *prometheus.CounterVec
}

var _ crafting.Recorder = (*Collectors)(nil)

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Time spent in one service tick.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05},
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Service ticks completed.",
		}),
		clusters:      gauge("cpu_clusters", "Crafting CPU clusters in the live list."),
		busyClusters:  gauge("cpu_clusters_busy", "Crafting CPU clusters running a job."),
		links:         gauge("job_links", "Jobs tracked by the link tracker."),
		watchers:      gauge("watchers", "Registered watchers."),
		craftableKeys: gauge("craftable_keys", "Keys in the craftable set."),
		craftingKeys:  gauge("crafting_keys", "Keys in the currently-crafting set."),
		broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_keys_total",
			Help:      "Changed keys broadcast to watchers.",
		}, []string{"channel"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_delivered_total",
			Help:      "Watcher callbacks that returned without error.",
		}, []string{"channel"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_submissions_total",
			Help:      "Job submissions by result code.",
		}, []string{"code"}),
		jobsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_finished_total",
			Help:      "Jobs that ended, by final state.",
		}, []string{"state"}),
		calcDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "calculation_duration_seconds",
			Help:      "Time taken by crafting calculations.",
			Buckets:   prometheus.DefBuckets,
		}),
		calcResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculations_total",
			Help:      "Finished calculations by result.",
		}, []string{"result"}),
		watcherFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watcher_failures_total",
			Help:      "Watcher callbacks that failed or panicked.",
		}, []string{"channel"}),
	}
	reg.MustRegister(
		c.tickDuration, c.ticks,
		c.clusters, c.busyClusters, c.links, c.watchers, c.craftableKeys, c.craftingKeys,
		c.broadcasts, c.notifications, c.submissions, c.jobsFinished,
		c.calcDuration, c.calcResults, c.watcherFailure,
	)
	return c
}

func gauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
}

// TickCompleted implements crafting.Recorder.
func (c *Collectors) TickCompleted(d time.Duration) {
	c.ticks.Inc()
	c.tickDuration.Observe(d.Seconds())
}

// SetGauges implements crafting.Recorder.
func (c *Collectors) SetGauges(g crafting.Gauges) {
	c.clusters.Set(float64(g.Clusters))
	c.busyClusters.Set(float64(g.BusyClusters))
	c.links.Set(float64(g.Links))
	c.watchers.Set(float64(g.Watchers))
	c.craftableKeys.Set(float64(g.CraftableKeys))
	c.craftingKeys.Set(float64(g.CraftingKeys))
}

// Broadcast implements crafting.Recorder.
func (c *Collectors) Broadcast(ch interest.Channel, changed, delivered int) {
	c.broadcasts.WithLabelValues(string(ch)).Add(float64(changed))
	c.notifications.WithLabelValues(string(ch)).Add(float64(delivered))
}

// JobSubmitted implements crafting.Recorder.
func (c *Collectors) JobSubmitted(code cpu.SubmitCode) {
	c.submissions.WithLabelValues(string(code)).Inc()
}

// JobFinished implements crafting.Recorder.
func (c *Collectors) JobFinished(state crafting.JobState) {
	c.jobsFinished.WithLabelValues(string(state)).Inc()
}

// CalcObserver returns a calc.Observer feeding the calculation metrics.
func (c *Collectors) CalcObserver() calc.Observer {
	return func(d time.Duration, err error) {
		c.calcDuration.Observe(d.Seconds())
		result := "ok"
		if err != nil {
			result = string(calc.CodeOf(err))
			if result == "" {
				result = "error"
			}
		}
		c.calcResults.WithLabelValues(result).Inc()
	}
}

// WatcherFailure returns an interest.FailureFunc counting failed
// deliveries.
func (c *Collectors) WatcherFailure() interest.FailureFunc {
	return func(ch interest.Channel, _ string, _ ir.Key, _ error) {
		c.watcherFailure.WithLabelValues(string(ch)).Inc()
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
