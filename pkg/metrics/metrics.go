package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes of a planning run
const (
	OutcomeOK                 = "ok"
	OutcomeConfigurationError = "configuration_error"
	OutcomeEmptyAttendance    = "empty_attendance"
)

// Collector records planning metrics
type Collector struct {
	runs           *prometheus.CounterVec
	unfilled       prometheus.Histogram
	swaps          prometheus.Counter
	missingTrainer prometheus.Counter
	duration       prometheus.Histogram
}

// New registers the planning metrics on reg (prometheus.DefaultRegisterer if nil)
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "planner",
			Name:      "plan_runs_total",
			Help:      "Planning calls by outcome.",
		}, []string{"outcome"}),
		unfilled: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "planner",
			Name:      "unfilled_positions",
			Help:      "Positions left unfilled per successful plan.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
		swaps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "planner",
			Name:      "repair_swaps_total",
			Help:      "Swaps made by the repair phase.",
		}),
		missingTrainer: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "planner",
			Name:      "missing_trainer_total",
			Help:      "Facilities reported without a certified trainer.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "planner",
			Name:      "plan_duration_seconds",
			Help:      "Time spent in the assignment engine.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
	reg.MustRegister(c.runs, c.unfilled, c.swaps, c.missingTrainer, c.duration)
	return c
}

// ObserveFailure counts a run that produced no plan
func (c *Collector) ObserveFailure(outcome string) {
	c.runs.WithLabelValues(outcome).Inc()
}

// ObservePlan records a successful run
func (c *Collector) ObservePlan(unfilled, swaps, missingTrainer int, took time.Duration) {
	c.runs.WithLabelValues(OutcomeOK).Inc()
	c.unfilled.Observe(float64(unfilled))
	c.swaps.Add(float64(swaps))
	c.missingTrainer.Add(float64(missingTrainer))
	c.duration.Observe(took.Seconds())
}
