package metrics

import (
	"github.com/modfin/henry/compare"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"time"
)

// Collectors are the scheduling metrics. A nil *Collectors is valid and
// records nothing.
type Collectors struct {
	ticks        *prometheus.CounterVec
	outcomes     *prometheus.CounterVec
	sendDuration *prometheus.HistogramVec
	queued       prometheus.Gauge
	remaining    prometheus.Gauge
}

func NewCollectors(f promauto.Factory) *Collectors {
	return &Collectors{
		ticks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brevq",
			Name:      "ticks_total",
			Help:      "Scheduler ticks by result.",
		}, []string{"result"}),
		outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brevq",
			Name:      "dispatch_outcomes_total",
			Help:      "Delivery attempts by outcome.",
		}, []string{"outcome"}),
		sendDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "brevq",
			Name:      "send_duration_seconds",
			Help:      "Time spent handing a message to the transport.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"transport", "success"}),
		queued: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "brevq",
			Name:      "queue_length",
			Help:      "Emails that are pending, scheduled or processing.",
		}),
		remaining: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "brevq",
			Name:      "remaining_capacity",
			Help:      "Sends left in the rolling 24h window.",
		}),
	}
}

func (c *Collectors) Tick(result string) {
	if c == nil {
		return
	}
	c.ticks.WithLabelValues(result).Inc()
}

func (c *Collectors) Outcome(outcome string) {
	if c == nil {
		return
	}
	c.outcomes.WithLabelValues(outcome).Inc()
}

func (c *Collectors) ObserveSend(transport string, err error, d time.Duration) {
	if c == nil {
		return
	}
	c.sendDuration.WithLabelValues(transport, compare.Ternary(err == nil, "true", "false")).Observe(d.Seconds())
}

func (c *Collectors) Queue(queued int, remaining int) {
	if c == nil {
		return
	}
	c.queued.Set(float64(queued))
	c.remaining.Set(float64(remaining))
}
