package monitoring

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sarchlab/wnsched/arq"
	"github.com/sarchlab/wnsched/scheduling"
	"github.com/sarchlab/wnsched/scheduling/strategy"
)

// SchedulerCollector exposes allocation outcomes as Prometheus metrics. It
// implements strategy.Observer. A nil collector ignores every call.
type SchedulerCollector struct {
	gatherer prometheus.Gatherer

	GrantedTotal     *prometheus.CounterVec
	GrantedBitsTotal *prometheus.CounterVec
	RejectedTotal    *prometheus.CounterVec
	FramesTotal      prometheus.Counter
	ResourceUsage    prometheus.Gauge
	UsageHistogram   prometheus.Histogram
	ARQCounters      *prometheus.GaugeVec
}

// NewSchedulerCollector registers the metrics against reg, or the default
// registerer if reg is nil. Metrics that are already registered are reused.
func NewSchedulerCollector(reg prometheus.Registerer) (*SchedulerCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &SchedulerCollector{gatherer: gatherer}

	var err error

	c.GrantedTotal, err = register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wnsched_granted_total",
			Help: "Number of PDUs placed into a scheduling map.",
		}, []string{"user"}))
	if err != nil {
		return nil, err
	}

	c.GrantedBitsTotal, err = register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wnsched_granted_bits_total",
			Help: "Number of payload bits placed into a scheduling map.",
		}, []string{"user"}))
	if err != nil {
		return nil, err
	}

	c.RejectedTotal, err = register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wnsched_rejected_total",
			Help: "Number of requests that could not be served in a frame.",
		}, []string{"reason"}))
	if err != nil {
		return nil, err
	}

	c.FramesTotal, err = register(reg, prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wnsched_frames_total",
			Help: "Number of scheduling passes.",
		}))
	if err != nil {
		return nil, err
	}

	c.ResourceUsage, err = register(reg, prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "wnsched_resource_usage_ratio",
			Help: "Used fraction of the usable resources in the last map.",
		}))
	if err != nil {
		return nil, err
	}

	c.UsageHistogram, err = register(reg, prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wnsched_resource_usage",
			Help:    "Distribution of the resource usage per scheduling pass.",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		}))
	if err != nil {
		return nil, err
	}

	c.ARQCounters, err = register(reg, prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wnsched_arq_frames",
			Help: "ARQ counters per link.",
		}, []string{"link", "counter"}))
	if err != nil {
		return nil, err
	}

	for _, r := range strategy.AllRejectReasons {
		c.RejectedTotal.WithLabelValues(r.String())
	}

	return c, nil
}

// Gatherer returns the gatherer the metrics are registered with.
func (c *SchedulerCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}

	return c.gatherer
}

// Granted counts a placed PDU.
func (c *SchedulerCollector) Granted(user scheduling.UserID, bits int) {
	if c == nil {
		return
	}

	c.GrantedTotal.WithLabelValues(string(user)).Inc()
	c.GrantedBitsTotal.WithLabelValues(string(user)).Add(float64(bits))
}

// Rejected counts a request that was not served.
func (c *SchedulerCollector) Rejected(reason strategy.RejectReason) {
	if c == nil {
		return
	}

	c.RejectedTotal.WithLabelValues(reason.String()).Inc()
}

// FrameDone records the usage of a finished map.
func (c *SchedulerCollector) FrameDone(_ int, resourceUsage float64) {
	if c == nil {
		return
	}

	c.FramesTotal.Inc()
	c.ResourceUsage.Set(resourceUsage)
	c.UsageHistogram.Observe(resourceUsage)
}

// SetARQStats publishes the counters of one ARQ sender.
func (c *SchedulerCollector) SetARQStats(link string, s arq.Stats) {
	if c == nil {
		return
	}

	set := func(counter string, v int) {
		c.ARQCounters.WithLabelValues(link, counter).Set(float64(v))
	}

	set("sent", s.Sent)
	set("retransmissions", s.Retransmissions)
	set("acks_sent", s.ACKsSent)
	set("acks_received", s.ACKsReceived)
	set("delivered", s.Delivered)
	set("duplicates", s.Duplicates)
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing, nil
		}

		var zero T

		return zero, errors.Errorf(
			"collector %T already registered with incompatible type", c)
	}

	var zero T

	return zero, errors.Wrap(err, "registering collector")
}
