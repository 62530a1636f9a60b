package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	DeliveryResultSent    = "sent"
	DeliveryResultSkipped = "skipped"
	DeliveryResultFailed  = "failed"
)

// Config carries the static labels attached to every engine metric.
type Config struct {
	ServiceName string
	Environment string
}

// EngineMetrics captures automation and fan-out health signals.
type EngineMetrics struct {
	deliveries       *prometheus.CounterVec
	fanouts          *prometheus.CounterVec
	fanoutRecipients prometheus.Histogram
	scanRuns         prometheus.Counter
}

var (
	engineMetricsOnce sync.Once
	engineMetrics     *EngineMetrics
)

// Engine returns the singleton engine metrics registry.
func Engine() *EngineMetrics {
	return EngineWithConfig(Config{})
}

// EngineWithConfig returns the singleton engine metrics registry using config labels.
func EngineWithConfig(cfg Config) *EngineMetrics {
	engineMetricsOnce.Do(func() {
		engineMetrics = newEngineMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return engineMetrics
}

// ResetEngineMetricsForTest resets the engine metrics singleton for tests.
func ResetEngineMetricsForTest() {
	engineMetricsOnce = sync.Once{}
	engineMetrics = nil
}

func newEngineMetrics(registerer prometheus.Registerer, cfg Config) *EngineMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "academia"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	m := &EngineMetrics{
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "academia_rule_deliveries_total",
			Help:        "Automation rule delivery attempts by trigger and result.",
			ConstLabels: constLabels,
		}, []string{"trigger", "result"}),
		fanouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "academia_fanouts_total",
			Help:        "Notification fan-out calls by scope.",
			ConstLabels: constLabels,
		}, []string{"scope"}),
		fanoutRecipients: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "academia_fanout_recipients",
			Help:        "Resolved recipient count per fan-out call.",
			ConstLabels: constLabels,
			Buckets:     []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		}),
		scanRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "academia_inactivity_scans_total",
			Help:        "Inactivity scanner run count.",
			ConstLabels: constLabels,
		}),
	}

	registerer.MustRegister(m.deliveries, m.fanouts, m.fanoutRecipients, m.scanRuns)
	return m
}

func (m *EngineMetrics) IncDelivery(trigger, result string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(trigger, result).Inc()
}

func (m *EngineMetrics) ObserveFanout(scope string, recipients int) {
	if m == nil {
		return
	}
	m.fanouts.WithLabelValues(scope).Inc()
	m.fanoutRecipients.Observe(float64(recipients))
}

func (m *EngineMetrics) IncScanRun() {
	if m == nil {
		return
	}
	m.scanRuns.Inc()
}
