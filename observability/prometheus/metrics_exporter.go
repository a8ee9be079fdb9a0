package prometheus

import (
	"errors"
	"fmt"

	"github.com/Swind/go-uthreads/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	// ConstLabels are attached to every collector, e.g. a scheduler name
	// when several schedulers share one registry.
	ConstLabels prom.Labels
}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	switchesTotal    *prom.CounterVec
	expirationsTotal prom.Counter
	spawnedTotal     prom.Counter
	terminatedTotal  prom.Counter
	usageErrorsTotal *prom.CounterVec
	readyQueueDepth  prom.Gauge
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "uthreads"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}

	switchesVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace:   namespace,
		Name:        "context_switches_total",
		Help:        "Quanta started, by the reason the previous one ended.",
		ConstLabels: opts.ConstLabels,
	}, []string{"reason"})
	expirations := prom.NewCounter(prom.CounterOpts{
		Namespace:   namespace,
		Name:        "quantum_expirations_total",
		Help:        "Timer expiries, delivered or deferred.",
		ConstLabels: opts.ConstLabels,
	})
	spawned := prom.NewCounter(prom.CounterOpts{
		Namespace:   namespace,
		Name:        "threads_spawned_total",
		Help:        "Threads created.",
		ConstLabels: opts.ConstLabels,
	})
	terminated := prom.NewCounter(prom.CounterOpts{
		Namespace:   namespace,
		Name:        "threads_terminated_total",
		Help:        "Thread control blocks released.",
		ConstLabels: opts.ConstLabels,
	})
	usageVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace:   namespace,
		Name:        "usage_errors_total",
		Help:        "Calls rejected with a thread library error.",
		ConstLabels: opts.ConstLabels,
	}, []string{"op"})
	depth := prom.NewGauge(prom.GaugeOpts{
		Namespace:   namespace,
		Name:        "ready_queue_depth",
		Help:        "Threads waiting in the ready queue.",
		ConstLabels: opts.ConstLabels,
	})

	var err error
	if switchesVec, err = registerCollector(reg, switchesVec); err != nil {
		return nil, err
	}
	if expirations, err = registerCollector(reg, expirations); err != nil {
		return nil, err
	}
	if spawned, err = registerCollector(reg, spawned); err != nil {
		return nil, err
	}
	if terminated, err = registerCollector(reg, terminated); err != nil {
		return nil, err
	}
	if usageVec, err = registerCollector(reg, usageVec); err != nil {
		return nil, err
	}
	if depth, err = registerCollector(reg, depth); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		switchesTotal:    switchesVec,
		expirationsTotal: expirations,
		spawnedTotal:     spawned,
		terminatedTotal:  terminated,
		usageErrorsTotal: usageVec,
		readyQueueDepth:  depth,
	}, nil
}

// RecordSwitch records the start of a quantum.
func (m *MetricsExporter) RecordSwitch(reason core.SwitchReason) {
	if m == nil {
		return
	}
	m.switchesTotal.WithLabelValues(reason.String()).Inc()
}

// RecordQuantumExpired records a timer expiry.
func (m *MetricsExporter) RecordQuantumExpired() {
	if m == nil {
		return
	}
	m.expirationsTotal.Inc()
}

// RecordThreadSpawned records a spawn.
func (m *MetricsExporter) RecordThreadSpawned() {
	if m == nil {
		return
	}
	m.spawnedTotal.Inc()
}

// RecordThreadTerminated records a released thread.
func (m *MetricsExporter) RecordThreadTerminated() {
	if m == nil {
		return
	}
	m.terminatedTotal.Inc()
}

// RecordUsageError records a rejected call.
func (m *MetricsExporter) RecordUsageError(op string) {
	if m == nil {
		return
	}
	m.usageErrorsTotal.WithLabelValues(normalizeLabel(op, "unknown")).Inc()
}

// RecordReadyQueueDepth records the ready queue length.
func (m *MetricsExporter) RecordReadyQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.readyQueueDepth.Set(float64(depth))
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
