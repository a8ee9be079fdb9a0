package prometheus

import (
	"testing"

	"github.com/Swind/go-uthreads/core"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestMetricsExporter_RecordMethods(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("uthreads", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}

	exporter.RecordSwitch(core.SwitchPreempted)
	exporter.RecordSwitch(core.SwitchPreempted)
	exporter.RecordSwitch(core.SwitchSynced)
	exporter.RecordQuantumExpired()
	exporter.RecordThreadSpawned()
	exporter.RecordThreadTerminated()
	exporter.RecordUsageError("block")
	exporter.RecordUsageError("")
	exporter.RecordReadyQueueDepth(7)

	if got := testutil.ToFloat64(exporter.switchesTotal.WithLabelValues("preempted")); got != 2 {
		t.Fatalf("preempted switches = %v, want 2", got)
	}
	if got := testutil.ToFloat64(exporter.switchesTotal.WithLabelValues("synced")); got != 1 {
		t.Fatalf("synced switches = %v, want 1", got)
	}
	if got := testutil.ToFloat64(exporter.expirationsTotal); got != 1 {
		t.Fatalf("expirations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(exporter.spawnedTotal); got != 1 {
		t.Fatalf("spawned = %v, want 1", got)
	}
	if got := testutil.ToFloat64(exporter.terminatedTotal); got != 1 {
		t.Fatalf("terminated = %v, want 1", got)
	}
	if got := testutil.ToFloat64(exporter.usageErrorsTotal.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("usage errors for empty op = %v, want 1", got)
	}
	if got := testutil.ToFloat64(exporter.readyQueueDepth); got != 7 {
		t.Fatalf("ready queue depth = %v, want 7", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if got := counterValue(families, "uthreads_usage_errors_total", "op", "block"); got != 1 {
		t.Fatalf("gathered usage errors = %v, want 1", got)
	}
}

func TestMetricsExporter_AlreadyRegisteredReuse(t *testing.T) {
	reg := prom.NewRegistry()
	first, err := NewMetricsExporter("uthreads", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("first NewMetricsExporter failed: %v", err)
	}
	second, err := NewMetricsExporter("uthreads", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("second NewMetricsExporter failed: %v", err)
	}

	first.RecordThreadSpawned()
	second.RecordThreadSpawned()

	got := testutil.ToFloat64(first.spawnedTotal)
	if got != 2 {
		t.Fatalf("shared spawned counter = %v, want 2", got)
	}
}

// TestMetricsExporter_WiredToScheduler verifies a scheduler reports through the exporter
func TestMetricsExporter_WiredToScheduler(t *testing.T) {
	// Arrange
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("", reg, ExporterOptions{ConstLabels: prom.Labels{"scheduler": "test"}})
	if err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}
	cfg := core.DefaultSchedulerConfig(1000)
	cfg.Timer = core.NewManualTimer()
	cfg.Logger = core.NewNoOpLogger()
	cfg.Metrics = exporter
	cfg.ExitFunc = func(int) {}
	s, err := core.NewSchedulerWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewSchedulerWithConfig failed: %v", err)
	}
	defer s.Terminate(core.MainThreadID)

	// Act
	if _, err := s.Spawn(func() {}); err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	_ = s.Yield()
	_ = s.Block(core.MainThreadID)

	// Assert
	if got := testutil.ToFloat64(exporter.spawnedTotal); got != 1 {
		t.Errorf("spawned = %v, want 1", got)
	}
	if got := testutil.ToFloat64(exporter.terminatedTotal); got != 1 {
		t.Errorf("terminated = %v, want 1", got)
	}
	if got := testutil.ToFloat64(exporter.switchesTotal.WithLabelValues("terminated")); got != 1 {
		t.Errorf("terminated switches = %v, want 1", got)
	}
	if got := testutil.ToFloat64(exporter.usageErrorsTotal.WithLabelValues("block")); got != 1 {
		t.Errorf("block usage errors = %v, want 1", got)
	}
}

func counterValue(families []*dto.MetricFamily, name, label, value string) float64 {
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if pair.GetName() == label && pair.GetValue() == value {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
