package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/artpar/pageblocks/adapters/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func gatheredNames(t *testing.T, reg *prometheus.Registry) map[string]int {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	names := make(map[string]int, len(families))
	for _, f := range families {
		names[f.GetName()] = len(f.GetMetric())
	}
	return names
}

func TestNewWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	if m == nil {
		t.Fatal("NewWithRegistry returned nil")
	}
	if m.SectionsTransformed == nil || m.TransformDuration == nil {
		t.Error("pipeline metrics not initialized")
	}
	if m.DiscoveryRuns == nil || m.DiscoveryFailures == nil || m.CacheOperations == nil {
		t.Error("registry metrics not initialized")
	}
	if m.Validations == nil {
		t.Error("validation metrics not initialized")
	}
}

func TestRecordSection(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.RecordSection("text", metrics.OutcomeOK)
	m.RecordSection("text", metrics.OutcomeOK)
	m.RecordSection("hero", metrics.OutcomeError)
	m.RecordSection("", metrics.OutcomeSkipped)

	if got := testutil.ToFloat64(m.SectionsTransformed.WithLabelValues("text", "ok")); got != 2 {
		t.Errorf("text/ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.SectionsTransformed.WithLabelValues("_none", "skipped")); got != 1 {
		t.Errorf("_none/skipped = %v, want 1", got)
	}

	names := gatheredNames(t, reg)
	if names["pageblocks_sections_transformed_total"] != 3 {
		t.Errorf("expected 3 series, got %d", names["pageblocks_sections_transformed_total"])
	}
}

func TestRecordDiscovery(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.RecordDiscovery("scan", 2*time.Millisecond, 4)
	m.RecordDiscovery("cache", 0, 5)
	m.RecordDiscoveryFailure("app.broken")

	if got := testutil.ToFloat64(m.RegisteredBlocks); got != 5 {
		t.Errorf("registered blocks = %v, want 5", got)
	}
	if got := testutil.ToFloat64(m.DiscoveryRuns.WithLabelValues("scan")); got != 1 {
		t.Errorf("scan runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.DiscoveryFailures.WithLabelValues("app.broken")); got != 1 {
		t.Errorf("failures = %v, want 1", got)
	}

	names := gatheredNames(t, reg)
	if _, ok := names["pageblocks_discovery_duration_seconds"]; !ok {
		t.Error("discovery duration histogram not found")
	}
}

func TestRecordConfigReload(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.RecordConfigReload(nil)
	m.RecordConfigReload(errors.New("bad yaml"))

	if got := testutil.ToFloat64(m.ConfigReloads); got != 1 {
		t.Errorf("reloads = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ConfigReloadErrors); got != 1 {
		t.Errorf("reload errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ConfigLastReload); got <= 0 {
		t.Errorf("last reload timestamp = %v, want > 0", got)
	}
}

func TestNilCollector(t *testing.T) {
	var m *metrics.Collector

	// None of these may panic.
	m.RecordSection("text", metrics.OutcomeOK)
	m.ObserveTransform("text", time.Millisecond)
	m.RecordDiscovery("scan", time.Millisecond, 1)
	m.RecordDiscoveryFailure("x")
	m.RecordCache("hit")
	m.RecordValidation("valid")
	m.ObserveRequest("GET", "/", "200", time.Millisecond)
	m.RecordConfigReload(nil)
}
