package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestWrapper(t *testing.T) (*Metrics, *MetricsWrapper) {
	t.Helper()
	registry := prometheus.NewRegistry()
	m := NewWithRegistry(registry)
	return m, NewWrapper(m)
}

func TestNewWrapper(t *testing.T) {
	m, wrapper := newTestWrapper(t)

	if wrapper == nil {
		t.Fatal("NewWrapper returned nil")
	}
	if wrapper.m != m {
		t.Error("Wrapper does not contain correct metrics instance")
	}
}

func TestMetricsWrapper_LoaderMetrics(t *testing.T) {
	m, wrapper := newTestWrapper(t)

	wrapper.ModelRequestedInc()
	wrapper.ModelRequestedInc()
	wrapper.ModelRequestedInc()
	wrapper.ModelLoadFailedInc()
	wrapper.ModelsLoadedSet(2)
	wrapper.DataWidthSet(5)

	if v := testutil.ToFloat64(m.ModelsRequested); v != 3 {
		t.Errorf("Expected 3 requested models, got %f", v)
	}
	if v := testutil.ToFloat64(m.ModelLoadFailures); v != 1 {
		t.Errorf("Expected 1 load failure, got %f", v)
	}
	if v := testutil.ToFloat64(m.ModelsLoaded); v != 2 {
		t.Errorf("Expected 2 loaded models, got %f", v)
	}
	if v := testutil.ToFloat64(m.DataWidth); v != 5 {
		t.Errorf("Expected data width 5, got %f", v)
	}
	if v := testutil.ToFloat64(m.ErrorsTotal); v != 1 {
		t.Errorf("Expected load failure to count as an error, got %f", v)
	}
}

func TestMetricsWrapper_EvaluationMetrics(t *testing.T) {
	m, wrapper := newTestWrapper(t)

	wrapper.EvaluationsInc()
	wrapper.EvaluationLatencyObserve(0.0005)

	if v := testutil.ToFloat64(m.Evaluations); v != 1 {
		t.Errorf("Expected 1 evaluation, got %f", v)
	}
	if n := testutil.CollectAndCount(m.EvaluationLatency); n != 1 {
		t.Errorf("Expected latency histogram to be collected, got %d series", n)
	}
}

func TestMetricsWrapper_StreamMetrics(t *testing.T) {
	m, wrapper := newTestWrapper(t)

	for i := 0; i < 4; i++ {
		wrapper.RecordsInc()
	}
	wrapper.ZeroWeightInc()

	if v := testutil.ToFloat64(m.RecordsProcessed); v != 4 {
		t.Errorf("Expected 4 records, got %f", v)
	}
	if v := testutil.ToFloat64(m.ZeroWeightRecords); v != 1 {
		t.Errorf("Expected 1 zero weight record, got %f", v)
	}
	if v := testutil.ToFloat64(m.ErrorsTotal); v != 1 {
		t.Errorf("Expected zero weight record to count as an error, got %f", v)
	}
}

func TestNewWithRegistry_DuplicateRegistrationPanics(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewWithRegistry(registry)

	defer func() {
		if recover() == nil {
			t.Error("Expected duplicate registration to panic")
		}
	}()
	NewWithRegistry(registry)
}
