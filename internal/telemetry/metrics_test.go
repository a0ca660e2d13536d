package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.CallsTotal.WithLabelValues("Cache.Store", "ok").Inc()
	m.CacheHits.WithLabelValues("page").Add(2)

	if got := testutil.ToFloat64(m.CallsTotal.WithLabelValues("Cache.Store", "ok")); got != 1 {
		t.Errorf("calls_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CacheHits.WithLabelValues("page")); got != 2 {
		t.Errorf("content_cache_hits_total = %v, want 2", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	if len(families) == 0 {
		t.Error("expected registered metric families")
	}
}

func TestNewMetricsDoubleRegisterPanics(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	defer func() {
		if recover() == nil {
			t.Error("registering twice should panic")
		}
	}()
	NewMetrics(reg)
}
