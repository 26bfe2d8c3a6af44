package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_Observe(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c, err := New(reg)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	c.ObserveCalibration("FunctionThreshold", 1e-12, 20*time.Millisecond)
	c.ObserveCalibration("IterationLimit", 0.5, time.Second)
	c.ObservePricing("swap", nil)
	c.ObservePricing("swap", nil)
	c.ObservePricing("caplet", errors.New("bad strike"))

	if got := testutil.ToFloat64(c.CalibrationsTotal.WithLabelValues("FunctionThreshold")); got != 1 {
		t.Fatalf("calibrations{FunctionThreshold}: got %v want 1", got)
	}
	if got := testutil.ToFloat64(c.CalibrationObjective); got != 0.5 {
		t.Fatalf("objective gauge should hold the last run, got %v", got)
	}
	if got := testutil.ToFloat64(c.PricingsTotal.WithLabelValues("swap", "ok")); got != 2 {
		t.Fatalf("pricings{swap,ok}: got %v want 2", got)
	}
	if got := testutil.ToFloat64(c.PricingsTotal.WithLabelValues("caplet", "error")); got != 1 {
		t.Fatalf("pricings{caplet,error}: got %v want 1", got)
	}

	if _, err := New(reg); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestCollector_NilIsNoop(t *testing.T) {
	t.Parallel()

	var c *Collector
	c.ObserveCalibration("Success", 0, time.Millisecond)
	c.ObservePricing("zcb", nil)
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c, err := New(reg)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	c.ObservePricing("zcb", nil)

	path := filepath.Join(t.TempDir(), "ratetree.prom")
	if err := WriteTextfile(path, reg); err != nil {
		t.Fatalf("WriteTextfile error: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(raw), `ratetree_pricings_total{instrument="zcb",outcome="ok"} 1`) {
		t.Fatalf("unexpected textfile:\n%s", raw)
	}
}
