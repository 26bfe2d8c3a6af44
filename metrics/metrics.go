// Package metrics provides Prometheus instrumentation for calibration and pricing runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector groups the collectors registered by New. A nil *Collector is
// valid and records nothing.
type Collector struct {
	// CalibrationsTotal counts calibration runs, partitioned by outcome.
	CalibrationsTotal *prometheus.CounterVec

	// CalibrationDuration tracks wall time of calibration runs.
	CalibrationDuration prometheus.Histogram

	// CalibrationObjective holds the objective value of the last run.
	CalibrationObjective prometheus.Gauge

	// PricingsTotal counts priced instruments by instrument and outcome.
	PricingsTotal *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		CalibrationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ratetree_calibrations_total",
			Help: "Total number of BDT calibration runs",
		}, []string{"status"}),
		CalibrationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ratetree_calibration_duration_seconds",
			Help:    "BDT calibration duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}),
		CalibrationObjective: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ratetree_calibration_objective",
			Help: "Objective value of the most recent calibration",
		}),
		PricingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ratetree_pricings_total",
			Help: "Total number of priced instruments",
		}, []string{"instrument", "outcome"}),
	}
	for _, col := range []prometheus.Collector{
		c.CalibrationsTotal,
		c.CalibrationDuration,
		c.CalibrationObjective,
		c.PricingsTotal,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveCalibration records one calibration run.
func (c *Collector) ObserveCalibration(status string, objective float64, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.CalibrationsTotal.WithLabelValues(status).Inc()
	c.CalibrationDuration.Observe(elapsed.Seconds())
	c.CalibrationObjective.Set(objective)
}

// ObservePricing records one pricing request.
func (c *Collector) ObservePricing(instrument string, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.PricingsTotal.WithLabelValues(instrument, outcome).Inc()
}

// WriteTextfile dumps every metric gathered by g in the Prometheus text format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
