package calibrate

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	bdt "github.com/meenmo/ratetree/calibrate"
	"github.com/meenmo/ratetree/config"
	"github.com/meenmo/ratetree/logging"
	"github.com/meenmo/ratetree/marketdata"
	"github.com/meenmo/ratetree/metrics"
	"github.com/meenmo/ratetree/report"
)

func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("calibrate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML config path (required)")
	metricsPath := fs.String("metrics", "", "Write Prometheus metrics to this textfile (overrides metrics.textfile)")
	help := fs.Bool("h", false, "Show help")
	fs.BoolVar(help, "help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *help {
		usage(stderr)
		return 0
	}
	if strings.TrimSpace(*configPath) == "" {
		usage(stderr)
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "calibrate: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "calibrate: invalid config: %v\n", err)
		return 1
	}
	if p := strings.TrimSpace(*metricsPath); p != "" {
		cfg.Metrics.Textfile = p
	}

	logger, err := logging.NewTo(stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(stderr, "calibrate: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("run_id", uuid.NewString()), zap.String("command", "calibrate"))

	reg := prometheus.NewRegistry()
	col, err := metrics.New(reg)
	if err != nil {
		logger.Error("failed to register metrics", zap.Error(err))
		return 1
	}

	code := calibrate(context.Background(), cfg, cfg.YieldSource(), logger, col, stdout)

	if p := cfg.Metrics.Textfile; p != "" {
		if err := metrics.WriteTextfile(p, reg); err != nil {
			logger.Error("failed to write metrics textfile", zap.String("path", p), zap.Error(err))
			return 1
		}
	}
	return code
}

func calibrate(ctx context.Context, cfg *config.Config, src marketdata.YieldSource, logger *zap.Logger, col *metrics.Collector, stdout io.Writer) int {
	obs, err := src.Yields(ctx, nil)
	if err != nil {
		logger.Error("failed to load market yields", zap.Error(err))
		return 1
	}
	curve, err := marketdata.Interpolate(obs, cfg.Model.Steps, cfg.Extrapolation())
	if err != nil {
		logger.Error("failed to build market curve", zap.Error(err))
		return 1
	}
	logger.Info("market curve built",
		zap.Int("quotes", len(obs)),
		zap.Int("steps", curve.Len()),
		zap.String("extrapolation", cfg.Extrapolation().String()),
	)

	res, err := bdt.Calibrate(bdt.Problem{
		B:      cfg.Model.B,
		Steps:  cfg.Model.Steps,
		Prob:   cfg.Probabilities(),
		Market: curve.Rates,
	},
		bdt.WithConfig(cfg.CalibrationConfig()),
		bdt.WithLogger(logger),
		bdt.WithMetrics(col),
	)
	if err != nil {
		if errors.Is(err, bdt.ErrCalibrationFailed) {
			fmt.Fprintf(stdout, "Calibration failed: %v\n", err)
		}
		logger.Error("calibration failed", zap.Error(err))
		return 1
	}

	zcb, err := res.ZeroCouponPrices()
	if err != nil {
		logger.Error("failed to price zero coupon bonds", zap.Error(err))
		return 1
	}
	spots, err := res.SpotRates()
	if err != nil {
		logger.Error("failed to compute model spot rates", zap.Error(err))
		return 1
	}

	if err := report.WriteZeroCouponPrices(stdout, cfg.Model.FaceValue, zcb); err != nil {
		logger.Error("failed to write report", zap.Error(err))
		return 1
	}
	fmt.Fprintln(stdout)
	if err := report.WriteCurve(stdout, curve.Rates, spots); err != nil {
		logger.Error("failed to write report", zap.Error(err))
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  ratetree calibrate -config /path/to/ratetree.yaml [-metrics out.prom]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Calibrate a BDT lattice to the configured yield curve and print zero")
	fmt.Fprintln(w, "coupon bond prices with the market vs model spot curve.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables prefixed RATETREE_ override config keys,")
	fmt.Fprintln(w, "e.g. RATETREE_MODEL_STEPS=10.")
}
