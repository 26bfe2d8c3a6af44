package price

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/meenmo/ratetree/lattice"
	"github.com/meenmo/ratetree/logging"
	"github.com/meenmo/ratetree/metrics"
	"github.com/meenmo/ratetree/pricer"
)

// ModelInput selects the short-rate model.
//
// Conventions:
// - binomial: r, u, d in decimal (r=0.05 means 5%)
// - bdt: a in percent, one entry per lattice step; b is the log spacing
type ModelInput struct {
	Type string    `json:"type"` // "binomial" or "bdt"
	R    float64   `json:"r"`
	U    float64   `json:"u"`
	D    float64   `json:"d"`
	A    []float64 `json:"a"`
	B    float64   `json:"b"`
}

// PricingInput is one pricing request. Rates and coupons are decimal.
type PricingInput struct {
	TaskID     string     `json:"task_id,omitempty"`
	Instrument string     `json:"instrument"`
	Model      ModelInput `json:"model"`

	// UpProbability defaults to 0.5 when omitted.
	UpProbability *float64 `json:"up_probability,omitempty"`

	FaceValue float64 `json:"face_value"`
	Notional  float64 `json:"notional"`
	Coupon    float64 `json:"coupon"`
	Strike    float64 `json:"strike"`
	FixedRate float64 `json:"fixed_rate"`
	Exercise  int     `json:"exercise"` // forward/futures delivery or swaption expiry
	Maturity  int     `json:"maturity"`

	// Price is the observed bond price for "ytm".
	Price float64 `json:"price"`
}

type PricingOutput struct {
	TaskID     string  `json:"task_id,omitempty"`
	Instrument string  `json:"instrument"`
	Value      float64 `json:"value"`
	Iterations int     `json:"iterations,omitempty"`
	Error      string  `json:"error,omitempty"`
}

func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("price", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inputPath := fs.String("input", "", "JSON input path (optional; if set, ignores stdin)")
	logLevel := fs.String("log-level", "warn", "Log level (debug, info, warn, error)")
	metricsPath := fs.String("metrics", "", "Write Prometheus metrics to this textfile")
	help := fs.Bool("h", false, "Show help")
	fs.BoolVar(help, "help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *help {
		usage(stderr)
		return 0
	}

	path := strings.TrimSpace(*inputPath)
	if path == "" {
		if f, ok := stdin.(*os.File); ok {
			if stat, err := f.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) != 0 {
				usage(stderr)
				return 2
			}
		}
	}

	logger, err := logging.NewTo(stderr, *logLevel, "json")
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("run_id", uuid.NewString()), zap.String("command", "price"))

	reg := prometheus.NewRegistry()
	col, err := metrics.New(reg)
	if err != nil {
		return writeError(stdout, fmt.Sprintf("metrics: %v", err))
	}

	raw, err := readInput(stdin, path)
	if err != nil {
		return writeError(stdout, fmt.Sprintf("failed to read input: %v", err))
	}
	inputs, isArray, err := parseInputs(raw)
	if err != nil {
		return writeError(stdout, fmt.Sprintf("failed to parse JSON input: %v", err))
	}

	hadError := false
	outputs := make([]PricingOutput, 0, len(inputs))
	for _, in := range inputs {
		out, err := process(in)
		col.ObservePricing(in.Instrument, err)
		if err != nil {
			hadError = true
			logger.Warn("pricing failed", zap.String("task_id", in.TaskID), zap.String("instrument", in.Instrument), zap.Error(err))
			outputs = append(outputs, PricingOutput{TaskID: in.TaskID, Instrument: in.Instrument, Error: err.Error()})
			continue
		}
		logger.Debug("priced", zap.String("task_id", in.TaskID), zap.String("instrument", in.Instrument), zap.Float64("value", out.Value))
		outputs = append(outputs, *out)
	}

	if isArray {
		b, _ := json.Marshal(outputs)
		fmt.Fprintln(stdout, string(b))
	} else {
		b, _ := json.Marshal(outputs[0])
		fmt.Fprintln(stdout, string(b))
	}

	if p := strings.TrimSpace(*metricsPath); p != "" {
		if err := metrics.WriteTextfile(p, reg); err != nil {
			logger.Error("failed to write metrics textfile", zap.String("path", p), zap.Error(err))
			return 1
		}
	}

	if hadError {
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  ratetree price < input.json")
	fmt.Fprintln(w, "  ratetree price -input /path/to/input.json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Read one JSON request or an array of requests, price each on a short-rate")
	fmt.Fprintln(w, "lattice, output JSON to stdout.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Instruments: zcb, coupon_bond, forward, futures, caplet, floorlet, swap,")
	fmt.Fprintln(w, "             swaption, par_swap_rate, ytm")
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(stdin)
}

func parseInputs(raw []byte) ([]PricingInput, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false, fmt.Errorf("empty input")
	}
	if trimmed[0] == '[' {
		var inputs []PricingInput
		if err := json.Unmarshal(trimmed, &inputs); err != nil {
			return nil, true, err
		}
		if len(inputs) == 0 {
			return nil, true, fmt.Errorf("empty input array")
		}
		return inputs, true, nil
	}
	var input PricingInput
	if err := json.Unmarshal(trimmed, &input); err != nil {
		return nil, false, err
	}
	return []PricingInput{input}, false, nil
}

func writeError(stdout io.Writer, msg string) int {
	b, _ := json.Marshal(PricingOutput{Error: msg})
	fmt.Fprintln(stdout, string(b))
	return 1
}

func rateModel(m ModelInput) (lattice.RateModel, error) {
	switch strings.ToLower(strings.TrimSpace(m.Type)) {
	case "binomial", "":
		return lattice.Binomial{R: m.R, U: m.U, D: m.D}, nil
	case "bdt":
		return lattice.BDT{A: m.A, B: m.B}, nil
	default:
		return nil, fmt.Errorf("unknown model type %q (use binomial or bdt)", m.Type)
	}
}

func process(in PricingInput) (*PricingOutput, error) {
	instrument := strings.ToLower(strings.TrimSpace(in.Instrument))
	out := &PricingOutput{TaskID: in.TaskID, Instrument: in.Instrument}

	// Yield to maturity needs no lattice.
	if instrument == "ytm" {
		res, err := pricer.YieldToMaturity(in.Price, in.FaceValue, in.Coupon, in.Maturity)
		if err != nil {
			return nil, err
		}
		out.Value = res.Yield
		out.Iterations = res.Iterations
		return out, nil
	}

	model, err := rateModel(in.Model)
	if err != nil {
		return nil, err
	}
	qu := 0.5
	if in.UpProbability != nil {
		qu = *in.UpProbability
	}
	engine, err := pricer.NewEngine(model, lattice.NewProbabilities(qu))
	if err != nil {
		return nil, err
	}

	switch instrument {
	case "zcb", "zero_coupon_bond":
		out.Value, err = engine.ZeroCouponBond(in.FaceValue, in.Maturity)
	case "coupon_bond", "bond":
		out.Value, err = engine.CouponBond(in.FaceValue, in.Coupon, in.Maturity)
	case "forward":
		out.Value, err = engine.Forward(in.FaceValue, in.Coupon, in.Exercise, in.Maturity)
	case "futures":
		out.Value, err = engine.Futures(in.FaceValue, in.Coupon, in.Exercise, in.Maturity)
	case "caplet":
		out.Value, err = engine.Caplet(in.Notional, in.Strike, in.Maturity)
	case "floorlet":
		out.Value, err = engine.Floorlet(in.Notional, in.Strike, in.Maturity)
	case "swap":
		out.Value, err = engine.Swap(in.Notional, in.FixedRate, in.Maturity)
	case "swaption":
		out.Value, err = engine.Swaption(in.Notional, in.FixedRate, in.Exercise, in.Maturity)
	case "par_swap_rate":
		out.Value, err = engine.ParSwapRate(in.Maturity)
	default:
		return nil, fmt.Errorf("unknown instrument %q", in.Instrument)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}
