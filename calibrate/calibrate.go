package calibrate

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"

	"github.com/meenmo/ratetree/lattice"
	"github.com/meenmo/ratetree/metrics"
)

// ErrCalibrationFailed is matched by every *FailedError.
var ErrCalibrationFailed = errors.New("calibration failed")

// Problem describes a BDT calibration to a market spot curve.
type Problem struct {
	// B is the fixed log-rate spacing between adjacent states.
	B float64
	// Steps is the horizon t; one drift parameter is fitted per step.
	Steps int
	// Prob are the risk-neutral transition probabilities.
	Prob lattice.Probabilities
	// Market holds decimal spot rates for maturities 1..Steps.
	Market []float64
	// Initial is the starting drift vector in percent. If nil, every entry is
	// Config.InitialGuess.
	Initial []float64
}

// Result is a converged calibration.
type Result struct {
	A     []float64
	B     float64
	Steps int
	Prob  lattice.Probabilities

	// Objective is Σ (100·(market_n − model_n))² at A.
	Objective   float64
	Status      optimize.Status
	Method      string
	Iterations  int
	Evaluations int
	Runtime     time.Duration
}

// Model returns the calibrated BDT rate model.
func (r *Result) Model() lattice.BDT {
	return lattice.BDT{A: r.A, B: r.B}
}

// SpotRates regenerates the model spot curve for maturities 1..Steps.
func (r *Result) SpotRates() ([]float64, error) {
	return lattice.SpotRates(r.Model(), r.Steps, r.Prob)
}

// ZeroCouponPrices regenerates discount factors for maturities 1..Steps.
func (r *Result) ZeroCouponPrices() ([]float64, error) {
	return lattice.ZeroCouponPrices(r.Model(), r.Steps, r.Prob)
}

// FailedError reports an optimizer run that did not converge. Result holds
// the best point reached and must not be used as a calibrated curve.
type FailedError struct {
	Status  optimize.Status
	Message string
	Result  *Result
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("calibration failed: status=%v: %s", e.Status, e.Message)
}

func (e *FailedError) Is(target error) bool {
	return target == ErrCalibrationFailed
}

type options struct {
	cfg     Config
	logger  *zap.Logger
	metrics *metrics.Collector
}

// Option customises a Calibrate call.
type Option func(*options)

// WithConfig overrides DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger attaches a structured logger. The default discards output.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics records the run on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) { o.metrics = c }
}

// successStatuses are the optimizer outcomes accepted as converged.
var successStatuses = map[optimize.Status]bool{
	optimize.Success:             true,
	optimize.GradientThreshold:   true,
	optimize.FunctionThreshold:   true,
	optimize.FunctionConvergence: true,
}

// Calibrate fits the BDT drift vector so that lattice-implied spot rates
// match p.Market, minimising
//
//	objective(a) = Σ (100·(market_n − model_n(a)))²
//
// BFGS runs first with a central-difference gradient; if it does not
// converge and the fallback is enabled, Nelder-Mead restarts from the best
// point found. A run that still does not converge returns *FailedError.
func Calibrate(p Problem, opts ...Option) (*Result, error) {
	o := options{cfg: DefaultConfig, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := validate(p, o.cfg); err != nil {
		return nil, err
	}

	initial := p.Initial
	if initial == nil {
		initial = make([]float64, p.Steps)
		for k := range initial {
			initial[k] = o.cfg.InitialGuess
		}
	}

	log := o.logger.With(zap.Int("steps", p.Steps), zap.Float64("b", p.B), zap.Float64("qu", p.Prob.Up))
	start := time.Now()

	obj := objective(p)
	best := math.Inf(1)
	problem := optimize.Problem{
		Func: func(a []float64) float64 {
			f := obj(a)
			if f < best {
				best = f
			}
			return f
		},
		Grad: func(grad, a []float64) {
			fd.Gradient(grad, obj, a, &fd.Settings{Formula: fd.Central, Step: o.cfg.GradientStep})
		},
		Status: func() (optimize.Status, error) {
			if best <= o.cfg.ObjectiveTolerance {
				return optimize.FunctionThreshold, nil
			}
			return optimize.NotTerminated, nil
		},
	}
	settings := &optimize.Settings{
		GradientThreshold: o.cfg.GradientThreshold,
		MajorIterations:   o.cfg.MaxIterations,
		FuncEvaluations:   o.cfg.MaxEvaluations,
	}

	res, method, runErr := run(problem, initial, settings, &optimize.BFGS{}, "BFGS")
	if !converged(res, runErr) && o.cfg.FallbackNelderMead {
		from := initial
		if res != nil {
			from = res.X
		}
		log.Warn("BFGS did not converge, retrying with Nelder-Mead", zap.String("status", statusOf(res).String()), zap.Error(runErr))
		res, method, runErr = run(problem, from, settings, &optimize.NelderMead{}, "NelderMead")
	}

	out := &Result{
		B:       p.B,
		Steps:   p.Steps,
		Prob:    p.Prob,
		Method:  method,
		Runtime: time.Since(start),
	}
	if res != nil {
		out.A = append([]float64(nil), res.X...)
		out.Objective = res.F
		out.Status = res.Status
		out.Iterations = res.Stats.MajorIterations
		out.Evaluations = res.Stats.FuncEvaluations
	}
	o.metrics.ObserveCalibration(statusOf(res).String(), out.Objective, out.Runtime)

	if !converged(res, runErr) {
		msg := "optimizer did not reach a converged status"
		if runErr != nil {
			msg = runErr.Error()
		}
		log.Warn("calibration failed", zap.String("method", method), zap.String("status", statusOf(res).String()), zap.String("reason", msg))
		return nil, &FailedError{Status: statusOf(res), Message: msg, Result: out}
	}

	log.Info("calibration converged",
		zap.String("method", method),
		zap.String("status", out.Status.String()),
		zap.Float64("objective", out.Objective),
		zap.Int("iterations", out.Iterations),
		zap.Int("evaluations", out.Evaluations),
		zap.Duration("runtime", out.Runtime),
	)
	return out, nil
}

func run(problem optimize.Problem, initial []float64, settings *optimize.Settings, method optimize.Method, name string) (*optimize.Result, string, error) {
	x := append([]float64(nil), initial...)
	res, err := optimize.Minimize(problem, x, settings, method)
	return res, name, err
}

func converged(res *optimize.Result, err error) bool {
	if res == nil {
		return false
	}
	if err != nil && !successStatuses[res.Status] {
		return false
	}
	return successStatuses[res.Status] && lattice.IsFinite(res.F)
}

func statusOf(res *optimize.Result) optimize.Status {
	if res == nil {
		return optimize.Failure
	}
	return res.Status
}

// objective returns the scaled squared spot-rate error for a drift vector.
// Drift vectors that break the lattice evaluate to +Inf so line searches
// step back.
func objective(p Problem) func(a []float64) float64 {
	return func(a []float64) float64 {
		model, err := lattice.SpotRates(lattice.BDT{A: a, B: p.B}, p.Steps, p.Prob)
		if err != nil {
			return math.Inf(1)
		}
		var sum float64
		for n, m := range p.Market {
			d := 100 * (m - model[n])
			sum += d * d
		}
		return sum
	}
}

// Objective evaluates the calibration objective at a; exposed for diagnostics.
func Objective(p Problem, a []float64) float64 {
	return objective(p)(a)
}

func validate(p Problem, cfg Config) error {
	if p.Steps < 1 {
		return fmt.Errorf("Calibrate: %w: steps %d must be at least 1", lattice.ErrInvalidParameters, p.Steps)
	}
	if err := p.Prob.Validate(); err != nil {
		return fmt.Errorf("Calibrate: %w", err)
	}
	if !lattice.IsFinite(p.B) {
		return fmt.Errorf("Calibrate: %w: b must be finite", lattice.ErrInvalidParameters)
	}
	if len(p.Market) != p.Steps {
		return fmt.Errorf("Calibrate: %w: market curve has %d rates, want %d", lattice.ErrInvalidParameters, len(p.Market), p.Steps)
	}
	for n, m := range p.Market {
		if !lattice.IsFinite(m) || m <= -1 {
			return fmt.Errorf("Calibrate: %w: market rate %v at maturity %d", lattice.ErrInvalidParameters, m, n+1)
		}
	}
	if p.Initial != nil && len(p.Initial) != p.Steps {
		return fmt.Errorf("Calibrate: %w: initial guess has %d entries, want %d", lattice.ErrInvalidParameters, len(p.Initial), p.Steps)
	}
	for k, a := range p.Initial {
		if !lattice.IsFinite(a) {
			return fmt.Errorf("Calibrate: %w: initial a[%d] must be finite", lattice.ErrInvalidParameters, k)
		}
	}
	if p.Initial == nil && !lattice.IsFinite(cfg.InitialGuess) {
		return fmt.Errorf("Calibrate: %w: initial guess must be finite", lattice.ErrInvalidParameters)
	}
	if cfg.MaxIterations < 0 || cfg.MaxEvaluations < 0 || cfg.GradientStep <= 0 {
		return fmt.Errorf("Calibrate: %w: solver limits must be non-negative and gradient step positive", lattice.ErrInvalidParameters)
	}
	return nil
}
