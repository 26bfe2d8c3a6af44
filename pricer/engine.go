package pricer

import (
	"fmt"

	"github.com/meenmo/ratetree/lattice"
)

// Engine prices instruments by backward induction on a short-rate lattice.
//
// An Engine holds no lattice state: every call builds its own rate and value
// lattices, so one Engine may be shared freely.
type Engine struct {
	model lattice.RateModel
	prob  lattice.Probabilities
}

// NewEngine binds a rate model to risk-neutral probabilities.
func NewEngine(model lattice.RateModel, prob lattice.Probabilities) (*Engine, error) {
	if model == nil {
		return nil, fmt.Errorf("NewEngine: %w: nil rate model", lattice.ErrInvalidParameters)
	}
	if err := prob.Validate(); err != nil {
		return nil, fmt.Errorf("NewEngine: %w", err)
	}
	return &Engine{model: model, prob: prob}, nil
}

// Model returns the engine's rate model.
func (e *Engine) Model() lattice.RateModel {
	return e.model
}

// Probabilities returns the engine's risk-neutral probabilities.
func (e *Engine) Probabilities() lattice.Probabilities {
	return e.prob
}

// rates builds the depth t-1 rate lattice shared by every t-period contract.
func (e *Engine) rates(op string, t int) (*lattice.Lattice, error) {
	if t < 1 {
		return nil, fmt.Errorf("%s: %w: maturity %d must be at least 1", op, lattice.ErrInvalidParameters, t)
	}
	rates, err := lattice.BuildRates(e.model, t-1)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rates, nil
}

// rollMode selects how a column is derived from its successor column.
type rollMode int

const (
	// discounted: (qu·up + qd·down) / (1 + r)
	discounted rollMode = iota
	// expectation: qu·up + qd·down, no financing
	expectation
)

// rollback fills column j of v from column j+1. flow, if non-nil, is the cash
// realised at node (i,j) given its short rate; inside controls whether that
// cash is discounted together with the continuation value.
func (e *Engine) rollback(op string, v, rates *lattice.Lattice, j int, mode rollMode, flow func(r float64) float64, inside bool) error {
	next := v.Column(j + 1)
	col := v.Column(j)
	for i := range col {
		cont := e.prob.Up*next[i] + e.prob.Down*next[i+1]
		var cash float64
		if flow != nil {
			cash = flow(rates.At(i, j))
		}
		var val float64
		switch mode {
		case expectation:
			val = cont + cash
		default:
			r := rates.At(i, j)
			if inside {
				val = (cash + cont) / (1 + r)
			} else {
				val = cash + cont/(1+r)
			}
		}
		if !lattice.IsFinite(val) {
			return fmt.Errorf("%s: %w: value %v at node (%d,%d)", op, lattice.ErrNumericalInstability, val, i, j)
		}
		col[i] = val
	}
	return nil
}

func checkFinite(op string, names []string, values ...float64) error {
	for k, v := range values {
		if !lattice.IsFinite(v) {
			return fmt.Errorf("%s: %w: %s must be finite, got %v", op, lattice.ErrInvalidParameters, names[k], v)
		}
	}
	return nil
}
