package lattice

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidParameters is returned when model or instrument inputs violate a constraint.
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrNumericalInstability is returned when a lattice would contain a non-finite
	// value or a non-positive one-period discount factor.
	ErrNumericalInstability = errors.New("numerical instability")
)

// probabilityTolerance bounds |Up + Down - 1|.
const probabilityTolerance = 1e-12

// RateModel produces the short rate applicable over [j, j+1] in state i.
//
// Rates are decimals (0.05 == 5%).
type RateModel interface {
	Rate(i, j int) float64
	// Validate reports whether the model can fill a lattice of the given depth.
	Validate(steps int) error
}

// Probabilities are the risk-neutral transition probabilities of the tree.
//
// From state i a step moves to state i with probability Up and to state i+1
// with probability Down.
type Probabilities struct {
	Up   float64
	Down float64
}

// NewProbabilities returns qu and qd = 1 - qu.
func NewProbabilities(qu float64) Probabilities {
	return Probabilities{Up: qu, Down: 1 - qu}
}

func (p Probabilities) Validate() error {
	if math.IsNaN(p.Up) || p.Up < 0 || p.Up > 1 {
		return fmt.Errorf("%w: up probability %v outside [0,1]", ErrInvalidParameters, p.Up)
	}
	if math.IsNaN(p.Down) || p.Down < 0 || p.Down > 1 {
		return fmt.Errorf("%w: down probability %v outside [0,1]", ErrInvalidParameters, p.Down)
	}
	if math.Abs(p.Up+p.Down-1) > probabilityTolerance {
		return fmt.Errorf("%w: probabilities %v + %v do not sum to 1", ErrInvalidParameters, p.Up, p.Down)
	}
	return nil
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
