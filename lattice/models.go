package lattice

import (
	"fmt"
	"math"
)

// Binomial is the constant-factor short-rate model:
//
//	r(i,j) = R · U^(j-i) · D^i
type Binomial struct {
	R float64 // initial short rate (decimal)
	U float64 // up factor
	D float64 // down factor
}

func (m Binomial) Rate(i, j int) float64 {
	return m.R * math.Pow(m.U, float64(j-i)) * math.Pow(m.D, float64(i))
}

func (m Binomial) Validate(steps int) error {
	if !IsFinite(m.R) || !IsFinite(m.U) || !IsFinite(m.D) {
		return fmt.Errorf("%w: binomial parameters must be finite", ErrInvalidParameters)
	}
	if m.D <= 0 || m.U <= m.D {
		return fmt.Errorf("%w: binomial factors require u > d > 0 (u=%v d=%v)", ErrInvalidParameters, m.U, m.D)
	}
	if m.R <= -1 {
		return fmt.Errorf("%w: initial rate %v must exceed -1", ErrInvalidParameters, m.R)
	}
	return nil
}

// BDT is the Black-Derman-Toy parameterisation with one drift per step:
//
//	r(i,j) = A[j] · exp(B · (j-i)) / 100
//
// A is quoted in percent; B is the fixed log-rate spacing between states. A is
// not required to be positive: a drift only fails once it pushes a rate to -1
// or below, which BuildRates reports.
type BDT struct {
	A []float64
	B float64
}

func (m BDT) Rate(i, j int) float64 {
	return m.A[j] * math.Exp(m.B*float64(j-i)) / 100
}

func (m BDT) Validate(steps int) error {
	if len(m.A) < steps+1 {
		return fmt.Errorf("%w: BDT needs %d drift parameters, got %d", ErrInvalidParameters, steps+1, len(m.A))
	}
	if !IsFinite(m.B) {
		return fmt.Errorf("%w: BDT b must be finite", ErrInvalidParameters)
	}
	for j := 0; j <= steps; j++ {
		if !IsFinite(m.A[j]) {
			return fmt.Errorf("%w: BDT a[%d]=%v must be finite", ErrInvalidParameters, j, m.A[j])
		}
	}
	return nil
}
