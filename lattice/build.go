package lattice

import (
	"fmt"
	"math"
)

// BuildRates fills the short-rate lattice for steps 0..t.
//
// t = 0 yields the root rate only.
func BuildRates(model RateModel, t int) (*Lattice, error) {
	if model == nil {
		return nil, fmt.Errorf("BuildRates: %w: nil rate model", ErrInvalidParameters)
	}
	if t < 0 {
		return nil, fmt.Errorf("BuildRates: %w: negative horizon %d", ErrInvalidParameters, t)
	}
	if err := model.Validate(t); err != nil {
		return nil, fmt.Errorf("BuildRates: %w", err)
	}

	rates := NewLattice(t)
	for j := 0; j <= t; j++ {
		col := rates.Column(j)
		for i := range col {
			r := model.Rate(i, j)
			if !IsFinite(r) || r <= -1 {
				return nil, fmt.Errorf("BuildRates: %w: rate %v at node (%d,%d)", ErrNumericalInstability, r, i, j)
			}
			col[i] = r
		}
	}
	return rates, nil
}

// ElementaryPrices returns the Arrow-Debreu price lattice for steps 0..t.
//
// Node (i,j) is today's value of one unit paid if and only if state i is
// reached at step j. The lattice is built by forward induction over the
// depth t-1 rate lattice starting from 1 at the root. t must be >= 1.
func ElementaryPrices(model RateModel, t int, p Probabilities) (*Lattice, error) {
	if t < 1 {
		return nil, fmt.Errorf("ElementaryPrices: %w: horizon %d must be at least 1", ErrInvalidParameters, t)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("ElementaryPrices: %w", err)
	}
	rates, err := BuildRates(model, t-1)
	if err != nil {
		return nil, err
	}
	return forwardInduction(rates, p)
}

func forwardInduction(rates *Lattice, p Probabilities) (*Lattice, error) {
	t := rates.Steps() + 1
	ept := NewLattice(t)
	ept.Set(0, 0, 1)

	for j := 1; j <= t; j++ {
		prev := ept.Column(j - 1)
		r := rates.Column(j - 1)
		col := ept.Column(j)

		// State i is reached from i (up-move) and from i-1 (down-move).
		col[0] = p.Up * prev[0] / (1 + r[0])
		col[j] = p.Down * prev[j-1] / (1 + r[j-1])
		for i := 1; i < j; i++ {
			col[i] = p.Up*prev[i]/(1+r[i]) + p.Down*prev[i-1]/(1+r[i-1])
		}
		for i, v := range col {
			if !IsFinite(v) {
				return nil, fmt.Errorf("ElementaryPrices: %w: value %v at node (%d,%d)", ErrNumericalInstability, v, i, j)
			}
		}
	}
	return ept, nil
}

// ZeroCouponPrices returns discount factors for maturities 1..t: the column
// sums of the elementary price lattice.
func ZeroCouponPrices(model RateModel, t int, p Probabilities) ([]float64, error) {
	ept, err := ElementaryPrices(model, t, p)
	if err != nil {
		return nil, err
	}
	out := make([]float64, t)
	for n := 1; n <= t; n++ {
		out[n-1] = ept.ColumnSum(n)
	}
	return out, nil
}

// SpotRates returns the annually compounded spot rates implied by the
// zero-coupon prices for maturities 1..t:
//
//	spot(n) = (1/ZCB(n))^(1/n) - 1
func SpotRates(model RateModel, t int, p Probabilities) ([]float64, error) {
	zcb, err := ZeroCouponPrices(model, t, p)
	if err != nil {
		return nil, err
	}
	return SpotRatesFromPrices(zcb)
}

// SpotRatesFromPrices converts discount factors for maturities 1..n to spot rates.
func SpotRatesFromPrices(zcb []float64) ([]float64, error) {
	out := make([]float64, len(zcb))
	for k, df := range zcb {
		if df <= 0 || !IsFinite(df) {
			return nil, fmt.Errorf("SpotRates: %w: discount factor %v at maturity %d", ErrNumericalInstability, df, k+1)
		}
		out[k] = math.Pow(1/df, 1/float64(k+1)) - 1
	}
	return out, nil
}
