package pricer

import (
	"fmt"
	"math"

	"github.com/meenmo/ratetree/lattice"
)

// Caplet prices a caplet with strike c on the rate fixed at period t-1 and
// paid at period t.
func (e *Engine) Caplet(notional, c float64, t int) (float64, error) {
	return e.optionlet("Caplet", notional, c, t, func(r float64) float64 {
		return math.Max(r-c, 0)
	})
}

// Floorlet prices a floorlet with strike c on the rate fixed at period t-1 and
// paid at period t.
func (e *Engine) Floorlet(notional, c float64, t int) (float64, error) {
	return e.optionlet("Floorlet", notional, c, t, func(r float64) float64 {
		return math.Max(c-r, 0)
	})
}

// optionlet values a payoff fixed at column t-1. The payment at t is
// discounted back to t-1 at the fixing rate itself.
func (e *Engine) optionlet(op string, notional, c float64, t int, payoff func(r float64) float64) (float64, error) {
	if err := checkFinite(op, []string{"notional", "strike"}, notional, c); err != nil {
		return 0, err
	}
	rates, err := e.rates(op, t)
	if err != nil {
		return 0, err
	}

	v := lattice.NewLattice(t - 1)
	last := v.Column(t - 1)
	for i := range last {
		r := rates.At(i, t-1)
		last[i] = notional * payoff(r) / (1 + r)
	}
	for j := t - 2; j >= 0; j-- {
		if err := e.rollback(op, v, rates, j, discounted, nil, false); err != nil {
			return 0, err
		}
	}
	return v.Root(), nil
}

// Swap prices a payer swap (receive floating, pay fixed c) with payments at
// periods 1..t, each determined by the rate set one period earlier.
func (e *Engine) Swap(notional, c float64, t int) (float64, error) {
	const op = "Swap"
	v, _, err := e.swapTo(op, notional, c, t, 0)
	if err != nil {
		return 0, err
	}
	return notional * v.Root(), nil
}

// Swaption prices the option to enter, at period ot, the payer swap with
// fixed rate c and final payment at t.
func (e *Engine) Swaption(notional, c float64, ot, t int) (float64, error) {
	const op = "Swaption"
	if err := checkExercise(op, "option expiry", ot, 0, t); err != nil {
		return 0, err
	}
	v, rates, err := e.swapTo(op, notional, c, t, ot)
	if err != nil {
		return 0, err
	}
	expiry := v.Column(ot)
	for i, x := range expiry {
		expiry[i] = math.Max(x, 0)
	}
	for j := ot - 1; j >= 0; j-- {
		if err := e.rollback(op, v, rates, j, discounted, nil, false); err != nil {
			return 0, err
		}
	}
	return notional * v.Root(), nil
}

// swapTo returns the unit-notional swap lattice rolled back to column stop.
func (e *Engine) swapTo(op string, notional, c float64, t, stop int) (*lattice.Lattice, *lattice.Lattice, error) {
	if err := checkFinite(op, []string{"notional", "fixed rate"}, notional, c); err != nil {
		return nil, nil, err
	}
	rates, err := e.rates(op, t)
	if err != nil {
		return nil, nil, err
	}

	net := func(r float64) float64 { return r - c }

	v := lattice.NewLattice(t - 1)
	last := v.Column(t - 1)
	for i := range last {
		r := rates.At(i, t-1)
		last[i] = net(r) / (1 + r)
	}
	for j := t - 2; j >= stop; j-- {
		if err := e.rollback(op, v, rates, j, discounted, net, true); err != nil {
			return nil, nil, err
		}
	}
	return v, rates, nil
}

// ParSwapRate returns the fixed rate at which the t-period swap is worth zero.
//
// The swap value is affine in the fixed rate, so two valuations determine it.
func (e *Engine) ParSwapRate(t int) (float64, error) {
	const op = "ParSwapRate"
	float0, err := e.Swap(1, 0, t)
	if err != nil {
		return 0, err
	}
	float1, err := e.Swap(1, 1, t)
	if err != nil {
		return 0, err
	}
	annuity := float0 - float1
	if annuity <= 0 || !lattice.IsFinite(annuity) {
		return 0, fmt.Errorf("%s: %w: annuity %v", op, lattice.ErrNumericalInstability, annuity)
	}
	return float0 / annuity, nil
}
