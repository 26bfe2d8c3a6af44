package pricer

import (
	"fmt"

	"github.com/meenmo/ratetree/lattice"
)

// ZeroCouponBondLattice returns the value lattice of a t-period zero-coupon bond.
//
// The terminal column holds faceValue; the root is today's price.
func (e *Engine) ZeroCouponBondLattice(faceValue float64, t int) (*lattice.Lattice, error) {
	const op = "ZeroCouponBond"
	if err := checkFinite(op, []string{"face value"}, faceValue); err != nil {
		return nil, err
	}
	rates, err := e.rates(op, t)
	if err != nil {
		return nil, err
	}

	v := lattice.NewLattice(t)
	fill(v.Column(t), faceValue)
	for j := t - 1; j >= 0; j-- {
		if err := e.rollback(op, v, rates, j, discounted, nil, false); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// ZeroCouponBond returns the price of a t-period zero-coupon bond.
func (e *Engine) ZeroCouponBond(faceValue float64, t int) (float64, error) {
	v, err := e.ZeroCouponBondLattice(faceValue, t)
	if err != nil {
		return 0, err
	}
	return v.Root(), nil
}

// CouponBondLattice returns the value lattice of a t-period bond paying
// faceValue·c at every step and faceValue·(1+c) at maturity.
//
// Each node includes the coupon paid at that node.
func (e *Engine) CouponBondLattice(faceValue, c float64, t int) (*lattice.Lattice, error) {
	const op = "CouponBond"
	v, _, err := e.couponBondTo(op, faceValue, c, t, 0)
	return v, err
}

// CouponBond returns the root value of CouponBondLattice.
func (e *Engine) CouponBond(faceValue, c float64, t int) (float64, error) {
	v, err := e.CouponBondLattice(faceValue, c, t)
	if err != nil {
		return 0, err
	}
	return v.Root(), nil
}

// couponBondTo rolls the coupon bond back from maturity to column stop,
// accruing coupons at every visited column. The caller continues from stop.
func (e *Engine) couponBondTo(op string, faceValue, c float64, t, stop int) (*lattice.Lattice, *lattice.Lattice, error) {
	if err := checkFinite(op, []string{"face value", "coupon"}, faceValue, c); err != nil {
		return nil, nil, err
	}
	rates, err := e.rates(op, t)
	if err != nil {
		return nil, nil, err
	}

	coupon := faceValue * c
	flow := func(float64) float64 { return coupon }

	v := lattice.NewLattice(t)
	fill(v.Column(t), faceValue*(1+c))
	for j := t - 1; j >= stop; j-- {
		if err := e.rollback(op, v, rates, j, discounted, flow, false); err != nil {
			return nil, nil, err
		}
	}
	return v, rates, nil
}

// Forward returns the forward price, for delivery at period ft, of a t-period
// coupon bond.
//
// Coupons paid at or before ft do not belong to the forward buyer. The
// ex-coupon value at ft is discounted to today and converted to forward terms
// by dividing by the ft-period zero-coupon price.
func (e *Engine) Forward(faceValue, c float64, ft, t int) (float64, error) {
	const op = "Forward"
	if err := checkExercise(op, "forward date", ft, 1, t); err != nil {
		return 0, err
	}
	v, rates, err := e.couponBondTo(op, faceValue, c, t, ft+1)
	if err != nil {
		return 0, err
	}
	for j := ft; j >= 0; j-- {
		if err := e.rollback(op, v, rates, j, discounted, nil, false); err != nil {
			return 0, err
		}
	}

	zcb, err := e.ZeroCouponBond(1, ft)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if zcb <= 0 || !lattice.IsFinite(zcb) {
		return 0, fmt.Errorf("%s: %w: %d-period discount factor %v", op, lattice.ErrNumericalInstability, ft, zcb)
	}
	return v.Root() / zcb, nil
}

// Futures returns the futures price, for delivery at period ft, of a t-period
// coupon bond.
//
// The ex-coupon value is discounted once into column ft. Earlier columns take
// the undiscounted risk-neutral expectation.
func (e *Engine) Futures(faceValue, c float64, ft, t int) (float64, error) {
	const op = "Futures"
	if err := checkExercise(op, "futures date", ft, 1, t); err != nil {
		return 0, err
	}
	v, rates, err := e.couponBondTo(op, faceValue, c, t, ft+1)
	if err != nil {
		return 0, err
	}
	if err := e.rollback(op, v, rates, ft, discounted, nil, false); err != nil {
		return 0, err
	}
	for j := ft - 1; j >= 0; j-- {
		if err := e.rollback(op, v, rates, j, expectation, nil, false); err != nil {
			return 0, err
		}
	}
	return v.Root(), nil
}

func checkExercise(op, name string, at, min, t int) error {
	if at < min || at >= t {
		return fmt.Errorf("%s: %w: %s %d must satisfy %d <= %s < maturity %d", op, lattice.ErrInvalidParameters, name, at, min, name, t)
	}
	return nil
}

func fill(col []float64, v float64) {
	for i := range col {
		col[i] = v
	}
}
