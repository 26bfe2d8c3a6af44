package pricer

import (
	"fmt"
	"math"

	"github.com/meenmo/ratetree/lattice"
)

// Cashflow is a single payment of a bond at an integer period.
type Cashflow struct {
	Period    int
	Coupon    float64
	Principal float64
}

func (c Cashflow) Amount() float64 {
	return c.Coupon + c.Principal
}

// BondCashflows returns the cash flows of a t-period bond paying faceValue·c
// every period and faceValue at maturity.
func BondCashflows(faceValue, c float64, t int) []Cashflow {
	cfs := make([]Cashflow, 0, t)
	for n := 1; n <= t; n++ {
		cf := Cashflow{Period: n, Coupon: faceValue * c}
		if n == t {
			cf.Principal = faceValue
		}
		cfs = append(cfs, cf)
	}
	return cfs
}

// YieldResult is the output of YieldToMaturity.
type YieldResult struct {
	// Yield is the per-period compounded yield as a decimal.
	Yield float64
	// Iterations is the number of Newton-Raphson steps taken.
	Iterations int
}

// YieldToMaturity solves for the yield y such that the cash flows of a
// t-period bond with coupon c discounted at (1+y)^n equal price.
//
// The solver uses Newton-Raphson with analytic first derivative.
func YieldToMaturity(price, faceValue, c float64, t int) (YieldResult, error) {
	if t < 1 {
		return YieldResult{}, fmt.Errorf("YieldToMaturity: %w: maturity %d must be at least 1", lattice.ErrInvalidParameters, t)
	}
	if !lattice.IsFinite(price) || price <= 0 {
		return YieldResult{}, fmt.Errorf("YieldToMaturity: %w: price must be positive", lattice.ErrInvalidParameters)
	}
	if !lattice.IsFinite(faceValue) || faceValue <= 0 {
		return YieldResult{}, fmt.Errorf("YieldToMaturity: %w: face value must be positive", lattice.ErrInvalidParameters)
	}

	y, iterations, err := solveYield(price, BondCashflows(faceValue, c, t))
	if err != nil {
		return YieldResult{}, err
	}
	return YieldResult{Yield: y, Iterations: iterations}, nil
}

// ---------------------------------------------------------------------------
// Newton-Raphson solver (unexported)
// ---------------------------------------------------------------------------

const (
	yieldTolerance = 1e-12
	yieldMaxIter   = 100
	yieldFloor     = -0.5
	yieldCeiling   = 2.0
)

// solveYield finds y such that price(y) == target via Newton-Raphson.
func solveYield(target float64, cfs []Cashflow) (float64, int, error) {
	y := clamp(0.05, yieldFloor, yieldCeiling)

	for iter := 0; iter < yieldMaxIter; iter++ {
		price, dPdy := priceAndDeriv(y, cfs)
		f := price - target

		if math.Abs(f) < yieldTolerance*math.Max(1, target) {
			return y, iter + 1, nil
		}
		if math.Abs(dPdy) < 1e-15 {
			return y, iter + 1, fmt.Errorf("YieldToMaturity: %w: derivative too small at iter %d", lattice.ErrNumericalInstability, iter)
		}

		y = clamp(y-f/dPdy, yieldFloor, yieldCeiling)
	}

	return y, yieldMaxIter, fmt.Errorf("YieldToMaturity: %w: did not converge after %d iterations", lattice.ErrNumericalInstability, yieldMaxIter)
}

// priceAndDeriv returns (price, dPrice/dy):
//
//	price = Σ CF_n / (1+y)^n
//	dP/dy = Σ −n · CF_n / (1+y)^(n+1)
func priceAndDeriv(y float64, cfs []Cashflow) (float64, float64) {
	var price, deriv float64
	for _, cf := range cfs {
		n := float64(cf.Period)
		amt := cf.Amount()
		price += amt / math.Pow(1.0+y, n)
		deriv += -n * amt / math.Pow(1.0+y, n+1)
	}
	return price, deriv
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
