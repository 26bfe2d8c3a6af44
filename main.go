package main

import (
	"fmt"
	"os"

	"github.com/meenmo/ratetree/lattice"
	"github.com/meenmo/ratetree/pricer"
	"github.com/meenmo/ratetree/report"
)

func main() {
	model := lattice.Binomial{R: 0.06, U: 1.25, D: 0.9}
	engine, err := pricer.NewEngine(model, lattice.NewProbabilities(0.5))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	zcb, err := lattice.ZeroCouponPrices(model, 4, engine.Probabilities())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	_ = report.WriteZeroCouponPrices(os.Stdout, 100, zcb)
	fmt.Println()

	bond, _ := engine.CouponBond(100, 0.1, 6)
	fwd, _ := engine.Forward(100, 0.1, 4, 6)
	fut, _ := engine.Futures(100, 0.1, 4, 6)
	swap, _ := engine.Swap(1_000_000, 0.05, 6)
	swaption, _ := engine.Swaption(1_000_000, 0.05, 3, 6)
	par, _ := engine.ParSwapRate(6)

	fmt.Printf("Coupon bond (10%%, 6y): %.4f\n", bond)
	fmt.Printf("Forward (4y delivery): %.4f\n", fwd)
	fmt.Printf("Futures (4y delivery): %.4f\n", fut)
	fmt.Printf("Swap (5%%, 6y): %.2f\n", swap)
	fmt.Printf("Swaption (3y into 6y): %.2f\n", swaption)
	fmt.Printf("Par swap rate (6y): %.6f\n", par)
}
