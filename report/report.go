// Package report renders calibration output for the console.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

const rule = "----------------------------------------------------"

// WriteZeroCouponPrices prints face·ZCB(n) for each maturity, rounded to cents.
func WriteZeroCouponPrices(w io.Writer, face float64, prices []float64) error {
	f := decimal.NewFromFloat(face)
	var b strings.Builder
	fmt.Fprintf(&b, "Zero Coupon Bond Prices with face value $%s\n", f.String())
	b.WriteString(rule + "\n")
	for n, p := range prices {
		v := f.Mul(decimal.NewFromFloat(p)).Round(2)
		fmt.Fprintf(&b, "%d-year: $%s\n", n+1, v.StringFixed(2))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteCurve prints market and model spot rates side by side in percent.
func WriteCurve(w io.Writer, market, model []float64) error {
	if len(market) != len(model) {
		return fmt.Errorf("WriteCurve: market has %d rates, model has %d", len(market), len(model))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-6s %10s %10s %10s\n", "Year", "Market%", "Model%", "Diff(bp)")
	b.WriteString(rule + "\n")
	for n := range market {
		mk := decimal.NewFromFloat(market[n]).Shift(2)
		md := decimal.NewFromFloat(model[n]).Shift(2)
		bp := md.Sub(mk).Shift(2)
		fmt.Fprintf(&b, "%-6d %10s %10s %10s\n", n+1, mk.StringFixed(4), md.StringFixed(4), bp.StringFixed(4))
	}
	_, err := io.WriteString(w, b.String())
	return err
}
