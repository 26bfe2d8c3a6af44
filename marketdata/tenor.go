package marketdata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/meenmo/ratetree/lattice"
)

// TreasuryTenors are the constant-maturity Treasury tenors in years.
var TreasuryTenors = []int{1, 2, 3, 5, 7, 10, 20, 30}

// SeriesID returns the constant-maturity series identifier for a tenor in years (e.g. "DGS10").
func SeriesID(years int) string {
	return "DGS" + strconv.Itoa(years)
}

// ParseTenor converts tenor strings like "6M", "10Y", "DGS10" or "10" to years.
func ParseTenor(tenor string) (float64, error) {
	s := strings.TrimSpace(strings.ToUpper(tenor))
	s = strings.TrimPrefix(s, "DGS")

	scale := 1.0
	switch {
	case strings.HasSuffix(s, "W"):
		scale = 7.0 / 365.0
		s = strings.TrimSuffix(s, "W")
	case strings.HasSuffix(s, "M"):
		scale = 1.0 / 12.0
		s = strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "Y"):
		s = strings.TrimSuffix(s, "Y")
	case strings.HasSuffix(s, "D"):
		scale = 1.0 / 365.0
		s = strings.TrimSuffix(s, "D")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !lattice.IsFinite(v) || v <= 0 {
		return 0, fmt.Errorf("ParseTenor: %w: unrecognised tenor %q", lattice.ErrInvalidParameters, tenor)
	}
	return v * scale, nil
}
