// Package marketdata turns quoted par yields at discrete tenors into the
// annual spot curve the calibrator consumes.
package marketdata

import (
	"fmt"
	"sort"

	"github.com/meenmo/ratetree/lattice"
)

// Observation is one quoted yield.
type Observation struct {
	Years    float64 // tenor in years
	YieldPct float64 // yield in percent
}

// Extrapolation selects how years outside the observed tenor range are filled.
type Extrapolation int

const (
	// ExtrapolateFlat holds the nearest observed yield.
	ExtrapolateFlat Extrapolation = iota
	// ExtrapolateNone rejects years outside the observed range.
	ExtrapolateNone
)

// ParseExtrapolation maps "flat" or "none" to a policy. Empty means flat.
func ParseExtrapolation(s string) (Extrapolation, error) {
	switch s {
	case "", "flat":
		return ExtrapolateFlat, nil
	case "none":
		return ExtrapolateNone, nil
	}
	return 0, fmt.Errorf("ParseExtrapolation: %w: unknown policy %q", lattice.ErrInvalidParameters, s)
}

func (e Extrapolation) String() string {
	if e == ExtrapolateNone {
		return "none"
	}
	return "flat"
}

// Curve holds decimal spot rates for years 1..Len().
type Curve struct {
	Rates []float64
}

func (c Curve) Len() int { return len(c.Rates) }

// Rate returns the decimal rate for a 1-based year.
func (c Curve) Rate(year int) float64 { return c.Rates[year-1] }

// Percent returns the curve in percent.
func (c Curve) Percent() []float64 {
	out := make([]float64, len(c.Rates))
	for k, r := range c.Rates {
		out[k] = r * 100
	}
	return out
}

// Interpolate builds the annual curve for years 1..t from quoted observations.
//
// Observations beyond t are ignored. Years matching a tenor take the quote,
// years between tenors are linear in the yield, and years outside the quoted
// range follow policy.
func Interpolate(obs []Observation, t int, policy Extrapolation) (Curve, error) {
	if t < 1 {
		return Curve{}, fmt.Errorf("Interpolate: %w: horizon %d must be at least 1", lattice.ErrInvalidParameters, t)
	}
	pts := prepare(obs, float64(t))
	if len(pts) == 0 {
		return Curve{}, fmt.Errorf("Interpolate: %w: no observations within %d years", lattice.ErrInvalidParameters, t)
	}

	rates := make([]float64, t)
	for year := 1; year <= t; year++ {
		y, err := yieldAt(pts, float64(year), policy)
		if err != nil {
			return Curve{}, fmt.Errorf("Interpolate: %w", err)
		}
		rates[year-1] = y / 100
	}
	return Curve{Rates: rates}, nil
}

// prepare keeps finite observations with tenors in (0, limit], sorted by
// tenor. A repeated tenor keeps its last quote.
func prepare(obs []Observation, limit float64) []Observation {
	byTenor := make(map[float64]float64, len(obs))
	for _, o := range obs {
		if o.Years <= 0 || o.Years > limit || !lattice.IsFinite(o.Years) || !lattice.IsFinite(o.YieldPct) {
			continue
		}
		byTenor[o.Years] = o.YieldPct
	}
	pts := make([]Observation, 0, len(byTenor))
	for y, v := range byTenor {
		pts = append(pts, Observation{Years: y, YieldPct: v})
	}
	sort.Slice(pts, func(a, b int) bool { return pts[a].Years < pts[b].Years })
	return pts
}

func yieldAt(pts []Observation, year float64, policy Extrapolation) (float64, error) {
	// First tenor >= year.
	idx := sort.Search(len(pts), func(i int) bool { return pts[i].Years >= year })

	if idx < len(pts) && pts[idx].Years == year {
		return pts[idx].YieldPct, nil
	}
	if idx == 0 || idx == len(pts) {
		if policy == ExtrapolateNone {
			return 0, fmt.Errorf("%w: year %v outside quoted range [%v, %v]", lattice.ErrInvalidParameters, year, pts[0].Years, pts[len(pts)-1].Years)
		}
		if idx == 0 {
			return pts[0].YieldPct, nil
		}
		return pts[len(pts)-1].YieldPct, nil
	}

	lo, hi := pts[idx-1], pts[idx]
	w := (year - lo.Years) / (hi.Years - lo.Years)
	return lo.YieldPct + w*(hi.YieldPct-lo.YieldPct), nil
}
