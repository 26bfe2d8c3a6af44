package marketdata

import (
	"context"
	"fmt"
	"sort"
)

// YieldSource supplies quoted yields for the requested tenors (in years).
type YieldSource interface {
	Yields(ctx context.Context, tenors []int) ([]Observation, error)
}

// MapYieldSource is a static source keyed by tenor string ("10Y", "DGS10", "6M").
type MapYieldSource struct {
	yields map[string]float64
}

func NewMapYieldSource(yields map[string]float64) *MapYieldSource {
	return &MapYieldSource{yields: yields}
}

// Yields returns every stored quote whose tenor is in tenors, or every quote
// when tenors is empty. Unparseable keys are an error.
func (m *MapYieldSource) Yields(ctx context.Context, tenors []int) ([]Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want := make(map[float64]bool, len(tenors))
	for _, t := range tenors {
		want[float64(t)] = true
	}

	out := make([]Observation, 0, len(m.yields))
	for key, pct := range m.yields {
		years, err := ParseTenor(key)
		if err != nil {
			return nil, fmt.Errorf("MapYieldSource: %w", err)
		}
		if len(want) > 0 && !want[years] {
			continue
		}
		out = append(out, Observation{Years: years, YieldPct: pct})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Years < out[b].Years })
	return out, nil
}
