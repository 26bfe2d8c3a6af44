package marketdata_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/meenmo/ratetree/lattice"
	"github.com/meenmo/ratetree/marketdata"
)

func TestParseTenor(t *testing.T) {
	t.Parallel()

	cases := map[string]float64{
		"10Y":   10,
		"6M":    0.5,
		"DGS30": 30,
		" 7y ":  7,
		"2":     2,
	}
	for in, want := range cases {
		got, err := marketdata.ParseTenor(in)
		if err != nil {
			t.Fatalf("ParseTenor(%q) error: %v", in, err)
		}
		if math.Abs(got-want) > 1e-12 {
			t.Fatalf("ParseTenor(%q) mismatch: got %v want %v", in, got, want)
		}
	}
	for _, bad := range []string{"", "XY", "-1Y", "DGS"} {
		if _, err := marketdata.ParseTenor(bad); !errors.Is(err, lattice.ErrInvalidParameters) {
			t.Fatalf("ParseTenor(%q): expected ErrInvalidParameters, got %v", bad, err)
		}
	}
}

func TestInterpolate_TenorHitsAndLinearInterior(t *testing.T) {
	t.Parallel()

	obs := []marketdata.Observation{
		{Years: 5, YieldPct: 4.0},
		{Years: 1, YieldPct: 2.0},
		{Years: 2, YieldPct: 2.5},
	}
	curve, err := marketdata.Interpolate(obs, 5, marketdata.ExtrapolateFlat)
	if err != nil {
		t.Fatalf("Interpolate error: %v", err)
	}
	want := []float64{0.02, 0.025, 0.03, 0.035, 0.04}
	if curve.Len() != len(want) {
		t.Fatalf("length mismatch: got %d", curve.Len())
	}
	for k, w := range want {
		if math.Abs(curve.Rate(k+1)-w) > 1e-15 {
			t.Fatalf("year %d mismatch: got %v want %v", k+1, curve.Rate(k+1), w)
		}
	}
	if pct := curve.Percent(); math.Abs(pct[2]-3) > 1e-12 {
		t.Fatalf("Percent mismatch: got %v", pct)
	}
}

func TestInterpolate_Extrapolation(t *testing.T) {
	t.Parallel()

	obs := []marketdata.Observation{{Years: 2, YieldPct: 3}, {Years: 3, YieldPct: 3.5}, {Years: 20, YieldPct: 9}}

	curve, err := marketdata.Interpolate(obs, 5, marketdata.ExtrapolateFlat)
	if err != nil {
		t.Fatalf("Interpolate error: %v", err)
	}
	// The 20Y quote lies beyond the horizon and is dropped.
	want := []float64{0.03, 0.03, 0.035, 0.035, 0.035}
	for k, w := range want {
		if math.Abs(curve.Rates[k]-w) > 1e-15 {
			t.Fatalf("year %d mismatch: got %v want %v", k+1, curve.Rates[k], w)
		}
	}

	if _, err := marketdata.Interpolate(obs, 5, marketdata.ExtrapolateNone); !errors.Is(err, lattice.ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters with no extrapolation, got %v", err)
	}
}

func TestInterpolate_DuplicateTenorLastWins(t *testing.T) {
	t.Parallel()

	obs := []marketdata.Observation{{Years: 1, YieldPct: 1}, {Years: 1, YieldPct: 2}}
	curve, err := marketdata.Interpolate(obs, 1, marketdata.ExtrapolateNone)
	if err != nil {
		t.Fatalf("Interpolate error: %v", err)
	}
	if curve.Rate(1) != 0.02 {
		t.Fatalf("expected last quote to win, got %v", curve.Rate(1))
	}
}

func TestInterpolate_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := marketdata.Interpolate(nil, 3, marketdata.ExtrapolateFlat); !errors.Is(err, lattice.ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters for empty input, got %v", err)
	}
	obs := []marketdata.Observation{{Years: 1, YieldPct: 2}}
	if _, err := marketdata.Interpolate(obs, 0, marketdata.ExtrapolateFlat); !errors.Is(err, lattice.ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters for t=0, got %v", err)
	}
	if _, err := marketdata.ParseExtrapolation("linear"); !errors.Is(err, lattice.ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters for unknown policy, got %v", err)
	}
}

func TestMapYieldSource(t *testing.T) {
	t.Parallel()

	src := marketdata.NewMapYieldSource(map[string]float64{"DGS10": 4.2, "1Y": 3.9, "30Y": 4.5})
	obs, err := src.Yields(context.Background(), []int{1, 10})
	if err != nil {
		t.Fatalf("Yields error: %v", err)
	}
	if len(obs) != 2 || obs[0].Years != 1 || obs[1].YieldPct != 4.2 {
		t.Fatalf("unexpected observations: %+v", obs)
	}

	all, err := src.Yields(context.Background(), nil)
	if err != nil || len(all) != 3 {
		t.Fatalf("expected all 3 quotes, got %+v err=%v", all, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Yields(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	bad := marketdata.NewMapYieldSource(map[string]float64{"soon": 1})
	if _, err := bad.Yields(context.Background(), nil); !errors.Is(err, lattice.ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters for bad key, got %v", err)
	}
}

func TestSeriesID(t *testing.T) {
	t.Parallel()

	for _, y := range marketdata.TreasuryTenors {
		got, err := marketdata.ParseTenor(marketdata.SeriesID(y))
		if err != nil || got != float64(y) {
			t.Fatalf("SeriesID(%d) round trip: got %v err=%v", y, got, err)
		}
	}
}
