package engine

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestSimulateContributionsOnly(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points, err := Simulate(start, CompoundParams{
		Initial:         1000,
		Monthly:         300,
		Years:           1,
		ContributionDay: 1,
	})
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	// 2024 is a leap year: 366 days plus the inclusive end date.
	if len(points) != 367 {
		t.Fatalf("got %d points, want 367", len(points))
	}

	if points[0].Value != 1300 {
		t.Errorf("day 0 value = %v, want 1300 (initial plus first contribution)", points[0].Value)
	}
	// With zero rates the value stays flat until the next contribution day.
	if points[30].Value != 1300 {
		t.Errorf("Jan 31 value = %v, want 1300", points[30].Value)
	}
	if points[31].Value != 1600 {
		t.Errorf("Feb 1 value = %v, want 1600", points[31].Value)
	}

	// 13 contribution days fall in the inclusive window Jan 1 to Jan 1.
	last := points[len(points)-1]
	if last.Value != 1000+13*300 {
		t.Errorf("final value = %v, want %v", last.Value, 1000+13*300)
	}
	if last.Contrib != last.Value {
		t.Errorf("final contrib = %v, want %v with zero rates", last.Contrib, last.Value)
	}
}

func TestSimulateGrowthMatchesClosedForm(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points, err := Simulate(start, CompoundParams{
		Initial:         1000,
		AnnualRate:      0.12,
		Years:           1,
		ContributionDay: 1,
	})
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	dailyNet := math.Pow(1.12, 1.0/365.0) - 1.0
	want := 1000 * math.Pow(1.0+dailyNet, float64(len(points)-1))
	got := points[len(points)-1].Value
	if math.Abs(got-want)/want > 1e-9 {
		t.Errorf("final value = %v, want %v", got, want)
	}
}

func TestSimulateRealValue(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Without contributions the inflation series stays flat at the initial
	// capital, so zero inflation means no deflation at all.
	noInflation, err := Simulate(start, CompoundParams{
		Initial: 1000, AnnualRate: 0.05, Years: 2, ContributionDay: 15,
	})
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	for i, pt := range noInflation {
		if pt.RealValue != pt.Value {
			t.Fatalf("day %d: RealValue = %v, want %v with zero inflation", i, pt.RealValue, pt.Value)
		}
	}

	// Day 0 real value always equals the nominal one.
	withContribs, err := Simulate(start, CompoundParams{
		Initial: 1000, Monthly: 100, AnnualRate: 0.05, InflationRate: 0.02, Years: 1, ContributionDay: 15,
	})
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if withContribs[0].RealValue != withContribs[0].Value {
		t.Errorf("day 0 RealValue = %v, want %v", withContribs[0].RealValue, withContribs[0].Value)
	}

	withInflation, err := Simulate(start, CompoundParams{
		Initial: 1000, AnnualRate: 0.05, InflationRate: 0.03, Years: 2, ContributionDay: 15,
	})
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	last := withInflation[len(withInflation)-1]
	if last.RealValue >= last.Value {
		t.Errorf("RealValue = %v, want less than nominal %v under positive inflation", last.RealValue, last.Value)
	}
	if last.RealValue <= 0 {
		t.Errorf("RealValue = %v, want positive", last.RealValue)
	}
}

func TestSimulateFeesReduceValue(t *testing.T) {
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	gross, err := Simulate(start, CompoundParams{Initial: 5000, AnnualRate: 0.07, Years: 3, ContributionDay: 10})
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	net, err := Simulate(start, CompoundParams{Initial: 5000, AnnualRate: 0.07, MgmtFeeAnnual: 0.01, OvernightDaily: 0.00001, Years: 3, ContributionDay: 10})
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if net[len(net)-1].Value >= gross[len(gross)-1].Value {
		t.Errorf("net value %v should be below gross value %v", net[len(net)-1].Value, gross[len(gross)-1].Value)
	}
}

func TestSimulateInvalidParameters(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	testCases := []struct {
		name   string
		params CompoundParams
	}{
		{"zero years", CompoundParams{Initial: 1000, Years: 0, ContributionDay: 1}},
		{"negative years", CompoundParams{Initial: 1000, Years: -5, ContributionDay: 1}},
		{"contribution day too low", CompoundParams{Initial: 1000, Years: 1, ContributionDay: 0}},
		{"contribution day too high", CompoundParams{Initial: 1000, Years: 1, ContributionDay: 29}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Simulate(start, tc.params)
			var paramErr *InvalidParameterError
			if !errors.As(err, &paramErr) {
				t.Errorf("got error %v, want *InvalidParameterError", err)
			}
		})
	}
}

func TestSimulateIsDeterministic(t *testing.T) {
	start := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	params := CompoundParams{Initial: 2500, Monthly: 150, AnnualRate: 0.06, InflationRate: 0.02, Years: 5, ContributionDay: 15}

	first, err := Simulate(start, params)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	second, err := Simulate(start, params)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("day %d differs between identical runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}
