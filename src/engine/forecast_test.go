package engine

import (
	"math"
	"testing"
	"time"

	"github.com/username/lifetimeline/backend/src/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEstimateCAGRShortHistoryUsesFullSpan(t *testing.T) {
	// Two points 2 years apart: 100 -> 121 is 10% a year.
	history := []models.PricePoint{
		{Date: day(2020, 1, 1), Price: 100},
		{Date: day(2022, 1, 1), Price: 121},
	}
	got := EstimateCAGR(history, 10)
	if math.Abs(got-0.10) > 0.005 {
		t.Errorf("EstimateCAGR = %v, want about 0.10", got)
	}
}

func TestEstimateCAGRUsesTrailingWindow(t *testing.T) {
	// Two years of daily data: flat first year, +20% over the trailing year.
	// With a 1-year lookback the flat early segment must not dilute the rate.
	end := day(2023, 6, 1)
	cutoff := day(2022, 6, 1)
	var history []models.PricePoint
	for d := day(2021, 6, 1); !d.After(end); d = d.AddDate(0, 0, 1) {
		price := 100.0
		if d.After(cutoff) {
			years := d.Sub(cutoff).Hours() / 24.0 / 365.0
			price = 100.0 * math.Pow(1.20, years)
		}
		history = append(history, models.PricePoint{Date: d, Price: price})
	}

	got := EstimateCAGR(history, 1)
	if math.Abs(got-0.20) > 0.005 {
		t.Errorf("EstimateCAGR = %v, want about 0.20 over the trailing window", got)
	}
}

func TestEstimateCAGRDegenerateInputs(t *testing.T) {
	if got := EstimateCAGR(nil, 10); got != 0 {
		t.Errorf("empty history: got %v, want 0", got)
	}
	if got := EstimateCAGR([]models.PricePoint{{Date: day(2024, 1, 1), Price: 100}}, 10); got != 0 {
		t.Errorf("single point: got %v, want 0", got)
	}
	nonPositive := []models.PricePoint{
		{Date: day(2020, 1, 1), Price: 0},
		{Date: day(2022, 1, 1), Price: 100},
	}
	if got := EstimateCAGR(nonPositive, 10); got != 0 {
		t.Errorf("non-positive first price: got %v, want 0", got)
	}
}

func TestForecastAtRate(t *testing.T) {
	history := []models.PricePoint{
		{Date: day(2020, 1, 1), Price: 100},
		{Date: day(2022, 1, 1), Price: 121},
	}

	oneYearOut := day(2023, 1, 1)
	projected := ForecastAtRate(history, []time.Time{oneYearOut}, 0.10)
	if len(projected) != 1 {
		t.Fatalf("got %d points, want 1", len(projected))
	}
	// 365 days at the daily equivalent of 10% a year.
	want := 121 * math.Pow(math.Pow(1.10, 1.0/365.25), 365)
	if math.Abs(projected[0].Price-want)/want > 1e-9 {
		t.Errorf("projected price = %v, want %v", projected[0].Price, want)
	}
	if !projected[0].Date.Equal(oneYearOut) {
		t.Errorf("projected date = %v, want %v", projected[0].Date, oneYearOut)
	}
}

func TestForecastAtRatePastDateKeepsLastPrice(t *testing.T) {
	history := []models.PricePoint{
		{Date: day(2022, 1, 1), Price: 50},
	}
	projected := ForecastAtRate(history, []time.Time{day(2021, 1, 1)}, 0.10)
	if len(projected) != 1 || projected[0].Price != 50 {
		t.Errorf("projected = %v, want last price unchanged for a past date", projected)
	}
}

func TestForecastEmptyInputs(t *testing.T) {
	if got := Forecast(nil, []time.Time{day(2025, 1, 1)}, 10); got != nil {
		t.Errorf("empty history: got %v, want nil", got)
	}
	history := []models.PricePoint{{Date: day(2022, 1, 1), Price: 50}}
	if got := Forecast(history, nil, 10); got != nil {
		t.Errorf("empty dates: got %v, want nil", got)
	}
}
