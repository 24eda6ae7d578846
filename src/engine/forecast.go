package engine

import (
	"math"
	"time"

	"github.com/username/lifetimeline/backend/src/models"
)

// daysPerYear uses the astronomical year so multi-year CAGR exponents stay
// honest across leap years.
const daysPerYear = 365.25

// minWindowObservations is the threshold under which a trailing window (or a
// macro proxy series) is considered too thin to estimate from.
const minWindowObservations = 30

// EstimateCAGR estimates the compound annual growth rate over the trailing
// lookbackYears of a price history (ascending, duplicate-free). When fewer
// than 30 observations fall inside the window the estimator widens to the
// full history span, floored at a quarter year, to avoid unstable
// short-window rates. Empty, degenerate or sub-2-point histories yield 0.
func EstimateCAGR(history []models.PricePoint, lookbackYears int) float64 {
	if len(history) == 0 {
		return 0
	}

	end := history[len(history)-1].Date
	cutoff := end.AddDate(-lookbackYears, 0, 0)
	window := history
	for i, pt := range history {
		if !pt.Date.Before(cutoff) {
			window = history[i:]
			break
		}
	}

	years := float64(lookbackYears)
	if len(window) < minWindowObservations {
		window = history
		span := window[len(window)-1].Date.Sub(window[0].Date).Hours() / 24.0 / daysPerYear
		years = math.Max(span, 0.25)
	}

	if years <= 0 || len(window) < 2 {
		return 0
	}
	first := window[0].Price
	last := window[len(window)-1].Price
	if first <= 0 || last <= 0 {
		return 0
	}
	return math.Pow(last/first, 1.0/years) - 1.0
}

// Forecast extrapolates the last known price forward at the daily equivalent
// of the trailing CAGR, one projected point per requested future date. An
// empty history or an empty date list produces an empty series.
func Forecast(history []models.PricePoint, futureDates []time.Time, lookbackYears int) []models.PricePoint {
	return ForecastAtRate(history, futureDates, EstimateCAGR(history, lookbackYears))
}

// ForecastAtRate compounds the last observed price forward at a fixed annual
// rate, using actual elapsed days over 365.25. Dates at or before the last
// observation project the last price unchanged.
func ForecastAtRate(history []models.PricePoint, futureDates []time.Time, annualRate float64) []models.PricePoint {
	if len(history) == 0 || len(futureDates) == 0 {
		return nil
	}

	last := history[len(history)-1]
	daily := math.Pow(1.0+annualRate, 1.0/daysPerYear) - 1.0

	projected := make([]models.PricePoint, 0, len(futureDates))
	for _, d := range futureDates {
		days := d.Sub(last.Date).Hours() / 24.0
		if days < 0 {
			days = 0
		}
		projected = append(projected, models.PricePoint{
			Date:  d,
			Price: last.Price * math.Pow(1.0+daily, math.Floor(days)),
		})
	}
	return projected
}
