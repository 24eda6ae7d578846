package engine

import (
	"fmt"
	"math"
	"time"
)

// InvalidParameterError reports simulation parameters the engine refuses to
// run with. It is fatal to that simulation call only.
type InvalidParameterError struct {
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid simulation parameter: %s", e.Reason)
}

// CompoundParams configures one compounding simulation. Rates are decimals
// (0.05 = 5%); OvernightDaily is already a per-day rate.
type CompoundParams struct {
	Initial         float64 `json:"initial"`
	Monthly         float64 `json:"monthly"`
	AnnualRate      float64 `json:"annual_rate"`
	MgmtFeeAnnual   float64 `json:"mgmt_fee_annual"`
	InflationRate   float64 `json:"inflation_rate"`
	OvernightDaily  float64 `json:"overnight_daily"`
	Years           int     `json:"years"`
	ContributionDay int     `json:"contribution_day"`
}

// CompoundPoint is one day of the simulated series.
type CompoundPoint struct {
	Date           time.Time `json:"date"`
	Value          float64   `json:"value"`
	Contrib        float64   `json:"contrib"`
	NetRate        float64   `json:"net_rate"`
	InflationValue float64   `json:"inflation_value"`
	RealValue      float64   `json:"real_value"`
}

// Simulate runs the day-stepped compounding model:
//
//	v[t] = v[t-1]*(1+dailyNet) + contribution on the configured day of month
//	dailyNet = (1+AnnualRate)^(1/365) - 1 - MgmtFeeAnnual/365 - OvernightDaily
//
// Day 0 seeds the initial capital plus any contribution due that day. A
// parallel series compounds the same schedule at the inflation-implied daily
// rate; the real value deflates the nominal one by that series' growth
// factor, isolating purchasing-power erosion from nominal growth.
//
// The function is pure: identical (start, p) inputs always produce the same
// series, so callers may cache results by parameter identity.
func Simulate(start time.Time, p CompoundParams) ([]CompoundPoint, error) {
	if p.Years <= 0 {
		return nil, &InvalidParameterError{Reason: "years must be > 0"}
	}
	if p.ContributionDay < 1 || p.ContributionDay > 28 {
		return nil, &InvalidParameterError{Reason: "contribution day must be between 1 and 28"}
	}

	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	// Clamping to day 28 keeps the end date valid for every month length.
	endDay := start.Day()
	if endDay > 28 {
		endDay = 28
	}
	end := time.Date(start.Year()+p.Years, start.Month(), endDay, 0, 0, 0, 0, time.UTC)
	nDays := int(end.Sub(start).Hours()/24) + 1

	dailyGross := math.Pow(1.0+p.AnnualRate, 1.0/365.0) - 1.0
	dailyNet := dailyGross - p.MgmtFeeAnnual/365.0 - p.OvernightDaily
	dailyInflation := math.Pow(1.0+p.InflationRate, 1.0/365.0) - 1.0

	points := make([]CompoundPoint, nDays)
	for i := range points {
		date := start.AddDate(0, 0, i)
		contribution := 0.0
		if p.Monthly > 0 && date.Day() == p.ContributionDay {
			contribution = p.Monthly
		}

		pt := CompoundPoint{Date: date, NetRate: dailyNet}
		if i == 0 {
			pt.Value = p.Initial + contribution
			pt.Contrib = p.Initial + contribution
			pt.InflationValue = p.Initial + contribution
		} else {
			prev := points[i-1]
			pt.Value = prev.Value*(1.0+dailyNet) + contribution
			pt.Contrib = prev.Contrib + contribution
			pt.InflationValue = prev.InflationValue*(1.0+dailyInflation) + contribution
		}
		points[i] = pt
	}

	base := points[0].InflationValue
	for i := range points {
		factor := 1.0
		if base > 0 {
			factor = points[i].InflationValue / base
			if factor <= 0 {
				factor = 1.0
			}
		}
		points[i].RealValue = points[i].Value / factor
	}

	return points, nil
}
