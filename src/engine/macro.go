package engine

import (
	"math"
	"time"

	"github.com/username/lifetimeline/backend/src/models"
)

// MacroConfig holds the empirically tuned weights and bounds of the
// macro-adjusted CAGR variant. They are configuration, not literals, so the
// clamping behavior can be tested independently of the estimator.
type MacroConfig struct {
	// Per-z-unit weights. All negative: higher long rates, higher
	// volatility and a stronger currency each pull the projection down.
	RateWeight       float64
	VolatilityWeight float64
	CurrencyWeight   float64

	// Asymmetric band for the combined macro nudge.
	MaxDownshift float64
	MaxUpshift   float64

	// Absolute guard band for the final annual rate.
	MinAnnualRate float64
	MaxAnnualRate float64

	Epsilon float64
}

// DefaultMacroConfig returns the tuned production constants.
func DefaultMacroConfig() MacroConfig {
	return MacroConfig{
		RateWeight:       -0.004,
		VolatilityWeight: -0.003,
		CurrencyWeight:   -0.002,
		MaxDownshift:     0.02,
		MaxUpshift:       0.01,
		MinAnnualRate:    -0.05,
		MaxAnnualRate:    0.15,
		Epsilon:          1e-9,
	}
}

// MacroInputs carries the three proxy series of the adjustment: a long-rate
// proxy, an equity-volatility proxy and a currency-strength proxy. Each is an
// independent ascending date-indexed series; they need not align.
type MacroInputs struct {
	LongRate   []models.PricePoint
	Volatility []models.PricePoint
	Currency   []models.PricePoint
}

// zScore positions the last observation of a series against its full
// history: (last - mean) / (stdev + epsilon). Series with fewer than 30
// observations score 0 rather than producing a noisy signal.
func zScore(series []models.PricePoint, epsilon float64) float64 {
	if len(series) < minWindowObservations {
		return 0
	}

	var sum float64
	for _, pt := range series {
		sum += pt.Price
	}
	mean := sum / float64(len(series))

	var variance float64
	for _, pt := range series {
		d := pt.Price - mean
		variance += d * d
	}
	stdev := math.Sqrt(variance / float64(len(series)))

	return (series[len(series)-1].Price - mean) / (stdev + epsilon)
}

// MacroAdjustment combines the weighted proxy z-scores into a single rate
// nudge, clamped to the configured asymmetric band. Exposed separately from
// the estimator so the band property is testable on its own.
func MacroAdjustment(macro MacroInputs, cfg MacroConfig) float64 {
	adjustment := cfg.RateWeight*zScore(macro.LongRate, cfg.Epsilon) +
		cfg.VolatilityWeight*zScore(macro.Volatility, cfg.Epsilon) +
		cfg.CurrencyWeight*zScore(macro.Currency, cfg.Epsilon)
	return clamp(adjustment, -cfg.MaxDownshift, cfg.MaxUpshift)
}

// EstimateAdjustedCAGR perturbs the baseline trailing CAGR by the macro
// adjustment and clamps the result to the absolute guard band. The two
// clamps are deliberate and independent: one bounds the nudge, the other the
// final rate, so a pathological proxy series can never produce an
// implausible long-horizon projection.
func EstimateAdjustedCAGR(history []models.PricePoint, lookbackYears int, macro MacroInputs, cfg MacroConfig) float64 {
	base := EstimateCAGR(history, lookbackYears)
	adjusted := base + MacroAdjustment(macro, cfg)
	return clamp(adjusted, cfg.MinAnnualRate, cfg.MaxAnnualRate)
}

// ForecastAdjusted projects future prices at the macro-adjusted CAGR.
func ForecastAdjusted(history []models.PricePoint, futureDates []time.Time, lookbackYears int, macro MacroInputs, cfg MacroConfig) []models.PricePoint {
	return ForecastAtRate(history, futureDates, EstimateAdjustedCAGR(history, lookbackYears, macro, cfg))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
