package services

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/username/lifetimeline/backend/src/engine"
	"github.com/username/lifetimeline/backend/src/models"
)

// mockMarketService serves canned series per symbol and records fetches.
type mockMarketService struct {
	series  map[string][]models.PricePoint
	fetched []string
}

func (m *mockMarketService) FetchDailyHistory(symbol string, lookbackYears int) ([]models.PricePoint, error) {
	m.fetched = append(m.fetched, symbol)
	if s, ok := m.series[symbol]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: no data for %s", ErrMarketData, symbol)
}

func growthSeries(start time.Time, days int, initial, annualRate float64) []models.PricePoint {
	series := make([]models.PricePoint, days)
	for i := range series {
		series[i] = models.PricePoint{
			Date:  start.AddDate(0, 0, i),
			Price: initial * math.Pow(1.0+annualRate, float64(i)/365.25),
		}
	}
	return series
}

func TestForecastSymbolBaseline(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	history := growthSeries(start, 1200, 100, 0.08)
	mock := &mockMarketService{series: map[string][]models.PricePoint{"VWCE.DE": history}}
	svc := NewForecastService(mock, 3)

	future := []time.Time{history[len(history)-1].Date.AddDate(1, 0, 0)}
	result, err := svc.ForecastSymbol("VWCE.DE", future, false)
	if err != nil {
		t.Fatalf("ForecastSymbol failed: %v", err)
	}

	if result.Symbol != "VWCE.DE" {
		t.Errorf("Symbol = %q, want %q", result.Symbol, "VWCE.DE")
	}
	if math.Abs(result.AnnualRate-0.08) > 0.01 {
		t.Errorf("AnnualRate = %v, want about 0.08", result.AnnualRate)
	}
	if result.MacroAdjustment != 0 {
		t.Errorf("MacroAdjustment = %v, want 0 without the adjusted flag", result.MacroAdjustment)
	}
	if len(result.Projected) != 1 {
		t.Fatalf("got %d projected points, want 1", len(result.Projected))
	}
	if result.Projected[0].Price <= result.LastObserved.Price {
		t.Errorf("projection %v should exceed last observed %v at a positive rate", result.Projected[0].Price, result.LastObserved.Price)
	}
	// Only the asset itself is fetched for a baseline forecast.
	if len(mock.fetched) != 1 {
		t.Errorf("fetched symbols = %v, want just the asset", mock.fetched)
	}
}

func TestForecastSymbolAdjustedFetchesProxies(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	history := growthSeries(start, 1200, 100, 0.08)
	mock := &mockMarketService{series: map[string][]models.PricePoint{
		"VWCE.DE":         history,
		SymbolLongRate:    growthSeries(start, 400, 4.0, 0),
		SymbolVolatility:  growthSeries(start, 400, 18.0, 0),
		SymbolDollarIndex: growthSeries(start, 400, 104.0, 0),
	}}
	svc := NewForecastService(mock, 3)

	future := []time.Time{history[len(history)-1].Date.AddDate(1, 0, 0)}
	result, err := svc.ForecastSymbol("VWCE.DE", future, true)
	if err != nil {
		t.Fatalf("ForecastSymbol failed: %v", err)
	}

	if len(mock.fetched) != 4 {
		t.Errorf("fetched symbols = %v, want asset plus three proxies", mock.fetched)
	}
	// Flat proxies score zero, so the adjusted rate matches the baseline.
	if result.MacroAdjustment != 0 {
		t.Errorf("MacroAdjustment = %v, want 0 for flat proxies", result.MacroAdjustment)
	}
	cfg := engine.DefaultMacroConfig()
	if result.AnnualRate < cfg.MinAnnualRate || result.AnnualRate > cfg.MaxAnnualRate {
		t.Errorf("AnnualRate = %v, outside guard band [%v, %v]", result.AnnualRate, cfg.MinAnnualRate, cfg.MaxAnnualRate)
	}
}

func TestForecastSymbolPropagatesMarketError(t *testing.T) {
	mock := &mockMarketService{series: map[string][]models.PricePoint{}}
	svc := NewForecastService(mock, 3)
	if _, err := svc.ForecastSymbol("NOPE", nil, false); err == nil {
		t.Error("ForecastSymbol should fail when the asset history cannot be fetched")
	}
}
