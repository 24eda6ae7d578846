package services

import (
	"time"

	"github.com/username/lifetimeline/backend/src/engine"
	"github.com/username/lifetimeline/backend/src/logger"
)

type forecastServiceImpl struct {
	marketService MarketDataService
	lookbackYears int
	macroConfig   engine.MacroConfig
}

func NewForecastService(marketService MarketDataService, lookbackYears int) ForecastService {
	return &forecastServiceImpl{
		marketService: marketService,
		lookbackYears: lookbackYears,
		macroConfig:   engine.DefaultMacroConfig(),
	}
}

func (s *forecastServiceImpl) ForecastSymbol(symbol string, futureDates []time.Time, adjusted bool) (*ForecastResult, error) {
	history, err := s.marketService.FetchDailyHistory(symbol, s.lookbackYears)
	if err != nil {
		return nil, err
	}

	rate := engine.EstimateCAGR(history, s.lookbackYears)
	adjustment := 0.0
	if adjusted {
		macro := s.fetchMacroInputs()
		adjustment = engine.MacroAdjustment(macro, s.macroConfig)
		rate = engine.EstimateAdjustedCAGR(history, s.lookbackYears, macro, s.macroConfig)
	}

	return &ForecastResult{
		Symbol:          symbol,
		AnnualRate:      rate,
		MacroAdjustment: adjustment,
		LastObserved:    history[len(history)-1],
		Projected:       engine.ForecastAtRate(history, futureDates, rate),
	}, nil
}

// fetchMacroInputs gathers the three proxy series. A proxy that fails to
// fetch contributes an empty series, which scores zero in the estimator, so
// one broken upstream symbol degrades the adjustment instead of the request.
func (s *forecastServiceImpl) fetchMacroInputs() engine.MacroInputs {
	var macro engine.MacroInputs
	var err error

	if macro.LongRate, err = s.marketService.FetchDailyHistory(SymbolLongRate, s.lookbackYears); err != nil {
		logger.L.Warn("Macro proxy fetch failed", "symbol", SymbolLongRate, "error", err)
	}
	if macro.Volatility, err = s.marketService.FetchDailyHistory(SymbolVolatility, s.lookbackYears); err != nil {
		logger.L.Warn("Macro proxy fetch failed", "symbol", SymbolVolatility, "error", err)
	}
	if macro.Currency, err = s.marketService.FetchDailyHistory(SymbolDollarIndex, s.lookbackYears); err != nil {
		logger.L.Warn("Macro proxy fetch failed", "symbol", SymbolDollarIndex, "error", err)
	}
	return macro
}
