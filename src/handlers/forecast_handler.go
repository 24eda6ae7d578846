package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/username/lifetimeline/backend/src/logger"
	"github.com/username/lifetimeline/backend/src/models"
	"github.com/username/lifetimeline/backend/src/services"
	"github.com/username/lifetimeline/backend/src/utils"
)

const (
	defaultForecastYears = 5
	maxForecastYears     = 50
)

type ForecastHandler struct {
	forecastService services.ForecastService
	timelineService services.TimelineService
}

func NewForecastHandler(forecastService services.ForecastService, timelineService services.TimelineService) *ForecastHandler {
	return &ForecastHandler{
		forecastService: forecastService,
		timelineService: timelineService,
	}
}

// HandleGetForecast projects a symbol forward at its trailing growth rate.
// Query parameters: symbol (required), years (default 5), adjusted
// (true enables the macro-proxy nudge).
func (h *ForecastHandler) HandleGetForecast(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		utils.SendJSONError(w, "symbol query parameter is required", http.StatusBadRequest)
		return
	}

	years := defaultForecastYears
	if yearsParam := r.URL.Query().Get("years"); yearsParam != "" {
		parsed, err := strconv.Atoi(yearsParam)
		if err != nil || parsed <= 0 || parsed > maxForecastYears {
			utils.SendJSONError(w, fmt.Sprintf("years must be an integer between 1 and %d", maxForecastYears), http.StatusBadRequest)
			return
		}
		years = parsed
	}

	adjusted := r.URL.Query().Get("adjusted") == "true"

	result, err := h.forecastService.ForecastSymbol(symbol, monthlyDates(time.Now().UTC(), years), adjusted)
	if err != nil {
		if errors.Is(err, services.ErrMarketData) {
			logger.L.Warn("Forecast failed on market data", "symbol", symbol, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("could not fetch market data for %s", symbol), http.StatusBadGateway)
			return
		}
		logger.L.Error("Forecast failed", "symbol", symbol, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("forecast failed for %s: %v", symbol, err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.L.Error("Error encoding JSON response for forecast", "symbol", symbol, "error", err)
	}
}

// HandleGetDatasetForecast projects a symbol over the dataset's future event
// dates, so each life event gets a projected price overlay. Events in the
// past contribute nothing.
func (h *ForecastHandler) HandleGetDatasetForecast(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := requireDatasetAccess(w, r)
	if !ok {
		return
	}

	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		utils.SendJSONError(w, "symbol query parameter is required", http.StatusBadRequest)
		return
	}
	adjusted := r.URL.Query().Get("adjusted") == "true"

	timeline, err := h.timelineService.GetTimeline(datasetID)
	if err != nil {
		if errors.Is(err, services.ErrDatasetNotFound) {
			utils.SendJSONError(w, fmt.Sprintf("dataset %s not found", datasetID), http.StatusNotFound)
			return
		}
		logger.L.Error("Error retrieving timeline for forecast", "datasetID", datasetID, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving timeline for dataset %s: %v", datasetID, err), http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	var futureDates []time.Time
	seen := make(map[time.Time]bool)
	for _, ev := range timeline.Events {
		if ev.Date.After(now) && !seen[ev.Date] {
			seen[ev.Date] = true
			futureDates = append(futureDates, ev.Date)
		}
	}

	result, err := h.forecastService.ForecastSymbol(symbol, futureDates, adjusted)
	if err != nil {
		if errors.Is(err, services.ErrMarketData) {
			logger.L.Warn("Dataset forecast failed on market data", "datasetID", datasetID, "symbol", symbol, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("could not fetch market data for %s", symbol), http.StatusBadGateway)
			return
		}
		logger.L.Error("Dataset forecast failed", "datasetID", datasetID, "symbol", symbol, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("forecast failed for %s: %v", symbol, err), http.StatusInternalServerError)
		return
	}
	if result.Projected == nil {
		result.Projected = []models.PricePoint{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.L.Error("Error encoding JSON response for dataset forecast", "datasetID", datasetID, "symbol", symbol, "error", err)
	}
}

// monthlyDates builds one projection date per month over the horizon,
// starting one month out.
func monthlyDates(from time.Time, years int) []time.Time {
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, 0, years*12)
	for m := 1; m <= years*12; m++ {
		dates = append(dates, from.AddDate(0, m, 0))
	}
	return dates
}
