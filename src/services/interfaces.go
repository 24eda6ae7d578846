package services

import (
	"errors"
	"io"
	"time"

	"github.com/username/lifetimeline/backend/src/models"
)

var (
	// ErrParsingFailed wraps any failure to extract usable rows from an upload.
	ErrParsingFailed = errors.New("parsing failed")
	// ErrDatasetNotFound is returned when a dataset ID resolves to nothing.
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrMarketData wraps upstream market data fetch failures.
	ErrMarketData = errors.New("market data fetch failed")
)

// TimelineResult holds everything extracted from one uploaded survey export.
type TimelineResult struct {
	Dataset models.Dataset               `json:"dataset"`
	Events  []models.Event               `json:"events"`
	People  map[string]models.PersonInfo `json:"people"`
}

// ExpectancyEntry is one person's actuarial outlook, derived from the
// mortality tables and the person's declared sex and birth date.
type ExpectancyEntry struct {
	PersonName     string `json:"person_name"`
	Age            int    `json:"age"`
	RemainingYears int    `json:"remaining_years"`
	HorizonYear    int    `json:"horizon_year"`
	Known          bool   `json:"known"` // false when sex or birth date is missing, or age is off-table
}

// TimelineService is the core upload-and-read surface of the application.
type TimelineService interface {
	ProcessUpload(fileReader io.Reader) (*TimelineResult, error)
	GetTimeline(datasetID string) (*TimelineResult, error)
	GetExpectancy(datasetID string, asOf time.Time) ([]ExpectancyEntry, error)
}

// MarketDataService fetches daily closing-price history for one symbol.
type MarketDataService interface {
	FetchDailyHistory(symbol string, lookbackYears int) ([]models.PricePoint, error)
}

// ForecastResult is the response shape of a projection request.
type ForecastResult struct {
	Symbol          string              `json:"symbol"`
	AnnualRate      float64             `json:"annual_rate"`
	MacroAdjustment float64             `json:"macro_adjustment"`
	LastObserved    models.PricePoint   `json:"last_observed"`
	Projected       []models.PricePoint `json:"projected"`
}

// ForecastService estimates a growth rate from trailing history and projects
// it over the requested future dates, optionally nudged by macro proxies.
type ForecastService interface {
	ForecastSymbol(symbol string, futureDates []time.Time, adjusted bool) (*ForecastResult, error)
}
