package services

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"time"

	json "github.com/goccy/go-json"
	"github.com/patrickmn/go-cache"
	"github.com/username/lifetimeline/backend/src/logger"
	"github.com/username/lifetimeline/backend/src/models"
	"golang.org/x/net/publicsuffix"
)

// Macro proxy symbols used by the adjusted growth estimator.
const (
	SymbolLongRate    = "^TNX"     // 10-year treasury yield
	SymbolVolatility  = "^VIX"     // CBOE volatility index
	SymbolDollarIndex = "DX-Y.NYB" // US dollar index
)

const yahooUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36"

// Structs for the Yahoo Finance chart API response.
type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// marketDataServiceImpl fetches daily history from the Yahoo chart endpoint.
// A cookie jar keeps Yahoo's session cookies across requests.
type marketDataServiceImpl struct {
	httpClient  http.Client
	seriesCache *cache.Cache
	cacheTTL    time.Duration
}

func NewMarketDataService(cacheTTL time.Duration) MarketDataService {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}

	return &marketDataServiceImpl{
		httpClient: http.Client{
			Jar:     jar,
			Timeout: 20 * time.Second,
		},
		seriesCache: cache.New(cacheTTL, 2*cacheTTL),
		cacheTTL:    cacheTTL,
	}
}

// FetchDailyHistory returns the ascending daily close series for a symbol over
// the trailing lookbackYears. Missing closes (market holidays, stale quotes)
// are forward filled from the previous session; leading gaps are dropped.
func (s *marketDataServiceImpl) FetchDailyHistory(symbol string, lookbackYears int) ([]models.PricePoint, error) {
	cacheKey := fmt.Sprintf("series_%s_%dy", symbol, lookbackYears)
	if cached, found := s.seriesCache.Get(cacheKey); found {
		logger.L.Debug("Cache hit for market series", "symbol", symbol)
		return cached.([]models.PricePoint), nil
	}

	chartURL := fmt.Sprintf("https://query1.finance.yahoo.com/v8/finance/chart/%s?range=%dy&interval=1d",
		url.PathEscape(symbol), lookbackYears)
	req, err := http.NewRequest("GET", chartURL, nil)
	if err != nil {
		return nil, err
	}
	// A valid User-Agent is crucial.
	req.Header.Set("User-Agent", yahooUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: chart request for %s: %v", ErrMarketData, symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: chart API returned status %d for %s", ErrMarketData, resp.StatusCode, symbol)
	}

	var chartData yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chartData); err != nil {
		return nil, fmt.Errorf("%w: failed to decode chart response for %s: %v", ErrMarketData, symbol, err)
	}

	if chartData.Chart.Error != nil {
		return nil, fmt.Errorf("%w: chart API error for %s: %s", ErrMarketData, symbol, chartData.Chart.Error.Description)
	}
	if len(chartData.Chart.Result) == 0 || len(chartData.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: chart API returned no result for %s", ErrMarketData, symbol)
	}

	result := chartData.Chart.Result[0]
	points := buildDailySeries(result.Timestamp, result.Indicators.Quote[0].Close)
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: chart API returned no usable closes for %s", ErrMarketData, symbol)
	}

	s.seriesCache.Set(cacheKey, points, s.cacheTTL)
	logger.L.Info("Fetched market series", "symbol", symbol, "points", len(points))
	return points, nil
}

// buildDailySeries pairs timestamps with closes, forward filling null closes
// and dropping anything before the first real observation. The output is
// sorted ascending and normalized to UTC midnight.
func buildDailySeries(timestamps []int64, closes []*float64) []models.PricePoint {
	n := len(timestamps)
	if len(closes) < n {
		n = len(closes)
	}

	points := make([]models.PricePoint, 0, n)
	var lastClose float64
	haveClose := false
	for i := 0; i < n; i++ {
		if closes[i] != nil {
			lastClose = *closes[i]
			haveClose = true
		}
		if !haveClose {
			continue
		}
		t := time.Unix(timestamps[i], 0).UTC()
		points = append(points, models.PricePoint{
			Date:  time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
			Price: lastClose,
		})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points
}
