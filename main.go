package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/lifetimeline/backend/src/config"
	"github.com/username/lifetimeline/backend/src/database"
	"github.com/username/lifetimeline/backend/src/handlers"
	"github.com/username/lifetimeline/backend/src/logger"
	"github.com/username/lifetimeline/backend/src/parsers"
	"github.com/username/lifetimeline/backend/src/security"
	"github.com/username/lifetimeline/backend/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Lifetimeline backend server starting...")

	logger.L.Info("Loading mortality tables...",
		"malePath", config.Cfg.MortalityMalePath, "femalePath", config.Cfg.MortalityFemalePath)
	mortalityMale, mortalityFemale, err := parsers.LoadMortalityTables(config.Cfg.MortalityMalePath, config.Cfg.MortalityFemalePath)
	if err != nil {
		logger.L.Error("Failed to load mortality tables", "error", err)
	}
	logger.L.Info("Mortality tables loaded", "maleAges", len(mortalityMale), "femaleAges", len(mortalityFemale))

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing report cache...")
	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)
	logger.L.Info("Report cache initialized.")

	logger.L.Info("Initializing services and handlers...")
	authService := security.NewAuthService(config.Cfg.DatasetTokenSecret)
	timelineService := services.NewTimelineService(mortalityMale, mortalityFemale, reportCache)
	marketService := services.NewMarketDataService(config.Cfg.MarketDataCacheTTL)
	forecastService := services.NewForecastService(marketService, config.Cfg.ForecastLookbackYears)

	uploadHandler := handlers.NewUploadHandler(timelineService, authService)
	timelineHandler := handlers.NewTimelineHandler(timelineService, authService)
	simulationHandler := handlers.NewSimulationHandler(timelineService)
	forecastHandler := handlers.NewForecastHandler(forecastService, timelineService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("POST /api/upload", uploadHandler.HandleUpload)
	apiRouter.HandleFunc("GET /api/datasets/{id}/timeline", timelineHandler.DatasetAuthMiddleware(timelineHandler.HandleGetTimeline))
	apiRouter.HandleFunc("GET /api/datasets/{id}/expectancy", timelineHandler.DatasetAuthMiddleware(timelineHandler.HandleGetExpectancy))
	apiRouter.HandleFunc("POST /api/datasets/{id}/simulate", timelineHandler.DatasetAuthMiddleware(simulationHandler.HandleDatasetSimulate))
	apiRouter.HandleFunc("GET /api/datasets/{id}/forecast", timelineHandler.DatasetAuthMiddleware(forecastHandler.HandleGetDatasetForecast))
	apiRouter.HandleFunc("POST /api/simulate", simulationHandler.HandleSimulate)
	apiRouter.HandleFunc("GET /api/forecast", forecastHandler.HandleGetForecast)

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "Lifetimeline backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
