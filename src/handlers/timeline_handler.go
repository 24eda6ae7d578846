package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/username/lifetimeline/backend/src/logger"
	"github.com/username/lifetimeline/backend/src/models"
	"github.com/username/lifetimeline/backend/src/security"
	"github.com/username/lifetimeline/backend/src/services"
	"github.com/username/lifetimeline/backend/src/utils"
)

type TimelineHandler struct {
	timelineService services.TimelineService
	authService     *security.AuthService
}

func NewTimelineHandler(timelineService services.TimelineService, authService *security.AuthService) *TimelineHandler {
	return &TimelineHandler{
		timelineService: timelineService,
		authService:     authService,
	}
}

func (h *TimelineHandler) HandleGetTimeline(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := requireDatasetAccess(w, r)
	if !ok {
		return
	}
	logger.L.Debug("Handling GetTimeline request with ETag support", "datasetID", datasetID)

	timeline, err := h.timelineService.GetTimeline(datasetID)
	if err != nil {
		if errors.Is(err, services.ErrDatasetNotFound) {
			utils.SendJSONError(w, fmt.Sprintf("dataset %s not found", datasetID), http.StatusNotFound)
			return
		}
		logger.L.Error("Error retrieving timeline from service", "datasetID", datasetID, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving timeline for dataset %s: %v", datasetID, err), http.StatusInternalServerError)
		return
	}

	// Avoid null JSON fields for empty datasets.
	if timeline.Events == nil {
		timeline.Events = []models.Event{}
	}
	if timeline.People == nil {
		timeline.People = make(map[string]models.PersonInfo)
	}

	currentETag, etagErr := utils.GenerateETag(timeline)
	if etagErr != nil {
		logger.L.Error("Failed to generate ETag for timeline", "datasetID", datasetID, "error", etagErr)
	}

	w.Header().Set("Cache-Control", "no-cache, private")

	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		clientETag := r.Header.Get("If-None-Match")
		for _, cETag := range strings.Split(clientETag, ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				logger.L.Info("ETag match for timeline", "datasetID", datasetID, "etag", currentETag)
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
		if clientETag != "" {
			logger.L.Debug("ETag mismatch", "datasetID", datasetID, "clientETags", clientETag, "serverETag", quotedETag)
		}
	} else {
		logger.L.Warn("Proceeding without ETag check due to ETag generation error or empty ETag", "datasetID", datasetID)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(timeline); err != nil {
		logger.L.Error("Error generating JSON response for timeline", "datasetID", datasetID, "error", err)
	}
}

func (h *TimelineHandler) HandleGetExpectancy(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := requireDatasetAccess(w, r)
	if !ok {
		return
	}

	asOf := time.Now().UTC()
	if asOfParam := r.URL.Query().Get("as_of"); asOfParam != "" {
		parsed, err := time.Parse("2006-01-02", asOfParam)
		if err != nil {
			utils.SendJSONError(w, "invalid as_of date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		asOf = parsed
	}

	entries, err := h.timelineService.GetExpectancy(datasetID, asOf)
	if err != nil {
		if errors.Is(err, services.ErrDatasetNotFound) {
			utils.SendJSONError(w, fmt.Sprintf("dataset %s not found", datasetID), http.StatusNotFound)
			return
		}
		logger.L.Error("Error computing expectancy", "datasetID", datasetID, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error computing expectancy for dataset %s: %v", datasetID, err), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []services.ExpectancyEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"dataset_id": datasetID,
		"as_of":      asOf.Format("2006-01-02"),
		"people":     entries,
	}); err != nil {
		logger.L.Error("Error generating JSON response for expectancy", "datasetID", datasetID, "error", err)
	}
}
