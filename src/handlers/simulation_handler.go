package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/username/lifetimeline/backend/src/engine"
	"github.com/username/lifetimeline/backend/src/logger"
	"github.com/username/lifetimeline/backend/src/services"
	"github.com/username/lifetimeline/backend/src/utils"
)

type SimulationHandler struct {
	timelineService services.TimelineService
}

func NewSimulationHandler(timelineService services.TimelineService) *SimulationHandler {
	return &SimulationHandler{
		timelineService: timelineService,
	}
}

type simulationRequest struct {
	StartDate string `json:"start_date"` // YYYY-MM-DD, defaults to today
	engine.CompoundParams
}

type simulationResponse struct {
	StartDate string                 `json:"start_date"`
	Params    engine.CompoundParams  `json:"params"`
	Points    []engine.CompoundPoint `json:"points"`
}

// HandleSimulate runs the compounding engine over the posted parameters. The
// simulation is stateless and touches no dataset, so no token is required.
func (h *SimulationHandler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.L.Warn("Failed to decode simulation request", "error", err)
		utils.SendJSONError(w, "invalid JSON request body", http.StatusBadRequest)
		return
	}

	start := time.Now().UTC()
	if req.StartDate != "" {
		parsed, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			utils.SendJSONError(w, "invalid start_date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		start = parsed
	}

	h.runSimulation(w, start, req.CompoundParams)
}

// HandleDatasetSimulate runs the compounding engine starting from the
// dataset's first event date, so the simulated horizon lines up with the
// uploaded timeline.
func (h *SimulationHandler) HandleDatasetSimulate(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := requireDatasetAccess(w, r)
	if !ok {
		return
	}

	var params engine.CompoundParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		logger.L.Warn("Failed to decode dataset simulation request", "datasetID", datasetID, "error", err)
		utils.SendJSONError(w, "invalid JSON request body", http.StatusBadRequest)
		return
	}

	timeline, err := h.timelineService.GetTimeline(datasetID)
	if err != nil {
		if errors.Is(err, services.ErrDatasetNotFound) {
			utils.SendJSONError(w, fmt.Sprintf("dataset %s not found", datasetID), http.StatusNotFound)
			return
		}
		logger.L.Error("Error retrieving timeline for simulation", "datasetID", datasetID, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving timeline for dataset %s: %v", datasetID, err), http.StatusInternalServerError)
		return
	}
	if len(timeline.Events) == 0 {
		utils.SendJSONError(w, "dataset has no events to anchor the simulation start", http.StatusBadRequest)
		return
	}

	// Events are sorted ascending, so the first one anchors the horizon.
	h.runSimulation(w, timeline.Events[0].Date, params)
}

func (h *SimulationHandler) runSimulation(w http.ResponseWriter, start time.Time, params engine.CompoundParams) {
	points, err := engine.Simulate(start, params)
	if err != nil {
		var paramErr *engine.InvalidParameterError
		if errors.As(err, &paramErr) {
			utils.SendJSONError(w, paramErr.Error(), http.StatusBadRequest)
			return
		}
		logger.L.Error("Simulation failed", "error", err)
		utils.SendJSONError(w, fmt.Sprintf("simulation failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(simulationResponse{
		StartDate: start.Format("2006-01-02"),
		Params:    params,
		Points:    points,
	}); err != nil {
		logger.L.Error("Error encoding JSON response for simulation", "error", err)
	}
}
