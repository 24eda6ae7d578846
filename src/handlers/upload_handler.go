package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/username/lifetimeline/backend/src/config"
	"github.com/username/lifetimeline/backend/src/logger"
	"github.com/username/lifetimeline/backend/src/security"
	"github.com/username/lifetimeline/backend/src/security/validation"
	"github.com/username/lifetimeline/backend/src/services"
	"github.com/username/lifetimeline/backend/src/utils"
)

type UploadHandler struct {
	timelineService services.TimelineService
	authService     *security.AuthService
}

func NewUploadHandler(timelineService services.TimelineService, authService *security.AuthService) *UploadHandler {
	return &UploadHandler{
		timelineService: timelineService,
		authService:     authService,
	}
}

// uploadResponse couples the parsed timeline with the dataset token the
// client must present on every later read of this dataset.
type uploadResponse struct {
	services.TimelineResult
	DatasetToken string `json:"dataset_token"`
}

func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		logger.L.Warn("Uploaded file header reports size too large", "fileSize", fileHeader.Size, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB (header check)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		logger.L.Warn("Invalid client-declared file type", "contentType", clientContentType, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	logger.L.Debug("Client-declared Content-Type validated", "contentType", clientContentType)

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file)
	if err != nil {
		logger.L.Warn("Server-side file content validation failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	logger.L.Info("File content validated by magic bytes", "filename", fileHeader.Filename, "clientType", clientContentType, "detectedType", detectedContentType)

	logger.L.Info("Processing upload request", "filename", fileHeader.Filename)
	result, err := h.timelineService.ProcessUpload(file)
	if err != nil {
		if errors.Is(err, services.ErrParsingFailed) {
			logger.L.Warn("Upload processing failed due to CSV parsing errors", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("Error parsing CSV file: %v", err), http.StatusBadRequest)
		} else {
			logger.L.Error("Internal error processing upload", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, "An internal error occurred while processing the file. Please try again later.", http.StatusInternalServerError)
		}
		return
	}

	token, err := h.authService.GenerateDatasetToken(result.Dataset.ID)
	if err != nil {
		logger.L.Error("Failed to generate dataset token", "datasetID", result.Dataset.ID, "error", err)
		utils.SendJSONError(w, "An internal error occurred while issuing the dataset token.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(uploadResponse{TimelineResult: *result, DatasetToken: token}); err != nil {
		logger.L.Error("Error encoding JSON response for upload result", "datasetID", result.Dataset.ID, "error", err)
	}
}
