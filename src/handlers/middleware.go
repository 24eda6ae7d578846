package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/username/lifetimeline/backend/src/logger"
	"github.com/username/lifetimeline/backend/src/utils"
)

type contextKey string

const datasetIDContextKey contextKey = "datasetID"

// GetDatasetIDFromContext returns the dataset ID the request's token was
// minted for, as placed there by DatasetAuthMiddleware.
func GetDatasetIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(datasetIDContextKey).(string)
	return id, ok
}

// DatasetAuthMiddleware validates the bearer dataset token and stores the
// token's dataset ID in the request context. Handlers still check that the
// path's dataset matches the token's, so one token cannot read another
// upload.
func (h *TimelineHandler) DatasetAuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			logger.L.Debug("DatasetAuthMiddleware: Authorization header missing", "path", r.URL.Path)
			utils.SendJSONError(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		tokenString := authHeader
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			logger.L.Debug("DatasetAuthMiddleware: Token string empty", "path", r.URL.Path)
			utils.SendJSONError(w, "Malformed token", http.StatusUnauthorized)
			return
		}

		datasetID, err := h.authService.ValidateDatasetToken(tokenString)
		if err != nil {
			logger.L.Warn("DatasetAuthMiddleware: Token validation failed", "path", r.URL.Path, "error", err)
			utils.SendJSONError(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), datasetIDContextKey, datasetID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// requireDatasetAccess resolves the dataset ID from the path and refuses the
// request when the token in the context was minted for a different dataset.
func requireDatasetAccess(w http.ResponseWriter, r *http.Request) (string, bool) {
	tokenDatasetID, ok := GetDatasetIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or dataset ID not found in context", http.StatusUnauthorized)
		return "", false
	}

	pathDatasetID := r.PathValue("id")
	if pathDatasetID == "" {
		utils.SendJSONError(w, "dataset ID missing from request path", http.StatusBadRequest)
		return "", false
	}
	if pathDatasetID != tokenDatasetID {
		logger.L.Warn("Dataset token does not match requested dataset", "tokenDataset", tokenDatasetID, "pathDataset", pathDatasetID)
		utils.SendJSONError(w, "token does not grant access to this dataset", http.StatusForbidden)
		return "", false
	}
	return pathDatasetID, true
}
