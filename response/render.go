// Package response renders JSON API responses.
package response

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

const JSONContentType = "application/json"

var ErrNotFound = fmt.Errorf("requested resource does not exist")

func RenderFatal(w http.ResponseWriter, err error) {
	RenderError(w, err, http.StatusInternalServerError)
}

func RenderError(w http.ResponseWriter, err error, statusCode int) {
	w.Header().Set("Content-Type", JSONContentType)

	jsonError := fmt.Sprintf(`{"error": %q}`, err.Error())
	http.Error(w, jsonError, statusCode)
}

func RenderJSONResponse(w http.ResponseWriter, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		RenderFatal(w, fmt.Errorf("failed to marshal data: %w", err))
		return
	}

	w.Header().Set("Content-Type", JSONContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(jsonData)
}

// NewNotFoundHandler is the router fallback for unmatched paths.
func NewNotFoundHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Warn("Resource not found", "path", r.URL.Path)
		RenderError(w, ErrNotFound, http.StatusNotFound)
	}
}
