package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/Lllllllleong/pagedreading/internal/models"
	"github.com/Lllllllleong/pagedreading/internal/pdfdoc"
	"github.com/Lllllllleong/pagedreading/internal/services"
)

var (
	segmenterInstance *services.SegmenterFunction
	once              sync.Once
	initErr           error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// "HandleSegmentRequest" is the entry point name we'll see in GCP.
	functions.HTTP("HandleSegmentRequest", handleSegmentRequest)
}

// main is required by the Go Functions Framework.
func main() {}

// handleSegmentRequest produces the next batch of segments for a document
// the caller names explicitly.
func handleSegmentRequest(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		segmenterInstance, initErr = services.NewSegmenter(context.Background())
	})
	if initErr != nil {
		slog.Error("CRITICAL: Segmenter initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var req models.SegmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	res, err := segmenterInstance.ProcessRequest(r.Context(), &req)
	switch {
	case errors.Is(err, services.ErrInvalidRequest):
		http.Error(w, "Bad Request: "+err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, pdfdoc.ErrInvalidFormat):
		http.Error(w, "Unprocessable Entity: file is not a valid PDF", http.StatusUnprocessableEntity)
		return
	case err != nil:
		http.Error(w, "Internal Server Error: processing failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
