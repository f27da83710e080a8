package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/Lllllllleong/pagedreading/internal/models"
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

	functions.CloudEvent("SegmentOnUpload", segmentOnUpload)
}

// main is required by the Go Functions Framework.
func main() {}

// segmentOnUpload runs one segmentation batch for a newly uploaded PDF.
func segmentOnUpload(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		segmenterInstance, initErr = services.NewSegmenter(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var upload models.UploadEvent
	if err := json.Unmarshal(e.Data(), &upload); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	resp, err := segmenterInstance.ProcessUpload(ctx, upload)
	if err != nil {
		// Already logged with context inside the segmenter.
		return err
	}
	// Fail degraded batches so the event is redelivered.
	if resp != nil && resp.Status == models.ResultDegraded {
		return fmt.Errorf("segmentation of %s/%s degraded: marker stopped at page %d", resp.UserID, resp.DocumentID, resp.LastPage)
	}
	return nil
}
