package services

import (
	"fmt"

	"github.com/Lllllllleong/pagedreading/internal/gcp"
	"github.com/Lllllllleong/pagedreading/internal/publish"
	"github.com/Lllllllleong/pagedreading/internal/segment"
)

// SegmenterConfig holds all configuration for the segmenter service.
type SegmenterConfig struct {
	ProjectID          string
	UploadsBucket      string
	SegmentsBucket     string
	ProfilesCollection string
	LedgerCollection   string
	WorkflowID         string
	WorkflowLocation   string
	MaxSegments        int
	UploadConcurrency  int
	UploadAttempts     int
}

// loadSegmenterConfig loads and validates all necessary environment variables for this service.
func loadSegmenterConfig() (*SegmenterConfig, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	uploadsBucket := gcp.GetEnv("UPLOADS_BUCKET", "")
	if uploadsBucket == "" {
		return nil, fmt.Errorf("UPLOADS_BUCKET environment variable must be set")
	}

	config := &SegmenterConfig{
		ProjectID:          projectID,
		UploadsBucket:      uploadsBucket,
		SegmentsBucket:     gcp.GetEnv("SEGMENTS_BUCKET", uploadsBucket),
		ProfilesCollection: gcp.GetEnv("PROFILES_COLLECTION", "Users"),
		LedgerCollection:   gcp.GetEnv("LEDGER_COLLECTION", "segmentations"),
		WorkflowID:         gcp.GetEnv("WORKFLOW_ID", ""),
		WorkflowLocation:   gcp.GetEnv("WORKFLOW_LOCATION", "europe-west1"),
	}

	var err error
	if config.MaxSegments, err = gcp.GetEnvInt("MAX_SEGMENTS", segment.DefaultMaxSegments); err != nil {
		return nil, err
	}
	if config.UploadConcurrency, err = gcp.GetEnvInt("UPLOAD_CONCURRENCY", publish.DefaultConcurrency); err != nil {
		return nil, err
	}
	if config.UploadAttempts, err = gcp.GetEnvInt("UPLOAD_ATTEMPTS", gcp.DefaultUploadAttempts); err != nil {
		return nil, err
	}
	return config, nil
}
