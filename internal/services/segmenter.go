package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/Lllllllleong/pagedreading/internal/blob"
	"github.com/Lllllllleong/pagedreading/internal/gcp"
	"github.com/Lllllllleong/pagedreading/internal/models"
	"github.com/Lllllllleong/pagedreading/internal/pdfdoc"
	"github.com/Lllllllleong/pagedreading/internal/publish"
	"github.com/Lllllllleong/pagedreading/internal/resume"
	"github.com/Lllllllleong/pagedreading/internal/segment"
)

// ErrInvalidRequest is returned for requests missing a user or file name.
var ErrInvalidRequest = errors.New("invalid segment request")

// ProfileSource looks up a user's pages-per-session setting.
type ProfileSource interface {
	PagesPerSession(ctx context.Context, userID string) (int, error)
}

// StatusRecorder mirrors run outcomes somewhere inspectable.
type StatusRecorder interface {
	Record(ctx context.Context, rec models.ReadingDocument) error
}

// Notifier tells downstream delivery about newly published segments.
type Notifier interface {
	NotifySegments(ctx context.Context, n models.SegmentNotification) error
}

// DocumentLoader opens a downloaded source file.
type DocumentLoader func(documentID, localPath string) (segment.Document, error)

// Dependencies are the collaborators of a SegmenterFunction. Profiles,
// Ledger, Notifier and LoadDocument are optional.
type Dependencies struct {
	OpenBucket   func(name string) (blob.Store, error)
	Artifacts    publish.Uploader
	Profiles     ProfileSource
	Ledger       StatusRecorder
	Notifier     Notifier
	LoadDocument DocumentLoader
	Config       SegmenterConfig
}

// SegmenterFunction cuts uploaded documents into reading segments, one batch
// per invocation, resuming where the previous invocation stopped.
type SegmenterFunction struct {
	openBucket   func(name string) (blob.Store, error)
	publisher    *publish.Publisher
	profiles     ProfileSource
	ledger       StatusRecorder
	notifier     Notifier
	loadDocument DocumentLoader
	config       SegmenterConfig
}

// Job identifies the source document of one run.
type Job struct {
	UserID     string
	DocumentID string
	Bucket     string
	Object     string
}

// SourceObject is where a user's copy of a document is uploaded.
func SourceObject(userID, documentID string) string {
	return path.Join(resume.DocumentDir(userID, documentID), documentID+".pdf")
}

func New(deps Dependencies) *SegmenterFunction {
	load := deps.LoadDocument
	if load == nil {
		load = func(documentID, localPath string) (segment.Document, error) {
			return pdfdoc.LoadFile(documentID, localPath)
		}
	}
	return &SegmenterFunction{
		openBucket:   deps.OpenBucket,
		publisher:    publish.New(deps.Artifacts, deps.Config.UploadConcurrency),
		profiles:     deps.Profiles,
		ledger:       deps.Ledger,
		notifier:     deps.Notifier,
		loadDocument: load,
		config:       deps.Config,
	}
}

// NewSegmenter wires a SegmenterFunction to Cloud Storage, Firestore and,
// when WORKFLOW_ID is set, Workflows.
func NewSegmenter(ctx context.Context) (*SegmenterFunction, error) {
	config, err := loadSegmenterConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}

	deps := Dependencies{
		OpenBucket: func(name string) (blob.Store, error) {
			return gcp.NewBucketStore(storageClient, name, config.UploadAttempts), nil
		},
		Artifacts: gcp.NewBucketStore(storageClient, config.SegmentsBucket, config.UploadAttempts),
		Profiles:  gcp.NewProfileStore(firestoreClient, config.ProfilesCollection),
		Ledger:    gcp.NewLedger(firestoreClient, config.LedgerCollection),
		Config:    *config,
	}
	if config.WorkflowID != "" {
		notifier, err := gcp.NewWorkflowNotifier(ctx, config.ProjectID, config.WorkflowLocation, config.WorkflowID)
		if err != nil {
			return nil, err
		}
		deps.Notifier = notifier
	}

	slog.Info("Segmenter logic initialized.", "segmentsBucket", config.SegmentsBucket,
		"maxSegments", config.MaxSegments, "workflowId", config.WorkflowID)
	return New(deps), nil
}

// ProcessUpload handles an object-finalized event. Only the canonical source
// object {userId}/pdfs/{documentId}/{documentId}.pdf is segmented; anything
// else is ignored and yields a nil response.
func (f *SegmenterFunction) ProcessUpload(ctx context.Context, e models.UploadEvent) (*models.SegmentResponse, error) {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)

	if strings.ToLower(path.Ext(e.Name)) != ".pdf" {
		logCtx.Info("Object is not a PDF. Ignoring.")
		return nil, nil
	}
	if e.ContentType != "" && !strings.HasPrefix(e.ContentType, "application/pdf") {
		logCtx.Info("Object content type is not PDF. Ignoring.", "contentType", e.ContentType)
		return nil, nil
	}
	userID := e.Metadata["userId"]
	if userID == "" {
		logCtx.Warn("No user ID specified with this file. Ignoring.")
		return nil, nil
	}

	documentID := strings.TrimSuffix(path.Base(e.Name), path.Ext(e.Name))
	if e.Name != SourceObject(userID, documentID) {
		logCtx.Info("Object is not a user's source document. Ignoring.", "userId", userID,
			"expectedObject", SourceObject(userID, documentID))
		return nil, nil
	}
	return f.Run(ctx, Job{UserID: userID, DocumentID: documentID, Bucket: e.Bucket, Object: e.Name})
}

// ProcessRequest handles an explicit request for the next batch of a document.
func (f *SegmenterFunction) ProcessRequest(ctx context.Context, req *models.SegmentRequest) (*models.SegmentResponse, error) {
	if req.UserID == "" || req.FileName == "" {
		return nil, fmt.Errorf("%w: userId and fileName are required", ErrInvalidRequest)
	}
	slog.Info("Received segment request.", "userId", req.UserID, "fileName", req.FileName)
	return f.Run(ctx, Job{
		UserID:     req.UserID,
		DocumentID: req.FileName,
		Bucket:     f.config.UploadsBucket,
		Object:     SourceObject(req.UserID, req.FileName),
	})
}

// Run produces the next batch of segments for job and advances its resume
// marker past the segments that were published.
func (f *SegmenterFunction) Run(ctx context.Context, job Job) (*models.SegmentResponse, error) {
	runID := uuid.NewString()
	logCtx := slog.With("userId", job.UserID, "documentId", job.DocumentID, "runId", runID)
	logCtx.Info("Starting segmentation run.", "gcsBucket", job.Bucket, "gcsObject", job.Object)

	rec := models.ReadingDocument{UserID: job.UserID, DocumentID: job.DocumentID, RunID: runID}
	resp := &models.SegmentResponse{RunID: runID, UserID: job.UserID, DocumentID: job.DocumentID}

	source, err := f.openBucket(job.Bucket)
	if err != nil {
		return nil, f.handleError(ctx, logCtx, rec, "failed to open source bucket", err)
	}
	markers := resume.NewStore(source)

	startPage, err := markers.StartPage(ctx, job.UserID, job.DocumentID)
	if err != nil {
		return nil, f.handleError(ctx, logCtx, rec, "failed to read resume marker", err)
	}
	if startPage == resume.Done {
		logCtx.Info("Document is already fully segmented. Nothing to do.")
		resp.Status = models.ResultNoop
		resp.StartPage, resp.LastPage = resume.Done, resume.Done
		return resp, nil
	}
	logCtx = logCtx.With("startPage", startPage)

	tempDir, err := os.MkdirTemp("", "segmenter-*")
	if err != nil {
		return nil, f.handleError(ctx, logCtx, rec, "failed to create temp dir", err)
	}
	defer os.RemoveAll(tempDir)

	sourcePdfPath := filepath.Join(tempDir, "source.pdf")
	if err := streamObject(ctx, source, job.Object, sourcePdfPath); err != nil {
		return nil, f.handleError(ctx, logCtx, rec, "failed to download source PDF", err)
	}
	fileHash, err := calculateFileHash(sourcePdfPath)
	if err != nil {
		return nil, f.handleError(ctx, logCtx, rec, "failed to calculate file hash", err)
	}
	rec.FileHash = fileHash

	doc, err := f.loadDocument(job.DocumentID, sourcePdfPath)
	if err != nil {
		return nil, f.handleError(ctx, logCtx, rec, "failed to load PDF", err)
	}
	pageCount := doc.PageCount()
	plan := segment.NewPlan(startPage, pageCount, f.pagesPerSession(ctx, logCtx, job.UserID), f.config.MaxSegments)
	logCtx = logCtx.With("pageCount", pageCount, "segmentPageCount", plan.SegmentPageCount, "batchPages", plan.BatchPages())

	rec.Status = models.StatusSegmenting
	rec.PageCount = pageCount
	rec.SegmentPageCount = plan.SegmentPageCount
	f.record(ctx, logCtx, rec)

	segments, err := segment.Split(doc, plan)
	if err != nil {
		var extractErr *segment.ExtractionError
		if errors.As(err, &extractErr) {
			logCtx = logCtx.With("segment", extractErr.Index, "rangeStart", extractErr.StartPage, "rangeEnd", extractErr.EndPage)
		}
		return nil, f.handleError(ctx, logCtx, rec, "failed to extract segments", err)
	}
	logCtx.Info("Document split into segments.", "segmentCount", len(segments))

	results := f.publisher.PublishAll(ctx, job.UserID, job.DocumentID, segments)
	if err := ctx.Err(); err != nil {
		logCtx.Error("Invocation ended before the resume marker was written. Abandoning batch.", "error", err)
		return nil, fmt.Errorf("batch abandoned: %w", err)
	}

	published := make(map[int]bool, len(results))
	for _, r := range results {
		published[r.Segment.Index] = r.OK()
	}
	next, complete := segment.ResumePoint(startPage, pageCount, segments, func(s segment.Segment) bool {
		return published[s.Index]
	})
	lastPage := next
	if complete {
		lastPage = resume.Done
	}
	if err := markers.Set(ctx, job.UserID, job.DocumentID, lastPage); err != nil {
		return nil, f.handleError(ctx, logCtx, rec, "failed to write resume marker", err)
	}
	logCtx.Info("Resume marker updated.", "lastPage", lastPage)

	failed := publish.Failed(results)
	switch {
	case complete:
		resp.Status, rec.Status = models.ResultComplete, models.StatusComplete
	case len(failed) > 0:
		resp.Status, rec.Status = models.ResultDegraded, models.StatusDegraded
		rec.ErrorDetails = fmt.Sprintf("%d of %d segment uploads failed; first: %v", len(failed), len(results), failed[0].Err)
	default:
		resp.Status, rec.Status = models.ResultSegmented, models.StatusSegmented
	}
	rec.StartPage, rec.LastPage, rec.MarkerWritten = startPage, lastPage, true
	f.record(ctx, logCtx, rec)

	resp.PageCount = pageCount
	resp.SegmentPageCount = plan.SegmentPageCount
	resp.StartPage = startPage
	resp.LastPage = lastPage
	resp.Segments = make([]models.SegmentResult, 0, len(results))
	for _, r := range results {
		sr := models.SegmentResult{Index: r.Segment.Index, StartPage: r.Segment.StartPage, EndPage: r.Segment.EndPage, Object: r.Object}
		if r.Err != nil {
			sr.Error = r.Err.Error()
		}
		resp.Segments = append(resp.Segments, sr)
	}

	f.notify(ctx, logCtx, resp)
	logCtx.Info("Segmentation run finished.", "status", resp.Status)
	return resp, nil
}

// pagesPerSession returns the user's pace, or 0 when it is unknown. Lookup
// failures fall back to the size-tiered policy.
func (f *SegmenterFunction) pagesPerSession(ctx context.Context, logCtx *slog.Logger, userID string) int {
	if f.profiles == nil {
		return 0
	}
	pages, err := f.profiles.PagesPerSession(ctx, userID)
	switch {
	case errors.Is(err, gcp.ErrProfileNotFound):
		logCtx.Info("No reading profile found. Using document-size tiers.")
		return 0
	case err != nil:
		logCtx.Warn("Reading profile lookup failed. Using document-size tiers.", "error", err)
		return 0
	}
	return pages
}

func (f *SegmenterFunction) notify(ctx context.Context, logCtx *slog.Logger, resp *models.SegmentResponse) {
	if f.notifier == nil {
		return
	}
	n := models.SegmentNotification{
		UserID:     resp.UserID,
		DocumentID: resp.DocumentID,
		RunID:      resp.RunID,
		LastPage:   resp.LastPage,
	}
	for _, s := range resp.Segments {
		if s.Error == "" {
			n.Segments = append(n.Segments, s)
		}
	}
	if len(n.Segments) == 0 {
		return
	}
	if err := f.notifier.NotifySegments(ctx, n); err != nil {
		logCtx.Error("Failed to notify delivery workflow. Segments are published and the marker is advanced.", "error", err)
	}
}

func (f *SegmenterFunction) record(ctx context.Context, logCtx *slog.Logger, rec models.ReadingDocument) {
	if f.ledger == nil {
		return
	}
	if err := f.ledger.Record(ctx, rec); err != nil {
		logCtx.Error("Failed to update ledger status.", "status", rec.Status, "error", err)
	}
}

func (f *SegmenterFunction) handleError(ctx context.Context, logCtx *slog.Logger, rec models.ReadingDocument, message string, originalErr error) error {
	logCtx.Error(message, "error", originalErr)
	if f.ledger != nil {
		rec.Status = models.StatusFailed
		rec.ErrorDetails = fmt.Sprintf("%s: %v", message, originalErr)
		rec.MarkerWritten = false
		if err := f.ledger.Record(ctx, rec); err != nil {
			logCtx.Error("CRITICAL: Failed to update ledger status to FAILED after a processing error.", "updateError", err)
		}
	}
	return fmt.Errorf("%s: %w", message, originalErr)
}

func streamObject(ctx context.Context, store blob.Store, object, destPath string) error {
	reader, err := store.Open(ctx, object)
	if err != nil {
		return err
	}
	defer reader.Close()
	localFile, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file at %s: %w", destPath, err)
	}
	defer localFile.Close()
	if _, err := io.Copy(localFile, reader); err != nil {
		return fmt.Errorf("failed to copy %s to local file: %w", object, err)
	}
	return nil
}

func calculateFileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
