// Package publish uploads segments under their deterministic object names.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/pagedreading/internal/segment"
)

const ContentType = "application/pdf"

// DefaultConcurrency bounds in-flight uploads per batch.
const DefaultConcurrency = 5

// Uploader writes an object, replacing any previous version.
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, data []byte) error
}

// Result is the outcome of publishing one segment.
type Result struct {
	Segment segment.Segment
	Object  string
	Err     error
}

func (r Result) OK() bool {
	return r.Err == nil
}

// SegmentsDir is the prefix under which a document's segments are stored.
func SegmentsDir(userID, documentID string) string {
	return path.Join(userID, "segments", documentID)
}

// ObjectName is the object a segment is stored at. Re-publishing the same
// index overwrites the earlier artifact.
func ObjectName(userID, documentID string, index int) string {
	return path.Join(SegmentsDir(userID, documentID), fmt.Sprintf("segment %d.pdf", index))
}

type Publisher struct {
	uploader    Uploader
	concurrency int
}

func New(uploader Uploader, concurrency int) *Publisher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Publisher{uploader: uploader, concurrency: concurrency}
}

// Publish uploads a single segment.
func (p *Publisher) Publish(ctx context.Context, userID, documentID string, seg segment.Segment) Result {
	object := ObjectName(userID, documentID, seg.Index)
	if err := p.uploader.Upload(ctx, object, ContentType, seg.Data); err != nil {
		return Result{Segment: seg, Object: object, Err: fmt.Errorf("segment %d (pages %d-%d): %w", seg.Index, seg.StartPage, seg.EndPage, err)}
	}
	return Result{Segment: seg, Object: object}
}

// PublishAll uploads every segment with bounded concurrency. A failed upload
// does not stop the others. Results are returned in segment order once every
// upload has resolved.
func (p *Publisher) PublishAll(ctx context.Context, userID, documentID string, segments []segment.Segment) []Result {
	logCtx := slog.With("userId", userID, "documentId", documentID)
	logCtx.Info("Starting concurrent upload of segments.", "segmentCount", len(segments), "concurrency", p.concurrency)

	results := make([]Result, len(segments))
	var eg errgroup.Group
	eg.SetLimit(p.concurrency)
	for i, seg := range segments {
		eg.Go(func() error {
			results[i] = p.Publish(ctx, userID, documentID, seg)
			if err := results[i].Err; err != nil {
				logCtx.Error("Segment upload failed.", "segment", seg.Index, "startPage", seg.StartPage,
					"endPage", seg.EndPage, "gcsObject", results[i].Object, "error", err)
			}
			return nil
		})
	}
	_ = eg.Wait()

	failed := len(Failed(results))
	logCtx.Info("Segment uploads resolved.", "published", len(results)-failed, "failed", failed)
	return results
}

// Failed returns the unsuccessful results.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}
