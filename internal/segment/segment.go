package segment

import (
	"fmt"
)

// Document is the read side of a loaded PDF.
type Document interface {
	PageCount() int
	// ExtractRange serializes pages [start, end) as a standalone document.
	ExtractRange(start, end int) ([]byte, error)
	// Bytes serializes the whole document.
	Bytes() ([]byte, error)
}

// Segment is a contiguous page range [StartPage, EndPage) materialized as its
// own document. Index is 1-based within the batch.
type Segment struct {
	Index     int
	StartPage int
	EndPage   int
	Data      []byte
}

func (s Segment) Pages() int {
	return s.EndPage - s.StartPage
}

// ExtractionError reports the segment whose extraction aborted a batch.
type ExtractionError struct {
	Index     int
	StartPage int
	EndPage   int
	Err       error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("segment %d (pages %d-%d): extraction failed: %v", e.Index, e.StartPage, e.EndPage, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Ranges lays out the segments of a batch over a document of pageCount
// pages without extracting them. A document no longer than one segment is
// laid out whole as segment 1 regardless of the start page. A negative
// StartPage is the completion marker and yields no segments, as does a start
// page at or past the end of the document.
func Ranges(pageCount int, plan Plan) ([]Segment, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	// An empty document has no page to put in a segment; callers treat the
	// empty batch as finished.
	if plan.StartPage < 0 || pageCount == 0 {
		return nil, nil
	}
	if pageCount <= plan.SegmentPageCount {
		return []Segment{{Index: 1, StartPage: 0, EndPage: pageCount}}, nil
	}

	var segments []Segment
	for start := plan.StartPage; start < pageCount && len(segments) < plan.MaxSegments; start += plan.SegmentPageCount {
		end := min(start+plan.SegmentPageCount, pageCount)
		segments = append(segments, Segment{Index: len(segments) + 1, StartPage: start, EndPage: end})
	}
	return segments, nil
}

// Split cuts the segments laid out by Ranges from doc.
//
// Any extraction failure aborts the batch: nothing is returned for segments
// already cut.
func Split(doc Document, plan Plan) ([]Segment, error) {
	pageCount := doc.PageCount()
	segments, err := Ranges(pageCount, plan)
	if err != nil {
		return nil, err
	}
	for i, s := range segments {
		var data []byte
		if s.StartPage == 0 && s.EndPage == pageCount {
			data, err = doc.Bytes()
		} else {
			data, err = doc.ExtractRange(s.StartPage, s.EndPage)
		}
		if err != nil {
			return nil, &ExtractionError{Index: s.Index, StartPage: s.StartPage, EndPage: s.EndPage, Err: err}
		}
		segments[i].Data = data
	}
	return segments, nil
}

// ResumePoint returns the page the next batch starts at after a batch that
// began at startPage. The batch only advances when published reports true for
// every segment; otherwise next is startPage, so a retry lays out the same
// ranges under the same segment indices. complete is set when the advanced
// point reaches the end of the document.
func ResumePoint(startPage, pageCount int, segments []Segment, published func(Segment) bool) (next int, complete bool) {
	next = startPage
	for _, s := range segments {
		if !published(s) {
			return startPage, false
		}
		next = s.EndPage
	}
	return next, next >= pageCount
}
