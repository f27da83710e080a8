// Package segment sizes reading segments and cuts documents into them.
package segment

import "fmt"

// DefaultMaxSegments is the number of segments produced per invocation.
const DefaultMaxSegments = 5

// Page-count tiers used when the reader's pace is unknown.
const (
	largeDocumentPages  = 250
	largeDocumentParts  = 6
	mediumDocumentPages = 100
	mediumDocumentParts = 4
)

// PageCount returns the number of pages per segment for a document of
// pageCount pages. A positive pagesPerSession is used as is; otherwise the
// size is derived from the document length. The result is always >= 1.
func PageCount(pageCount, pagesPerSession int) int {
	if pagesPerSession > 0 {
		return pagesPerSession
	}
	switch {
	case pageCount >= largeDocumentPages:
		return ceilDiv(pageCount, largeDocumentParts)
	case pageCount >= mediumDocumentPages:
		return ceilDiv(pageCount, mediumDocumentParts)
	case pageCount > 0:
		return pageCount
	default:
		return 1
	}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// Plan is the input to Split for one batch.
type Plan struct {
	StartPage        int
	SegmentPageCount int
	MaxSegments      int
}

// NewPlan sizes a batch starting at startPage. maxSegments <= 0 selects
// DefaultMaxSegments.
func NewPlan(startPage, pageCount, pagesPerSession, maxSegments int) Plan {
	if maxSegments <= 0 {
		maxSegments = DefaultMaxSegments
	}
	return Plan{
		StartPage:        startPage,
		SegmentPageCount: PageCount(pageCount, pagesPerSession),
		MaxSegments:      maxSegments,
	}
}

// BatchPages is the number of pages one full batch advances.
func (p Plan) BatchPages() int {
	return p.SegmentPageCount * p.MaxSegments
}

func (p Plan) Validate() error {
	if p.SegmentPageCount <= 0 {
		return fmt.Errorf("segment page count must be positive, got %d", p.SegmentPageCount)
	}
	if p.MaxSegments <= 0 {
		return fmt.Errorf("max segments must be positive, got %d", p.MaxSegments)
	}
	return nil
}
