package models

import "time"

// Segmentation statuses recorded in the run ledger.
const (
	StatusSegmenting = "SEGMENTING"
	StatusSegmented  = "SEGMENTED"
	StatusDegraded   = "DEGRADED"
	StatusComplete   = "COMPLETE"
	StatusFailed     = "FAILED"
)

// ReadingDocument is the Firestore ledger record for one user's copy of a
// document. It tracks the outcome of the latest segmentation run.
type ReadingDocument struct {
	UserID           string
	DocumentID       string
	FileHash         string
	Status           string
	ErrorDetails     string
	RunID            string
	PageCount        int
	SegmentPageCount int
	StartPage        int
	LastPage         int
	// MarkerWritten is set when StartPage and LastPage reflect a durable marker write.
	MarkerWritten bool
	UpdatedAt     time.Time
}

// Fields returns the record as a Firestore merge map. Empty strings and
// unknown counts are left out so an earlier value is not clobbered.
func (d ReadingDocument) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"userId":     d.UserID,
		"documentId": d.DocumentID,
		"status":     d.Status,
		"updatedAt":  d.UpdatedAt,
	}
	for key, value := range map[string]string{
		"fileHash":     d.FileHash,
		"errorDetails": d.ErrorDetails,
		"runId":        d.RunID,
	} {
		if value != "" {
			fields[key] = value
		}
	}
	if d.PageCount > 0 {
		fields["pageCount"] = d.PageCount
	}
	if d.SegmentPageCount > 0 {
		fields["segmentPageCount"] = d.SegmentPageCount
	}
	if d.MarkerWritten {
		fields["startPage"] = d.StartPage
		fields["lastPage"] = d.LastPage
	}
	return fields
}
