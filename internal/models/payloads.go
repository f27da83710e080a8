package models

// These structs define the JSON payloads exchanged with the function
// triggers and the downstream delivery workflow.

// UploadEvent is the data payload of a storage object-finalized event.
type UploadEvent struct {
	Bucket      string            `json:"bucket"`
	Name        string            `json:"name"`
	ContentType string            `json:"contentType"`
	Metadata    map[string]string `json:"metadata"`
}

// SegmentRequest is the input for the segment-request function.
type SegmentRequest struct {
	UserID   string `json:"userId"`
	FileName string `json:"fileName"`
}

// Response statuses.
const (
	ResultComplete  = "complete"
	ResultSegmented = "segmented"
	ResultDegraded  = "degraded"
	ResultNoop      = "noop"
)

// SegmentResult describes one segment of a batch.
type SegmentResult struct {
	Index     int    `json:"index" yaml:"index"`
	StartPage int    `json:"startPage" yaml:"startPage"`
	EndPage   int    `json:"endPage" yaml:"endPage"`
	Object    string `json:"object" yaml:"object"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// SegmentResponse is the output of one segmentation run.
type SegmentResponse struct {
	Status           string          `json:"status" yaml:"status"`
	RunID            string          `json:"runId" yaml:"runId"`
	UserID           string          `json:"userId" yaml:"userId"`
	DocumentID       string          `json:"documentId" yaml:"documentId"`
	PageCount        int             `json:"pageCount" yaml:"pageCount"`
	SegmentPageCount int             `json:"segmentPageCount" yaml:"segmentPageCount"`
	StartPage        int             `json:"startPage" yaml:"startPage"`
	LastPage         int             `json:"lastPage" yaml:"lastPage"`
	Segments         []SegmentResult `json:"segments" yaml:"segments"`
}

// SegmentNotification is the argument of the delivery workflow execution.
type SegmentNotification struct {
	UserID     string          `json:"userId"`
	DocumentID string          `json:"documentId"`
	RunID      string          `json:"runId"`
	LastPage   int             `json:"lastPage"`
	Segments   []SegmentResult `json:"segments"`
}
