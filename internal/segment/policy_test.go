package segment

import "testing"

func TestPageCount(t *testing.T) {
	tests := []struct {
		name            string
		pageCount       int
		pagesPerSession int
		want            int
	}{
		{"profile wins over tiers", 300, 20, 20},
		{"profile larger than document", 40, 100, 100},
		{"large tier", 300, 0, 50},
		{"large tier rounds up", 251, 0, 42},
		{"large tier boundary", 250, 0, 42},
		{"medium tier", 100, 0, 25},
		{"medium tier rounds up", 249, 0, 63},
		{"small document is one segment", 99, 0, 99},
		{"negative pace is unknown", 120, -3, 30},
		{"empty document", 0, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PageCount(tt.pageCount, tt.pagesPerSession)
			if got != tt.want {
				t.Errorf("PageCount(%d, %d) = %d, want %d", tt.pageCount, tt.pagesPerSession, got, tt.want)
			}
			if got <= 0 {
				t.Errorf("PageCount returned non-positive %d", got)
			}
		})
	}
}

func TestNewPlanDefaults(t *testing.T) {
	p := NewPlan(0, 300, 0, 0)
	if p.MaxSegments != DefaultMaxSegments {
		t.Errorf("expected default max segments %d, got %d", DefaultMaxSegments, p.MaxSegments)
	}
	if p.SegmentPageCount != 50 {
		t.Errorf("expected 50 pages per segment, got %d", p.SegmentPageCount)
	}
	if p.BatchPages() != 250 {
		t.Errorf("expected batch of 250 pages, got %d", p.BatchPages())
	}
}

func TestPlanValidate(t *testing.T) {
	if err := (Plan{SegmentPageCount: 0, MaxSegments: 5}).Validate(); err == nil {
		t.Error("expected error for zero segment size")
	}
	if err := (Plan{SegmentPageCount: 10, MaxSegments: 0}).Validate(); err == nil {
		t.Error("expected error for zero max segments")
	}
	if err := (Plan{SegmentPageCount: 10, MaxSegments: 5}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
