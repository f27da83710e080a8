package pdfdoc

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/Lllllllleong/pagedreading/internal/testutil"
)

func TestLoadRejectsMissingHeader(t *testing.T) {
	inputs := map[string][]byte{
		"empty":     nil,
		"short":     []byte("%PD"),
		"plaintext": []byte("Call me Ishmael. Some years ago..."),
	}
	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := LoadBytes("book", data)
			if !errors.Is(err, ErrInvalidFormat) {
				t.Errorf("expected ErrInvalidFormat, got %v", err)
			}
		})
	}
}

func TestPageCount(t *testing.T) {
	doc, err := LoadBytes("book", testutil.BuildPDF(7))
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	if doc.PageCount() != 7 {
		t.Errorf("expected 7 pages, got %d", doc.PageCount())
	}
	if doc.ID != "book" {
		t.Errorf("expected id book, got %q", doc.ID)
	}
}

func TestExtractRange(t *testing.T) {
	doc, err := LoadBytes("book", testutil.BuildPDF(10))
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}

	tests := []struct {
		start, end int
	}{
		{0, 1},
		{0, 4},
		{4, 10},
		{9, 10},
	}
	for _, tt := range tests {
		data, err := doc.ExtractRange(tt.start, tt.end)
		if err != nil {
			t.Fatalf("ExtractRange(%d, %d): %v", tt.start, tt.end, err)
		}
		n, err := api.PageCount(bytes.NewReader(data), nil)
		if err != nil {
			t.Fatalf("PageCount of extracted range: %v", err)
		}
		if n != tt.end-tt.start {
			t.Errorf("ExtractRange(%d, %d): expected %d pages, got %d", tt.start, tt.end, tt.end-tt.start, n)
		}
	}

	// The source document is unchanged by extraction.
	if doc.PageCount() != 10 {
		t.Errorf("source page count changed to %d", doc.PageCount())
	}
}

func TestExtractRangeOutOfBounds(t *testing.T) {
	doc, err := LoadBytes("book", testutil.BuildPDF(3))
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	for _, r := range [][2]int{{-1, 2}, {0, 4}, {2, 2}, {3, 1}} {
		if _, err := doc.ExtractRange(r[0], r[1]); err == nil {
			t.Errorf("ExtractRange(%d, %d): expected error", r[0], r[1])
		}
	}
}

func TestBytesAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "source.pdf")
	if err := os.WriteFile(path, testutil.BuildPDF(4), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := LoadFile("book", path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	data, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	again, err := LoadBytes("copy", data)
	if err != nil {
		t.Fatalf("reloading serialized document: %v", err)
	}
	if again.PageCount() != 4 {
		t.Errorf("expected 4 pages after round trip, got %d", again.PageCount())
	}
}
