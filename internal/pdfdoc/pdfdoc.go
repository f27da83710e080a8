// Package pdfdoc loads PDF documents and extracts contiguous page ranges from
// them as standalone PDFs.
package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrInvalidFormat is returned when the input is not a readable PDF.
var ErrInvalidFormat = errors.New("invalid PDF document")

const magic = "%PDF-"

// Document is a loaded, immutable PDF.
type Document struct {
	ID  string
	ctx *model.Context
}

// Load reads a document from rs. The stream must begin with the PDF header.
func Load(id string, rs io.ReadSeeker) (*Document, error) {
	header := make([]byte, len(magic))
	if _, err := io.ReadFull(rs, header); err != nil || string(header) != magic {
		return nil, fmt.Errorf("%w: %s does not start with %s", ErrInvalidFormat, id, magic)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind %s: %w", id, err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pdfContext, err := api.ReadValidateAndOptimize(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFormat, id, err)
	}
	return &Document{ID: id, ctx: pdfContext}, nil
}

// LoadBytes is Load over an in-memory buffer.
func LoadBytes(id string, data []byte) (*Document, error) {
	return Load(id, bytes.NewReader(data))
}

// LoadFile is Load over a local file.
func LoadFile(id, path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}
	defer f.Close()
	return Load(id, f)
}

func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

// ExtractRange returns pages [start, end) (zero-based) serialized as a new PDF.
func (d *Document) ExtractRange(start, end int) ([]byte, error) {
	if start < 0 || end > d.PageCount() || start >= end {
		return nil, fmt.Errorf("page range [%d, %d) out of bounds for %d pages", start, end, d.PageCount())
	}
	pageNrs := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		pageNrs = append(pageNrs, i+1)
	}
	extracted, err := pdfcpu.ExtractPages(d.ctx, pageNrs, false)
	if err != nil {
		return nil, fmt.Errorf("failed to extract pages [%d, %d): %w", start, end, err)
	}
	var buf bytes.Buffer
	if err := api.WriteContext(extracted, &buf); err != nil {
		return nil, fmt.Errorf("failed to serialize pages [%d, %d): %w", start, end, err)
	}
	return buf.Bytes(), nil
}

// Bytes serializes the whole document.
func (d *Document) Bytes() ([]byte, error) {
	if d.PageCount() == 0 {
		return nil, fmt.Errorf("document %s has no pages", d.ID)
	}
	return d.ExtractRange(0, d.PageCount())
}
