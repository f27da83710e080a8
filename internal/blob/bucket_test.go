package blob

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
)

// buckets returns one of each backend, freshly created.
func buckets(t *testing.T) map[string]*Bucket {
	t.Helper()
	dir, err := OpenDir(filepath.Join(t.TempDir(), "bucket"))
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	return map[string]*Bucket{"dir": dir, "memory": NewMemory()}
}

func TestBucketTextRoundTrip(t *testing.T) {
	ctx := context.Background()
	for kind, b := range buckets(t) {
		t.Run(kind, func(t *testing.T) {
			if _, err := b.ReadText(ctx, "u1/pdfs/book/lastPage.txt"); !errors.Is(err, ErrNotExist) {
				t.Fatalf("expected ErrNotExist, got %v", err)
			}
			if err := b.WriteText(ctx, "u1/pdfs/book/lastPage.txt", "40"); err != nil {
				t.Fatalf("WriteText: %v", err)
			}
			if err := b.WriteText(ctx, "u1/pdfs/book/lastPage.txt", "-1"); err != nil {
				t.Fatalf("WriteText overwrite: %v", err)
			}
			got, err := b.ReadText(ctx, "u1/pdfs/book/lastPage.txt")
			if err != nil {
				t.Fatalf("ReadText: %v", err)
			}
			if got != "-1" {
				t.Errorf("expected -1, got %q", got)
			}
		})
	}
}

func TestBucketUploadOverwritesAndLists(t *testing.T) {
	ctx := context.Background()
	for kind, b := range buckets(t) {
		t.Run(kind, func(t *testing.T) {
			for _, name := range []string{"u1/segments/book/segment 2.pdf", "u1/segments/book/segment 1.pdf", "u2/segments/other/segment 1.pdf"} {
				if err := b.Upload(ctx, name, "application/pdf", []byte("first")); err != nil {
					t.Fatalf("Upload %s: %v", name, err)
				}
			}
			if err := b.Upload(ctx, "u1/segments/book/segment 1.pdf", "application/pdf", []byte("second")); err != nil {
				t.Fatalf("Upload overwrite: %v", err)
			}

			names, err := b.List(ctx, "u1/segments/book/")
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			want := []string{"u1/segments/book/segment 1.pdf", "u1/segments/book/segment 2.pdf"}
			if len(names) != len(want) {
				t.Fatalf("expected %v, got %v", want, names)
			}
			for i := range want {
				if names[i] != want[i] {
					t.Errorf("name %d: expected %q, got %q", i, want[i], names[i])
				}
			}

			rc, err := b.Open(ctx, "u1/segments/book/segment 1.pdf")
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer rc.Close()
			data, _ := io.ReadAll(rc)
			if string(data) != "second" {
				t.Errorf("expected overwritten content, got %q", data)
			}
		})
	}
}

func TestBucketOpenMissing(t *testing.T) {
	for kind, b := range buckets(t) {
		t.Run(kind, func(t *testing.T) {
			if _, err := b.Open(context.Background(), "u1/pdfs/absent/absent.pdf"); !errors.Is(err, ErrNotExist) {
				t.Errorf("expected ErrNotExist, got %v", err)
			}
		})
	}
}

func TestBucketListEmpty(t *testing.T) {
	for kind, b := range buckets(t) {
		t.Run(kind, func(t *testing.T) {
			names, err := b.List(context.Background(), "u1/segments/")
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(names) != 0 {
				t.Errorf("expected no names, got %v", names)
			}
		})
	}
}

func TestBucketRejectsEmptyName(t *testing.T) {
	if err := NewMemory().WriteText(context.Background(), "/", "x"); err == nil {
		t.Error("expected error for empty object name")
	}
}
