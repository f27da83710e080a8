package resume

import (
	"context"
	"errors"
	"testing"

	"github.com/Lllllllleong/pagedreading/internal/blob"
)

type failingTexts struct {
	readErr  error
	writeErr error
}

func (f failingTexts) ReadText(ctx context.Context, name string) (string, error) {
	return "", f.readErr
}

func (f failingTexts) WriteText(ctx context.Context, name, text string) error {
	return f.writeErr
}

func TestMarkerPath(t *testing.T) {
	got := MarkerPath("u1", "Moby Dick")
	if got != "u1/pdfs/Moby Dick/lastPage.txt" {
		t.Errorf("unexpected marker path %q", got)
	}
}

func TestStartPageWithoutMarker(t *testing.T) {
	s := NewStore(blob.NewMemory())
	ctx := context.Background()

	if _, err := s.Get(ctx, "u1", "book"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	start, err := s.StartPage(ctx, "u1", "book")
	if err != nil {
		t.Fatalf("StartPage: %v", err)
	}
	if start != 0 {
		t.Errorf("expected start at 0, got %d", start)
	}
}

func TestSetThenGet(t *testing.T) {
	s := NewStore(blob.NewMemory())
	ctx := context.Background()

	if err := s.Set(ctx, "u1", "book", 250); err != nil {
		t.Fatalf("Set: %v", err)
	}
	m, err := s.Get(ctx, "u1", "book")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if m.LastPage != 250 || m.Complete() {
		t.Errorf("unexpected marker %+v", m)
	}

	if err := s.Set(ctx, "u1", "book", Done); err != nil {
		t.Fatalf("Set Done: %v", err)
	}
	start, err := s.StartPage(ctx, "u1", "book")
	if err != nil {
		t.Fatalf("StartPage: %v", err)
	}
	if start != Done {
		t.Errorf("expected Done, got %d", start)
	}

	// Other users keep their own cursor for the same document.
	other, err := s.StartPage(ctx, "u2", "book")
	if err != nil || other != 0 {
		t.Errorf("expected independent marker for u2, got %d (%v)", other, err)
	}
}

func TestGetToleratesWhitespace(t *testing.T) {
	bucket := blob.NewMemory()
	ctx := context.Background()
	if err := bucket.WriteText(ctx, MarkerPath("u1", "book"), " 120\n"); err != nil {
		t.Fatal(err)
	}
	m, err := NewStore(bucket).Get(ctx, "u1", "book")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if m.LastPage != 120 {
		t.Errorf("expected 120, got %d", m.LastPage)
	}
}

func TestGetRejectsCorruptMarker(t *testing.T) {
	bucket := blob.NewMemory()
	ctx := context.Background()
	for _, text := range []string{"", "abc", "-7"} {
		if err := bucket.WriteText(ctx, MarkerPath("u1", "book"), text); err != nil {
			t.Fatal(err)
		}
		if _, err := NewStore(bucket).StartPage(ctx, "u1", "book"); err == nil {
			t.Errorf("expected error for marker %q", text)
		}
	}
}

func TestSetRejectsInvalidValue(t *testing.T) {
	s := NewStore(blob.NewMemory())
	if err := s.Set(context.Background(), "u1", "book", -2); err == nil {
		t.Error("expected error for -2")
	}
}

func TestStoreErrorsPropagate(t *testing.T) {
	boom := errors.New("backend unavailable")
	s := NewStore(failingTexts{readErr: boom, writeErr: boom})
	ctx := context.Background()

	if _, err := s.StartPage(ctx, "u1", "book"); !errors.Is(err, boom) {
		t.Errorf("expected read error to propagate, got %v", err)
	}
	if err := s.Set(ctx, "u1", "book", 10); !errors.Is(err, boom) {
		t.Errorf("expected write error to propagate, got %v", err)
	}
}
