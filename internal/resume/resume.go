// Package resume persists the per-user, per-document reading cursor.
//
// The cursor is a plain-text integer stored next to the source document:
// the next unprocessed page index, or Done once the document is finished.
package resume

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/Lllllllleong/pagedreading/internal/blob"
)

// Done marks a document with no pages left to segment.
const Done = -1

const markerFile = "lastPage.txt"

// ErrNotFound is returned by Get when no marker has been written yet.
var ErrNotFound = errors.New("resume marker not found")

// TextStore is the subset of blob.Store used for markers.
type TextStore interface {
	ReadText(ctx context.Context, name string) (string, error)
	WriteText(ctx context.Context, name, text string) error
}

// Marker is the persisted cursor for one (user, document) pair.
type Marker struct {
	UserID     string
	DocumentID string
	LastPage   int
}

func (m Marker) Complete() bool {
	return m.LastPage == Done
}

// Store reads and writes markers. It does no locking; callers are expected
// to run at most one invocation per pair at a time.
type Store struct {
	texts TextStore
}

func NewStore(texts TextStore) *Store {
	return &Store{texts: texts}
}

// DocumentDir is the directory holding a user's source document and marker.
func DocumentDir(userID, documentID string) string {
	return path.Join(userID, "pdfs", documentID)
}

// MarkerPath is the object name of the marker for a pair.
func MarkerPath(userID, documentID string) string {
	return path.Join(DocumentDir(userID, documentID), markerFile)
}

func (s *Store) Get(ctx context.Context, userID, documentID string) (Marker, error) {
	name := MarkerPath(userID, documentID)
	text, err := s.texts.ReadText(ctx, name)
	if errors.Is(err, blob.ErrNotExist) {
		return Marker{}, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return Marker{}, fmt.Errorf("failed to read resume marker %s: %w", name, err)
	}
	lastPage, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || lastPage < Done {
		return Marker{}, fmt.Errorf("resume marker %s is corrupt: %q", name, text)
	}
	return Marker{UserID: userID, DocumentID: documentID, LastPage: lastPage}, nil
}

// StartPage returns the page a new batch should begin at: 0 when no marker
// exists, Done when the document is finished.
func (s *Store) StartPage(ctx context.Context, userID, documentID string) (int, error) {
	m, err := s.Get(ctx, userID, documentID)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return m.LastPage, nil
}

// Set durably records lastPage. The write has completed when Set returns nil.
func (s *Store) Set(ctx context.Context, userID, documentID string, lastPage int) error {
	if lastPage < Done {
		return fmt.Errorf("invalid resume marker %d", lastPage)
	}
	name := MarkerPath(userID, documentID)
	if err := s.texts.WriteText(ctx, name, strconv.Itoa(lastPage)); err != nil {
		return fmt.Errorf("failed to write resume marker %s: %w", name, err)
	}
	return nil
}
