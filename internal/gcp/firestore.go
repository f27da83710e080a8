package gcp

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrProfileNotFound means the user has no usable pages-per-session setting.
var ErrProfileNotFound = errors.New("reading profile not found")

// pagesPerSessionField is the user document field holding the reading pace.
const pagesPerSessionField = "pageCount"

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// ProfileStore reads reading-pace settings from user documents.
type ProfileStore struct {
	client     *firestore.Client
	collection string
}

func NewProfileStore(client *firestore.Client, collection string) *ProfileStore {
	return &ProfileStore{client: client, collection: collection}
}

// PagesPerSession returns the user's configured pace. ErrProfileNotFound is
// returned when the user document or its field is missing or not positive.
func (p *ProfileStore) PagesPerSession(ctx context.Context, userID string) (int, error) {
	snap, err := p.client.Collection(p.collection).Doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return 0, fmt.Errorf("user %s: %w", userID, ErrProfileNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read profile for user %s: %w", userID, err)
	}
	value, err := snap.DataAt(pagesPerSessionField)
	if err != nil {
		return 0, fmt.Errorf("user %s has no %s: %w", userID, pagesPerSessionField, ErrProfileNotFound)
	}
	pages, ok := PositiveInt(value)
	if !ok {
		return 0, fmt.Errorf("user %s has unusable %s %v: %w", userID, pagesPerSessionField, value, ErrProfileNotFound)
	}
	return pages, nil
}

// PositiveInt converts a Firestore numeric value to a positive int.
func PositiveInt(value interface{}) (int, bool) {
	var n int
	switch v := value.(type) {
	case int64:
		n = int(v)
	case float64:
		n = int(v)
	default:
		return 0, false
	}
	return n, n > 0
}
