// Package blob defines the object-storage boundary used by the segmenter and
// Go CDK backed implementations of it for local runs and tests.
package blob

import (
	"context"
	"errors"
	"io"
)

// ErrNotExist is returned (wrapped) when the named object is absent.
var ErrNotExist = errors.New("blob: object does not exist")

// Store is a flat namespace of named objects. Names use forward slashes.
type Store interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Upload(ctx context.Context, name, contentType string, data []byte) error
	ReadText(ctx context.Context, name string) (string, error)
	WriteText(ctx context.Context, name, text string) error
	List(ctx context.Context, prefix string) ([]string, error)
}
