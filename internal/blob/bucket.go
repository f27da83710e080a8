package blob

import (
	"context"
	"fmt"
	"io"
	"strings"

	cdkblob "gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"
)

// Bucket adapts a Go CDK bucket to Store.
type Bucket struct {
	bucket *cdkblob.Bucket
	name   string
}

// OpenDir returns a Bucket that stores objects as files below root. The
// directory is created if it does not exist. Writes land in a temporary file
// next to their target and are renamed into place.
func OpenDir(root string) (*Bucket, error) {
	b, err := fileblob.OpenBucket(root, &fileblob.Options{CreateDir: true, NoTempDir: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open directory bucket %s: %w", root, err)
	}
	return &Bucket{bucket: b, name: root}, nil
}

// NewMemory returns an empty in-memory Bucket.
func NewMemory() *Bucket {
	return &Bucket{bucket: memblob.OpenBucket(nil), name: "mem"}
}

func checkName(name string) error {
	if strings.Trim(name, "/") == "" {
		return fmt.Errorf("invalid object name %q", name)
	}
	return nil
}

func (b *Bucket) notExist(name string, err error) error {
	if gcerrors.Code(err) == gcerrors.NotFound {
		return fmt.Errorf("%s/%s: %w", b.name, name, ErrNotExist)
	}
	return nil
}

func (b *Bucket) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	r, err := b.bucket.NewReader(ctx, name, nil)
	if err != nil {
		if nf := b.notExist(name, err); nf != nil {
			return nil, nf
		}
		return nil, fmt.Errorf("failed to open %s/%s: %w", b.name, name, err)
	}
	return r, nil
}

// Upload replaces the object with data.
func (b *Bucket) Upload(ctx context.Context, name, contentType string, data []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := b.bucket.WriteAll(ctx, name, data, &cdkblob.WriterOptions{ContentType: contentType}); err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", b.name, name, err)
	}
	return nil
}

func (b *Bucket) ReadText(ctx context.Context, name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	data, err := b.bucket.ReadAll(ctx, name)
	if err != nil {
		if nf := b.notExist(name, err); nf != nil {
			return "", nf
		}
		return "", fmt.Errorf("failed to read %s/%s: %w", b.name, name, err)
	}
	return string(data), nil
}

func (b *Bucket) WriteText(ctx context.Context, name, text string) error {
	return b.Upload(ctx, name, "text/plain", []byte(text))
}

// List returns the names of all objects whose name starts with prefix, in
// lexicographic order.
func (b *Bucket) List(ctx context.Context, prefix string) ([]string, error) {
	it := b.bucket.List(&cdkblob.ListOptions{Prefix: prefix})
	var names []string
	for {
		obj, err := it.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list %s/%s: %w", b.name, prefix, err)
		}
		if !obj.IsDir {
			names = append(names, obj.Key)
		}
	}
	return names, nil
}
