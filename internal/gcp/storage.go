package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/avast/retry-go/v4"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Lllllllleong/pagedreading/internal/blob"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GetEnvInt reads a positive integer environment variable.
func GetEnvInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, value)
	}
	return n, nil
}

const (
	DefaultUploadAttempts = 4
	uploadAttemptTimeout  = 50 * time.Second
)

// BucketStore implements blob.Store over a single GCS bucket.
type BucketStore struct {
	bucket   *storage.BucketHandle
	name     string
	attempts uint
}

// NewBucketStore wraps bucket. Uploads are tried up to uploadAttempts times.
func NewBucketStore(client *storage.Client, bucket string, uploadAttempts int) *BucketStore {
	if uploadAttempts <= 0 {
		uploadAttempts = DefaultUploadAttempts
	}
	return &BucketStore{bucket: client.Bucket(bucket), name: bucket, attempts: uint(uploadAttempts)}
}

func (b *BucketStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	r, err := b.bucket.Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("gs://%s/%s: %w", b.name, name, blob.ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", b.name, name, err)
	}
	return r, nil
}

// Upload writes data to name, replacing any existing object. Transient
// failures are retried with exponential backoff.
func (b *BucketStore) Upload(ctx context.Context, name, contentType string, data []byte) error {
	err := retryUpload(ctx, name, b.attempts, func(ctx context.Context) error {
		writeCtx, cancel := context.WithTimeout(ctx, uploadAttemptTimeout)
		defer cancel()

		w := b.bucket.Object(name).NewWriter(writeCtx)
		w.ContentType = contentType
		if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
			_ = w.Close()
			return fmt.Errorf("io.Copy to GCS failed: %w", err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("failed to close GCS writer (finalize upload): %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("upload of gs://%s/%s failed: %w", b.name, name, err)
	}
	return nil
}

// uploadRetryDelay is the first backoff interval between upload attempts.
var uploadRetryDelay = 1 * time.Second

// retryUpload runs write up to attempts times, retrying only transient errors.
func retryUpload(ctx context.Context, name string, attempts uint, write func(context.Context) error) error {
	return retry.Do(
		func() error { return write(ctx) },
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(uploadRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(IsTransient),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("Upload failed, will retry.", "gcsObject", name, "attempt", n+1, "maxAttempts", attempts, "error", err)
		}),
	)
}

func (b *BucketStore) ReadText(ctx context.Context, name string) (string, error) {
	r, err := b.Open(ctx, name)
	if err != nil {
		return "", err
	}
	defer r.Close()
	content, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read gs://%s/%s: %w", b.name, name, err)
	}
	return string(content), nil
}

// WriteText stores a small text object in a single non-resumable request.
// The object is durable once WriteText returns nil.
func (b *BucketStore) WriteText(ctx context.Context, name, text string) error {
	w := b.bucket.Object(name).NewWriter(ctx)
	w.ContentType = "text/plain"
	w.ChunkSize = 0
	if _, err := io.Copy(w, strings.NewReader(text)); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write gs://%s/%s: %w", b.name, name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize gs://%s/%s: %w", b.name, name, err)
	}
	return nil
}

func (b *BucketStore) List(ctx context.Context, prefix string) ([]string, error) {
	it := b.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list gs://%s/%s: %w", b.name, prefix, err)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

// IsTransient reports whether a storage error is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusRequestTimeout ||
			gerr.Code == http.StatusTooManyRequests ||
			gerr.Code >= http.StatusInternalServerError
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.Internal, codes.DeadlineExceeded:
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF)
}
