package publish

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Lllllllleong/pagedreading/internal/blob"
	"github.com/Lllllllleong/pagedreading/internal/segment"
)

type recordingUploader struct {
	mu       sync.Mutex
	objects  map[string][]byte
	types    map[string]string
	failOn   map[string]bool
	inFlight atomic.Int32
	peak     atomic.Int32
}

func newRecordingUploader() *recordingUploader {
	return &recordingUploader{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
		failOn:  make(map[string]bool),
	}
}

func (u *recordingUploader) Upload(ctx context.Context, name, contentType string, data []byte) error {
	n := u.inFlight.Add(1)
	defer u.inFlight.Add(-1)
	for {
		peak := u.peak.Load()
		if n <= peak || u.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.failOn[name] {
		return errors.New("503 backend error")
	}
	u.objects[name] = data
	u.types[name] = contentType
	return nil
}

func segments(n, size int) []segment.Segment {
	out := make([]segment.Segment, n)
	for i := range out {
		out[i] = segment.Segment{Index: i + 1, StartPage: i * size, EndPage: (i + 1) * size, Data: []byte{byte(i)}}
	}
	return out
}

func TestObjectName(t *testing.T) {
	got := ObjectName("u1", "Moby Dick", 3)
	if got != "u1/segments/Moby Dick/segment 3.pdf" {
		t.Errorf("unexpected object name %q", got)
	}
}

func TestPublishAllIsolatesFailures(t *testing.T) {
	up := newRecordingUploader()
	up.failOn[ObjectName("u1", "book", 2)] = true

	results := New(up, 2).PublishAll(context.Background(), "u1", "book", segments(4, 10))
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Segment.Index != i+1 {
			t.Errorf("result %d out of order: segment %d", i, r.Segment.Index)
		}
		if r.Object != ObjectName("u1", "book", i+1) {
			t.Errorf("result %d has object %q", i, r.Object)
		}
	}
	if results[1].OK() {
		t.Error("expected segment 2 to fail")
	}
	for _, i := range []int{0, 2, 3} {
		if !results[i].OK() {
			t.Errorf("segment %d should have been published: %v", i+1, results[i].Err)
		}
	}
	if len(up.objects) != 3 {
		t.Errorf("expected 3 stored objects, got %d", len(up.objects))
	}
	if got := Failed(results); len(got) != 1 || got[0].Segment.Index != 2 {
		t.Errorf("unexpected failed set %+v", got)
	}
	if up.types[ObjectName("u1", "book", 1)] != ContentType {
		t.Errorf("expected content type %s", ContentType)
	}
}

func TestPublishAllRespectsConcurrency(t *testing.T) {
	up := newRecordingUploader()
	New(up, 2).PublishAll(context.Background(), "u1", "book", segments(8, 5))
	if peak := up.peak.Load(); peak > 2 {
		t.Errorf("expected at most 2 concurrent uploads, saw %d", peak)
	}
}

func TestPublishAllEmpty(t *testing.T) {
	results := New(newRecordingUploader(), 0).PublishAll(context.Background(), "u1", "book", nil)
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestRepublishOverwrites(t *testing.T) {
	bucket := blob.NewMemory()
	p := New(bucket, 1)
	ctx := context.Background()

	first := segment.Segment{Index: 1, StartPage: 0, EndPage: 10, Data: []byte("first")}
	second := segment.Segment{Index: 1, StartPage: 0, EndPage: 10, Data: []byte("second")}
	if r := p.Publish(ctx, "u1", "book", first); !r.OK() {
		t.Fatal(r.Err)
	}
	if r := p.Publish(ctx, "u1", "book", second); !r.OK() {
		t.Fatal(r.Err)
	}

	names, err := bucket.List(ctx, SegmentsDir("u1", "book"))
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 {
		t.Fatalf("expected a single artifact, got %v", names)
	}
	text, err := bucket.ReadText(ctx, names[0])
	if err != nil {
		t.Fatal(err)
	}
	if text != "second" {
		t.Errorf("expected latest content, got %q", text)
	}
}
