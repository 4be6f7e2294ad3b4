package testsupport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-filterpack/pkg/dynamicdata"
	"github.com/goliatone/go-filterpack/pkg/eventloop"
	"github.com/goliatone/go-filterpack/pkg/liststore"
	"github.com/goliatone/go-filterpack/pkg/querystring"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Location parses raw into an in-memory location or fails the test.
func Location(t *testing.T, raw string) *querystring.MemoryLocation {
	t.Helper()

	loc, err := querystring.NewMemoryLocation(raw)
	if err != nil {
		t.Fatalf("parse location %q: %v", raw, err)
	}
	return loc
}

// MustLoadStore loads a YAML list fixture into a memory store.
func MustLoadStore(t *testing.T, path string) *liststore.MemoryStore {
	t.Helper()

	store, err := liststore.LoadFixture(path)
	if err != nil {
		t.Fatalf("load list fixture: %v", err)
	}
	return store
}

// Harness bundles the page-scoped collaborators widget tests need. Change
// callbacks run inline; fetches and timers wait on Loop.
type Harness struct {
	Provider *dynamicdata.Provider
	Loop     *eventloop.Manual
	Location *querystring.MemoryLocation
	Logger   *slog.Logger
}

// NewHarness builds a harness whose location starts at rawURL.
func NewHarness(t *testing.T, rawURL string) *Harness {
	t.Helper()

	logger := Logger()
	return &Harness{
		Provider: dynamicdata.NewProvider(dynamicdata.WithLogger(logger)),
		Loop:     eventloop.NewManual(),
		Location: Location(t, rawURL),
		Logger:   logger,
	}
}

var recorderSeq atomic.Int64

// Recorder captures change notifications in arrival order as
// "source.property".
type Recorder struct {
	mu     sync.Mutex
	events []string
}

// Watch subscribes a recorder to props of sourceID.
func Watch(t *testing.T, provider *dynamicdata.Provider, sourceID string, props ...string) *Recorder {
	t.Helper()

	rec := &Recorder{}
	subscriber := fmt.Sprintf("testsupport.recorder.%d", recorderSeq.Add(1))
	for _, prop := range props {
		event := sourceID + "." + prop
		err := provider.Subscribe(sourceID, prop, subscriber, func() {
			rec.mu.Lock()
			rec.events = append(rec.events, event)
			rec.mu.Unlock()
		})
		if err != nil {
			t.Fatalf("watch %s: %v", event, err)
		}
	}
	return rec
}

// Events returns the notifications seen so far.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// Count returns how many notifications mention event.
func (r *Recorder) Count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

// Reset forgets recorded notifications.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// WriteGolden writes arbitrary data to a golden file when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureOutput runs render against a buffer and returns both the returned
// string and what was written.
func CaptureOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	return out, buf.String()
}
