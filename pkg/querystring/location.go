package querystring

import (
	"fmt"
	"net/url"
	"sync"
)

// Location is the page address a mirror reads and rewrites. ReplaceQuery
// swaps the query in place; it never adds a history entry.
type Location interface {
	Query() url.Values
	ReplaceQuery(q url.Values) error
}

// MemoryLocation is a process-local Location for one page session.
type MemoryLocation struct {
	mu       sync.Mutex
	path     string
	query    url.Values
	replaces int
}

// NewMemoryLocation parses raw (a path with optional query, or a full URL).
func NewMemoryLocation(raw string) (*MemoryLocation, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("querystring: parse location %q: %w", raw, err)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return &MemoryLocation{path: path, query: u.Query()}, nil
}

// Query returns a copy of the current query.
func (l *MemoryLocation) Query() url.Values {
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneValues(l.query)
}

// ReplaceQuery stores q as the current query.
func (l *MemoryLocation) ReplaceQuery(q url.Values) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.query = cloneValues(q)
	l.replaces++
	return nil
}

// Replaces counts ReplaceQuery calls.
func (l *MemoryLocation) Replaces() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.replaces
}

// String renders path and query. Keys are emitted in sorted order.
func (l *MemoryLocation) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.query) == 0 {
		return l.path
	}
	return l.path + "?" + l.query.Encode()
}

func cloneValues(in url.Values) url.Values {
	out := make(url.Values, len(in))
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}
