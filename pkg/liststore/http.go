package liststore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-filterpack/pkg/filter"
	"github.com/goliatone/go-filterpack/pkg/listinfo"
)

// HTTPOption configures an HTTPStore.
type HTTPOption func(*HTTPStore)

// WithHTTPClient swaps the client used for requests.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTPStore) {
		if client != nil {
			s.client = client
		}
	}
}

// HTTPStore reads lists and people from a remote store speaking the
// protocol served by NewHandler.
type HTTPStore struct {
	base   *url.URL
	client *http.Client
}

// NewHTTPStore targets the store mounted at baseURL.
func NewHTTPStore(baseURL string, opts ...HTTPOption) (*HTTPStore, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("liststore: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("liststore: base url %q must be absolute", baseURL)
	}
	s := &HTTPStore{
		base:   base,
		client: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s, nil
}

type rowsRequest struct {
	ViewXML    string   `json:"viewXml"`
	ViewFields []string `json:"viewFields"`
}

type rowsResponse struct {
	Row []filter.Record `json:"Row"`
}

// ListMetadata implements Store.
func (s *HTTPStore) ListMetadata(ctx context.Context, id string) (listinfo.ListMetadata, error) {
	var meta listinfo.ListMetadata
	err := s.do(ctx, http.MethodGet, s.endpoint(nil, "lists", id), nil, &meta)
	return meta, err
}

// Rows implements Store.
func (s *HTTPStore) Rows(ctx context.Context, q Query) ([]filter.Record, error) {
	body, err := json.Marshal(rowsRequest{ViewXML: q.ViewXML(), ViewFields: q.ViewFields})
	if err != nil {
		return nil, fmt.Errorf("liststore: encode rows request: %w", err)
	}
	var payload rowsResponse
	if err := s.do(ctx, http.MethodPost, s.endpoint(nil, "lists", q.ListID, "rows"), body, &payload); err != nil {
		return nil, err
	}
	if payload.Row == nil {
		return []filter.Record{}, nil
	}
	return payload.Row, nil
}

// Person implements Directory.
func (s *HTTPStore) Person(ctx context.Context, email string) (Person, error) {
	var person Person
	err := s.do(ctx, http.MethodGet, s.endpoint(url.Values{"email": {email}}, "people"), nil, &person)
	return person, err
}

func (s *HTTPStore) endpoint(query url.Values, segments ...string) string {
	u := *s.base
	for _, segment := range segments {
		u = *u.JoinPath(segment)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (s *HTTPStore) do(ctx context.Context, method, target string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("liststore: request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("liststore: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("liststore: decode: %w", err)
	}
	return nil
}

// StatusError is a non-2xx response from a remote store, or the status a
// handler reports for a store error.
type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("liststore: unexpected status %d", e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status.
func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

func statusError(code int) error {
	switch code {
	case http.StatusNotFound:
		return StatusError{Code: code, Err: fmt.Errorf("%w (status %d)", errNotFoundRemote, code)}
	default:
		return StatusError{Code: code}
	}
}

var errNotFoundRemote = errors.New("liststore: not found")

// IsNotFound reports whether err is a missing list or person, local or
// remote.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrListNotFound) || errors.Is(err, ErrPersonNotFound) || errors.Is(err, errNotFoundRemote)
}
