package liststore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-filterpack/pkg/filter"
)

func loadStore(t *testing.T) *MemoryStore {
	t.Helper()
	store, err := LoadFixture("testdata/lists.yaml")
	if err != nil {
		t.Fatalf("LoadFixture returned error: %v", err)
	}
	return store
}

func TestQueryViewXML(t *testing.T) {
	t.Parallel()

	q := Query{ListID: "offices", ViewQuery: `<Where/>`, ViewFields: []string{"ID", "Title"}}
	want := `<View><Query><Where/></Query><ViewFields><FieldRef Name="ID"/><FieldRef Name="Title"/></ViewFields></View>`
	if got := q.ViewXML(); got != want {
		t.Fatalf("ViewXML mismatch:\nwant %s\ngot  %s", want, got)
	}
}

func TestMemoryStoreProjectsRows(t *testing.T) {
	t.Parallel()

	store := loadStore(t)
	rows, err := store.Rows(context.Background(), Query{ListID: "offices", ViewFields: []string{"ID", "Title", "Site"}})
	if err != nil {
		t.Fatalf("Rows returned error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	want := filter.Record{
		"ID":        10,
		"Title":     "Oslo",
		"Site":      "https://oslo.example.com",
		"Site.desc": "Oslo site",
	}
	if diff := cmp.Diff(want, rows[0]); diff != "" {
		t.Fatalf("row mismatch (-want +got):\n%s", diff)
	}

	region, err := filter.Extract("Region/lookupValue", mustRows(t, store, "offices", "Region")[1])
	if err != nil || region != "South" {
		t.Fatalf("expected lookup value South, got %v (%v)", region, err)
	}
}

func mustRows(t *testing.T, store Store, list string, fields ...string) []filter.Record {
	t.Helper()
	rows, err := store.Rows(context.Background(), Query{ListID: list, ViewFields: fields})
	if err != nil {
		t.Fatalf("Rows returned error: %v", err)
	}
	return rows
}

func TestMemoryStoreUnknownList(t *testing.T) {
	t.Parallel()

	store := loadStore(t)
	if _, err := store.ListMetadata(context.Background(), "nope"); !errors.Is(err, ErrListNotFound) {
		t.Fatalf("expected ErrListNotFound, got %v", err)
	}
	if _, err := store.Person(context.Background(), "nobody@example.com"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if diff := cmp.Diff([]string{"offices", "regions"}, store.ListIDs()); diff != "" {
		t.Fatalf("list ids mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFixtureRejectsDuplicates(t *testing.T) {
	t.Parallel()

	data := []byte("lists:\n  - id: a\n  - id: a\n")
	if _, err := ParseFixture("dup.yaml", data); err == nil {
		t.Fatalf("expected duplicate list error")
	}
}

func TestHTTPStoreRoundTrip(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(http.StripPrefix("/store", NewHandler(loadStore(t), WithHandlerLogger(logger))))
	defer srv.Close()

	remote, err := NewHTTPStore(srv.URL + "/store/")
	if err != nil {
		t.Fatalf("NewHTTPStore returned error: %v", err)
	}
	ctx := context.Background()

	meta, err := remote.ListMetadata(ctx, "offices")
	if err != nil {
		t.Fatalf("ListMetadata returned error: %v", err)
	}
	if meta.Title != "Offices" || len(meta.Views) != 1 || meta.Views[0].Query == "" {
		t.Fatalf("unexpected metadata %+v", meta)
	}

	rows, err := remote.Rows(ctx, Query{ListID: "regions", ViewFields: []string{"ID", "Title"}})
	if err != nil {
		t.Fatalf("Rows returned error: %v", err)
	}
	want := []filter.Record{
		{"ID": float64(1), "Title": "North"},
		{"ID": float64(2), "Title": "South"},
		{"ID": float64(3), "Title": "West &amp; <b>Coast</b>"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}

	person, err := remote.Person(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("Person returned error: %v", err)
	}
	if person.Title != "Ada Lovelace" || person.ID != "7" {
		t.Fatalf("unexpected person %+v", person)
	}

	if _, err := remote.ListMetadata(ctx, "nope"); !IsNotFound(err) {
		t.Fatalf("expected remote not found, got %v", err)
	}
}

func TestHandlerGuard(t *testing.T) {
	t.Parallel()

	handler := NewHandler(loadStore(t), WithGuard(func(*http.Request) error {
		return StatusError{Code: http.StatusUnauthorized}
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lists/offices", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestNewHTTPStoreRequiresAbsoluteURL(t *testing.T) {
	t.Parallel()

	if _, err := NewHTTPStore("/relative"); err == nil {
		t.Fatalf("expected error for relative base url")
	}
}
