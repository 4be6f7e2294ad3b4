package page

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-filterpack/pkg/liststore"
	"github.com/goliatone/go-filterpack/pkg/testsupport"
	"github.com/goliatone/go-filterpack/pkg/widgets"
)

func loadDemo(t *testing.T) (Config, *liststore.MemoryStore) {
	t.Helper()
	cfg, err := LoadFS(DemoFS(), DemoPage)
	if err != nil {
		t.Fatalf("load demo page: %v", err)
	}
	store, err := liststore.LoadFixtureFS(DemoFS(), DemoLists)
	if err != nil {
		t.Fatalf("load demo lists: %v", err)
	}
	return cfg, store
}

func startPage(t *testing.T, cfg Config, fns ...Option) *Page {
	t.Helper()
	fns = append([]Option{WithLogger(testsupport.Logger())}, fns...)
	p, err := New(cfg, fns...)
	if err != nil {
		t.Fatalf("new page: %v", err)
	}
	t.Cleanup(p.Dispose)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	settle(t, p)
	return p
}

func settle(t *testing.T, p *Page) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Settle(ctx); err != nil {
		t.Fatalf("settle: %v", err)
	}
}

func optionTexts(t *testing.T, snap Snapshot, id string) []string {
	t.Helper()
	view, ok := snap.Widget(id)
	if !ok {
		t.Fatalf("widget %s missing from snapshot", id)
	}
	var out []string
	for _, opt := range view.Options {
		out = append(out, opt.Text)
	}
	return out
}

func display(t *testing.T, snap Snapshot, id string) string {
	t.Helper()
	view, ok := snap.Widget(id)
	if !ok {
		t.Fatalf("widget %s missing from snapshot", id)
	}
	return view.Display
}

func TestLoadFSDemo(t *testing.T) {
	t.Parallel()

	cfg, _ := loadDemo(t)
	var ids []string
	for _, spec := range cfg.Widgets {
		ids = append(ids, spec.ID)
	}
	want := []string{"region", "office", "manager", "headcount", "remote", "owner", "search"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Fatalf("widget ids mismatch (-want +got):\n%s", diff)
	}
	office, ok := cfg.Widget("office")
	if !ok || office.Type != widgets.KindChoice {
		t.Fatalf("office entry missing or mistyped: %+v", office)
	}
	if _, ok := office.Options["id"]; ok {
		t.Fatalf("id must not leak into options")
	}
	if office.Options["listId"] != "offices" {
		t.Fatalf("options not captured: %#v", office.Options)
	}
	if cfg.CurrentUser != "ada@example.com" || cfg.Source != DemoPage {
		t.Fatalf("unexpected page settings %+v", cfg)
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		file string
		data string
		want string
	}{
		{name: "empty", file: "p.yaml", data: "  ", want: "is empty"},
		{name: "no widgets", file: "p.yaml", data: "title: x", want: "defines no widgets"},
		{name: "missing id", file: "p.yaml", data: "widgets:\n  - type: text\n", want: "widget 0: missing id"},
		{name: "duplicate id", file: "p.yaml", data: "widgets:\n  - id: a\n  - id: a\n", want: `duplicate widget id "a"`},
		{name: "bad json", file: "p.json", data: "widgets: []", want: "parse p.json"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(tc.file, []byte(tc.data))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestParseJSON(t *testing.T) {
	t.Parallel()

	cfg, err := Parse("p.json", []byte(`{"title":"J","widgets":[{"id":"n","type":"number","min":1}]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Title != "J" || len(cfg.Widgets) != 1 || cfg.Widgets[0].Options["min"] != 1.0 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestPageCascade(t *testing.T) {
	t.Parallel()

	cfg, store := loadDemo(t)
	p := startPage(t, cfg, WithStore(store))

	snap := p.Snapshot()
	if diff := cmp.Diff([]string{"Oslo", "Bergen"}, optionTexts(t, snap, "office")); diff != "" {
		t.Fatalf("north offices mismatch (-want +got):\n%s", diff)
	}
	if got := display(t, snap, "region"); got != "North" {
		t.Fatalf("expected region forced to North, got %q", got)
	}
	if got := display(t, snap, "manager"); got != "(no office selected)" {
		t.Fatalf("unexpected manager display %q", got)
	}
	if got := display(t, snap, "owner"); got != "Ada Lovelace" {
		t.Fatalf("unexpected owner display %q", got)
	}
	if !strings.Contains(snap.URL, "region=1") {
		t.Fatalf("expected region in URL, got %s", snap.URL)
	}

	ctx := context.Background()
	if err := p.Apply(ctx, []Assignment{{ID: "office", Value: "12"}}); err != nil {
		t.Fatalf("select office: %v", err)
	}
	snap = p.Snapshot()
	if got := display(t, snap, "manager"); got != "Bergen" {
		t.Fatalf("expected dynamic value to follow office, got %q", got)
	}

	if err := p.Apply(ctx, []Assignment{{ID: "region", Value: "2"}}); err != nil {
		t.Fatalf("select region: %v", err)
	}
	snap = p.Snapshot()
	if diff := cmp.Diff([]string{"Lisbon", "Porto"}, optionTexts(t, snap, "office")); diff != "" {
		t.Fatalf("south offices mismatch (-want +got):\n%s", diff)
	}
	if strings.Contains(snap.URL, "office=") {
		t.Fatalf("cleared office should leave the URL, got %s", snap.URL)
	}

	if err := p.Apply(ctx, []Assignment{{ID: "headcount", Value: "20"}}); err != nil {
		t.Fatalf("set headcount: %v", err)
	}
	if diff := cmp.Diff([]string{"Porto"}, optionTexts(t, p.Snapshot(), "office")); diff != "" {
		t.Fatalf("headcount filter mismatch (-want +got):\n%s", diff)
	}
}

func TestPageSeedsFromURL(t *testing.T) {
	t.Parallel()

	cfg, store := loadDemo(t)
	p := startPage(t, cfg, WithStore(store), WithURL("/offices?region=2&office=13&q=port"))

	snap := p.Snapshot()
	if got := display(t, snap, "office"); got != "Porto" {
		t.Fatalf("expected seeded office Porto, got %q", got)
	}
	if got := display(t, snap, "manager"); got != "Porto" {
		t.Fatalf("expected manager display to see the seeded office, got %q", got)
	}
	if got := display(t, snap, "search"); got != "port" {
		t.Fatalf("expected search seeded, got %q", got)
	}
}

func TestPageSetErrors(t *testing.T) {
	t.Parallel()

	cfg, store := loadDemo(t)
	p := startPage(t, cfg, WithStore(store))
	ctx := context.Background()

	if err := p.Set(ctx, "nope", "1"); !errors.Is(err, ErrUnknownWidget) {
		t.Fatalf("expected ErrUnknownWidget, got %v", err)
	}
	if err := p.Set(ctx, "manager", "x"); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
	if err := p.Set(ctx, "region", ""); !errors.Is(err, widgets.ErrNoneNotAllowed) {
		t.Fatalf("expected ErrNoneNotAllowed, got %v", err)
	}
	if err := p.Set(ctx, "headcount", "many"); err == nil {
		t.Fatalf("expected a parse error")
	}
	if _, err := ParseAssignments([]string{"novalue"}); err == nil {
		t.Fatalf("expected malformed assignment error")
	}
}

func TestPageSnapshotSources(t *testing.T) {
	t.Parallel()

	cfg, store := loadDemo(t)
	p := startPage(t, cfg, WithStore(store))

	var ids []string
	for _, src := range p.Snapshot().Sources {
		ids = append(ids, src.ID)
	}
	want := []string{"region", "office", "headcount", "remote", "owner", "search"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Fatalf("sources mismatch (-want +got):\n%s", diff)
	}

	info, err := p.ListInfo(context.Background(), "offices")
	if err != nil {
		t.Fatalf("list info: %v", err)
	}
	if info.Fields.Label("Region/lookupValue") != "Region (Title)" {
		t.Fatalf("unexpected label %q", info.Fields.Label("Region/lookupValue"))
	}
}

func TestPageDispose(t *testing.T) {
	t.Parallel()

	cfg, store := loadDemo(t)
	p := startPage(t, cfg, WithStore(store))
	p.Dispose()

	if got := len(p.Snapshot().Sources); got != 0 {
		t.Fatalf("expected every source withdrawn, got %d", got)
	}
	if err := p.Settle(context.Background()); !errors.Is(err, ErrDisposed) {
		t.Fatalf("expected ErrDisposed, got %v", err)
	}
}
