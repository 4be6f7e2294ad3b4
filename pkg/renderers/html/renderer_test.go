package html_test

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/goliatone/go-filterpack/pkg/liststore"
	"github.com/goliatone/go-filterpack/pkg/page"
	"github.com/goliatone/go-filterpack/pkg/render"
	"github.com/goliatone/go-filterpack/pkg/renderers/html"
	"github.com/goliatone/go-filterpack/pkg/testsupport"
	"github.com/goliatone/go-filterpack/pkg/widgets"
)

func demoSnapshot(t *testing.T) page.Snapshot {
	t.Helper()
	cfg, err := page.LoadFS(page.DemoFS(), page.DemoPage)
	if err != nil {
		t.Fatalf("load page: %v", err)
	}
	store, err := liststore.LoadFixtureFS(page.DemoFS(), page.DemoLists)
	if err != nil {
		t.Fatalf("load lists: %v", err)
	}
	p, err := page.New(cfg, page.WithStore(store), page.WithLogger(testsupport.Logger()))
	if err != nil {
		t.Fatalf("new page: %v", err)
	}
	t.Cleanup(p.Dispose)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := p.Settle(ctx); err != nil {
		t.Fatalf("settle: %v", err)
	}
	return p.Snapshot()
}

func renderString(t *testing.T, snap page.Snapshot, opts render.RenderOptions) string {
	t.Helper()
	r, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := r.Render(testsupport.Context(), snap, opts)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return string(out)
}

func assertContains(t *testing.T, out string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected output to contain %q\n%s", fragment, out)
		}
	}
}

func TestRenderDemoPage(t *testing.T) {
	t.Parallel()

	out := renderString(t, demoSnapshot(t), render.RenderOptions{})
	assertContains(t, out,
		"<!DOCTYPE html>",
		"<title>Office directory</title>",
		`<section id="widget-region" class="filterpack-widget filterpack-choice is-ready" data-state="ready">`,
		`<li role="option" data-key="1" class="is-selected" aria-selected="true">North</li>`,
		`<li role="option" data-key="3">West &amp; Coast</li>`,
		`<li role="option" data-key="10">Oslo</li>`,
		"<output>(no office selected)</output>",
		"<output>Ada Lovelace</output>",
		`<small class="filterpack-qs">?region=</small>`,
		`Canonical URL: <a href="/offices?`,
		"region=1",
	)
	if strings.Contains(out, "<b>") {
		t.Fatalf("option markup must not reach the page\n%s", out)
	}
}

func TestRenderFragmentWithBasePath(t *testing.T) {
	t.Parallel()

	snap := page.Snapshot{
		Title: "Offices",
		URL:   "/offices?office=12",
		Widgets: []widgets.View{
			{ID: "office", Kind: widgets.KindChoice, State: widgets.StateReady},
		},
	}
	out := renderString(t, snap, render.RenderOptions{Fragment: true, BasePath: "http://localhost:8080"})
	if strings.Contains(out, "<!DOCTYPE html>") || strings.Contains(out, "<body>") {
		t.Fatalf("fragment must not carry the document shell\n%s", out)
	}
	assertContains(t, out,
		`<main class="filterpack" data-url="http://localhost:8080/offices?office=12">`,
		`<li class="filterpack-empty">No options</li>`,
	)
}

func TestRenderStates(t *testing.T) {
	t.Parallel()

	snap := page.Snapshot{
		Widgets: []widgets.View{
			{ID: "a", Kind: widgets.KindChoice, State: widgets.StateError, Message: "Failed to load list choices: boom"},
			{ID: "b", Kind: widgets.KindDynamicValue, State: widgets.StateUnconfigured},
			{ID: "c", Kind: widgets.KindDynamicValue, State: widgets.StateLoading, Label: "Value"},
		},
	}
	out := renderString(t, snap, render.RenderOptions{Fragment: true})
	assertContains(t, out,
		`<p class="filterpack-state">Error</p>`,
		`<p class="filterpack-message" role="alert">Failed to load list choices: boom</p>`,
		`<p class="filterpack-state">Not configured</p>`,
		`<p class="filterpack-state">Loading</p>`,
		"<h2>Value</h2>",
	)
}

func TestCustomTemplates(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{
		"page.tmpl":   {Data: []byte(`{% for widget in widgets %}[{{ widget.id }}:{{ widget.state|statelabel }}]{% endfor %}`)},
		"widget.tmpl": {Data: []byte(``)},
	}
	r, err := html.New(html.WithTemplatesFS(files))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	snap := page.Snapshot{Widgets: []widgets.View{{ID: "x", State: widgets.StateReady}}}
	out, err := r.Render(context.Background(), snap, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(out) != "[x:Ready]" {
		t.Fatalf("unexpected output %q", out)
	}
	if r.Name() != "html" || !strings.HasPrefix(r.ContentType(), "text/html") {
		t.Fatalf("unexpected renderer identity %s %s", r.Name(), r.ContentType())
	}
}
