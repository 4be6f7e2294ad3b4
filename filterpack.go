// Package filterpack is the quick-start facade over the page pipeline:
// load a page of filter widgets, settle its cascade and render it.
package filterpack

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-filterpack/pkg/orchestrator"
	"github.com/goliatone/go-filterpack/pkg/page"
	"github.com/goliatone/go-filterpack/pkg/render"
	"github.com/goliatone/go-filterpack/pkg/renderers/html"
)

// RenderOptions aliases render.RenderOptions.
type RenderOptions = render.RenderOptions

// Request aliases orchestrator.Request.
type Request = orchestrator.Request

// NewOrchestrator exposes the orchestrator constructor from the module
// root.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// Generate loads the page at path in fsys, settles it and renders it with
// the named renderer.
func Generate(ctx context.Context, fsys fs.FS, path, rendererName string, options ...orchestrator.Option) ([]byte, error) {
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		FS:       fsys,
		Path:     path,
		Renderer: rendererName,
	})
}

// GenerateFromConfig renders a pre-loaded page configuration.
func GenerateFromConfig(ctx context.Context, cfg page.Config, rendererName string, options ...orchestrator.Option) ([]byte, error) {
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		Config:   &cfg,
		Renderer: rendererName,
	})
}

// EmbeddedTemplates exposes the built-in HTML templates so callers can
// reuse or extend them.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}
