// Package html renders page snapshots as HTML through pongo2 templates.
package html

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/goliatone/go-filterpack/pkg/filter"
	"github.com/goliatone/go-filterpack/pkg/page"
	"github.com/goliatone/go-filterpack/pkg/render"
	rendertemplate "github.com/goliatone/go-filterpack/pkg/render/template"
	"github.com/goliatone/go-filterpack/pkg/render/template/pongo"
	"github.com/goliatone/go-filterpack/pkg/widgets"
)

// Option configures the renderer.
type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
}

// WithTemplatesFS supplies an alternate template bundle. It must provide
// page.tmpl and widget.tmpl.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template engine.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// Renderer renders one section per widget with its state, its options and
// the canonical page URL.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the renderer.
func New(options ...Option) (*Renderer, error) {
	cfg := config{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := pongo.New(pongo.WithFS(cfg.templateFS), pongo.WithExtension(".tmpl"))
		if err != nil {
			return nil, fmt.Errorf("html renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}
	if err := renderer.RegisterFilter("statelabel", stateLabel); err != nil && !errors.Is(err, pongo.ErrFilterExists) {
		return nil, fmt.Errorf("html renderer: register filters: %w", err)
	}
	return &Renderer{templates: renderer}, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string { return "html" }

// ContentType reports the media type Render produces.
func (r *Renderer) ContentType() string { return "text/html; charset=utf-8" }

// Render executes page.tmpl against snap.
func (r *Renderer) Render(ctx context.Context, snap page.Snapshot, opts render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := r.templates.RenderTemplate("page", pageData(snap, opts))
	if err != nil {
		return nil, fmt.Errorf("html renderer: %w", err)
	}
	return []byte(out), nil
}

type optionView struct {
	Key      string `json:"key"`
	Text     string `json:"text"`
	Selected bool   `json:"selected"`
}

type widgetView struct {
	ID      string       `json:"id"`
	Kind    string       `json:"kind"`
	Title   string       `json:"title"`
	Label   string       `json:"label"`
	State   string       `json:"state"`
	Message string       `json:"message"`
	Display string       `json:"display"`
	QSKey   string       `json:"qsKey"`
	Options []optionView `json:"options"`
}

func pageData(snap page.Snapshot, opts render.RenderOptions) map[string]any {
	views := make([]widgetView, 0, len(snap.Widgets))
	for _, w := range snap.Widgets {
		views = append(views, toWidgetView(w))
	}
	return map[string]any{
		"title":    snap.Title,
		"url":      opts.CanonicalURL(snap.URL),
		"fragment": opts.Fragment,
		"widgets":  views,
	}
}

// toWidgetView flattens keys to strings so templates print them verbatim.
func toWidgetView(w widgets.View) widgetView {
	view := widgetView{
		ID:      w.ID,
		Kind:    w.Kind,
		Title:   w.Title,
		Label:   w.Label,
		State:   w.State.String(),
		Message: w.Message,
		Display: w.Display,
		QSKey:   w.QSKey,
	}
	for _, opt := range w.Options {
		view.Options = append(view.Options, optionView{
			Key:      filter.String(opt.Key),
			Text:     opt.Text,
			Selected: opt.Selected,
		})
	}
	return view
}

func stateLabel(input any, _ any) (any, error) {
	var state widgets.State
	if err := state.UnmarshalText([]byte(fmt.Sprint(input))); err != nil {
		return nil, err
	}
	switch state {
	case widgets.StateUnconfigured:
		return "Not configured", nil
	case widgets.StateLoading:
		return "Loading", nil
	case widgets.StateError:
		return "Error", nil
	default:
		return "Ready", nil
	}
}
