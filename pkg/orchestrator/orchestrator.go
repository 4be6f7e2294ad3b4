package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/goliatone/go-filterpack/pkg/liststore"
	"github.com/goliatone/go-filterpack/pkg/page"
	"github.com/goliatone/go-filterpack/pkg/render"
	"github.com/goliatone/go-filterpack/pkg/renderers/html"
	"github.com/goliatone/go-filterpack/pkg/renderers/tui"
)

const defaultRendererName = "html"

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits one.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithStore sets the list store every page session reads from.
func WithStore(store liststore.Store) Option {
	return func(o *Orchestrator) {
		o.store = store
	}
}

// WithLogger overrides the logger handed to page sessions.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithPageOptions appends options applied to every page session.
func WithPageOptions(opts ...page.Option) Option {
	return func(o *Orchestrator) {
		o.pageOptions = append(o.pageOptions, opts...)
	}
}

// WithDecorators registers decorators that run against the settled snapshot
// before rendering.
func WithDecorators(decorators ...Decorator) Option {
	return func(o *Orchestrator) {
		o.decorators = append(o.decorators, decorators...)
	}
}

// Decorator adjusts a snapshot before it is rendered.
type Decorator interface {
	Decorate(snap *page.Snapshot) error
}

// DecoratorFunc adapts a function to Decorator.
type DecoratorFunc func(snap *page.Snapshot) error

// Decorate implements Decorator.
func (fn DecoratorFunc) Decorate(snap *page.Snapshot) error { return fn(snap) }

// Orchestrator coordinates page config, page session and renderer. Missing
// dependencies fall back to the built-in renderers.
type Orchestrator struct {
	registry        *render.Registry
	defaultRenderer string
	store           liststore.Store
	logger          *slog.Logger
	pageOptions     []page.Option
	decorators      []Decorator
	initialiseErr   error
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{defaultRenderer: defaultRendererName}
	for _, opt := range options {
		if opt != nil {
			opt(o)
		}
	}
	o.applyDefaults()
	return o
}

// Request describes one render.
type Request struct {
	// Config is a pre-loaded page configuration. Optional when FS and Path
	// are supplied.
	Config *page.Config

	// FS and Path locate a page configuration file.
	FS   fs.FS
	Path string

	// URL opens the page at this address instead of the configured one.
	URL string

	// Assignments are applied in order after the page settles.
	Assignments []page.Assignment

	// Renderer names the renderer to use. Empty selects the default.
	Renderer string

	// RenderOptions is passed through to the renderer.
	RenderOptions render.RenderOptions
}

// Result is the rendered output together with the snapshot it came from.
type Result struct {
	Output      []byte
	Snapshot    page.Snapshot
	ContentType string
}

// Generate runs the pipeline and returns the rendered bytes.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	res, err := o.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.Output, nil
}

// Run is Generate returning the snapshot and content type as well.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := o.initialiseErr; err != nil {
		return Result{}, err
	}

	cfg, err := resolveConfig(req)
	if err != nil {
		return Result{}, err
	}
	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return Result{}, err
	}

	snap, err := o.settle(ctx, cfg, req)
	if err != nil {
		return Result{}, err
	}
	for _, decorator := range o.decorators {
		if decorator == nil {
			continue
		}
		if err := decorator.Decorate(&snap); err != nil {
			return Result{}, fmt.Errorf("orchestrator: decorate snapshot: %w", err)
		}
	}

	output, err := renderer.Render(ctx, snap, req.RenderOptions)
	if err != nil {
		return Result{}, fmt.Errorf("orchestrator: render output: %w", err)
	}
	return Result{Output: output, Snapshot: snap, ContentType: renderer.ContentType()}, nil
}

func (o *Orchestrator) settle(ctx context.Context, cfg page.Config, req Request) (page.Snapshot, error) {
	opts := []page.Option{page.WithLogger(o.logger)}
	if o.store != nil {
		opts = append(opts, page.WithStore(o.store))
	}
	if req.URL != "" {
		opts = append(opts, page.WithURL(req.URL))
	}
	opts = append(opts, o.pageOptions...)

	p, err := page.New(cfg, opts...)
	if err != nil {
		return page.Snapshot{}, err
	}
	defer p.Dispose()

	if err := p.Init(ctx); err != nil {
		return page.Snapshot{}, err
	}
	if err := p.Settle(ctx); err != nil {
		return page.Snapshot{}, fmt.Errorf("orchestrator: settle page: %w", err)
	}
	if err := p.Apply(ctx, req.Assignments); err != nil {
		return page.Snapshot{}, err
	}
	return p.Snapshot(), nil
}

func resolveConfig(req Request) (page.Config, error) {
	if req.Config != nil {
		return *req.Config, nil
	}
	if req.FS == nil || req.Path == "" {
		return page.Config{}, errors.New("orchestrator: page config or fs and path are required")
	}
	cfg, err := page.LoadFS(req.FS, req.Path)
	if err != nil {
		return page.Config{}, fmt.Errorf("orchestrator: load page: %w", err)
	}
	return cfg, nil
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := name
	if target == "" {
		target = o.defaultRenderer
	}
	if target != "" {
		renderer, err := o.registry.Get(target)
		if err == nil {
			return renderer, nil
		}
		if name != "" {
			return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
		}
	}

	names := o.registry.List()
	if len(names) == 0 {
		return nil, errors.New("orchestrator: no renderers registered")
	}
	return o.registry.Get(names[0])
}

func (o *Orchestrator) applyDefaults() {
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.registry != nil {
		return
	}
	registry, err := DefaultRegistry()
	if err != nil {
		o.initialiseErr = fmt.Errorf("orchestrator: default renderers: %w", err)
		return
	}
	o.registry = registry
}

// DefaultRegistry returns a registry holding the html, json and text
// renderers.
func DefaultRegistry() (*render.Registry, error) {
	htmlRenderer, err := html.New()
	if err != nil {
		return nil, err
	}
	return render.NewRegistry(htmlRenderer, render.NewJSON(), tui.New())
}
