// Package page hosts one page session: it builds the widgets a page
// configuration declares, wires them to a shared data provider, event loop
// and location, and drives their initialize, render and dispose lifecycle.
package page

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goliatone/go-filterpack/pkg/dynamicdata"
	"github.com/goliatone/go-filterpack/pkg/eventloop"
	"github.com/goliatone/go-filterpack/pkg/listinfo"
	"github.com/goliatone/go-filterpack/pkg/liststore"
	"github.com/goliatone/go-filterpack/pkg/querystring"
	"github.com/goliatone/go-filterpack/pkg/widgets"
)

var (
	// ErrUnknownWidget is returned for a widget id the page does not hold.
	ErrUnknownWidget = errors.New("page: widget not found")
	// ErrDisposed is returned by operations on a disposed page.
	ErrDisposed = errors.New("page: disposed")
)

// Options configures a Page.
type Options struct {
	Store         liststore.Store
	Directory     liststore.Directory
	Registry      *widgets.Registry
	Lists         *listinfo.Cache
	Logger        *slog.Logger
	URL           string
	CurrentUser   string
	AutoConfigure bool
}

// Option mutates Options.
type Option func(*Options)

// WithStore sets the list store. A store that also resolves people becomes
// the directory unless one is set explicitly.
func WithStore(store liststore.Store) Option {
	return func(o *Options) {
		o.Store = store
		if dir, ok := store.(liststore.Directory); ok && o.Directory == nil {
			o.Directory = dir
		}
	}
}

// WithDirectory sets the people directory.
func WithDirectory(dir liststore.Directory) Option {
	return func(o *Options) { o.Directory = dir }
}

// WithRegistry overrides the widget registry.
func WithRegistry(reg *widgets.Registry) Option {
	return func(o *Options) { o.Registry = reg }
}

// WithListCache shares a list-info cache between pages. It must fetch from
// the same store the page uses.
func WithListCache(cache *listinfo.Cache) Option {
	return func(o *Options) { o.Lists = cache }
}

// WithLogger overrides the page logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithURL overrides the address the page opens at.
func WithURL(raw string) Option {
	return func(o *Options) { o.URL = raw }
}

// WithCurrentUser sets the email people widgets default to.
func WithCurrentUser(email string) Option {
	return func(o *Options) { o.CurrentUser = email }
}

// WithAutoConfigure makes Init fill in missing list settings of list
// backed choice widgets from the list's metadata.
func WithAutoConfigure(enabled bool) Option {
	return func(o *Options) { o.AutoConfigure = enabled }
}

// Page is one running page session. Its methods must be called from a
// single goroutine; widget callbacks run on that goroutine during Settle.
type Page struct {
	cfg      Config
	opts     Options
	provider *dynamicdata.Provider
	loop     *eventloop.Loop
	location *querystring.MemoryLocation
	lists    *listinfo.Cache
	widgets  []widgets.Widget
	byID     map[string]widgets.Widget
	logger   *slog.Logger
	disposed bool
}

// New builds the page's widgets. Nothing is published until Init.
func New(cfg Config, fns ...Option) (*Page, error) {
	opts := Options{AutoConfigure: true}
	for _, fn := range fns {
		if fn != nil {
			fn(&opts)
		}
	}
	if opts.Registry == nil {
		opts.Registry = widgets.NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.URL == "" {
		opts.URL = cfg.URL
	}
	if opts.CurrentUser == "" {
		opts.CurrentUser = cfg.CurrentUser
	}
	logger := opts.Logger.With(slog.String("page", cfg.Title))

	location, err := querystring.NewMemoryLocation(opts.URL)
	if err != nil {
		return nil, err
	}
	loop := eventloop.New(eventloop.WithLogger(logger))
	p := &Page{
		cfg:      cfg,
		opts:     opts,
		provider: dynamicdata.NewProvider(dynamicdata.WithLogger(logger), dynamicdata.WithDispatcher(loop.Post)),
		loop:     loop,
		location: location,
		byID:     make(map[string]widgets.Widget, len(cfg.Widgets)),
		logger:   logger,
	}
	switch {
	case opts.Lists != nil:
		p.lists = opts.Lists
	case opts.Store != nil:
		p.lists = listinfo.NewCache(opts.Store, listinfo.WithLogger(logger))
	}

	env := widgets.Env{
		Provider:    p.provider,
		Scheduler:   loop,
		Location:    location,
		Lists:       p.lists,
		Directory:   opts.Directory,
		CurrentUser: opts.CurrentUser,
		Logger:      logger,
	}
	if opts.Store != nil {
		env.Store = opts.Store
	}
	for _, spec := range cfg.Widgets {
		if _, exists := p.byID[spec.ID]; exists {
			return nil, fmt.Errorf("page: duplicate widget id %q", spec.ID)
		}
		w, err := opts.Registry.Build(spec, env)
		if err != nil {
			return nil, err
		}
		p.widgets = append(p.widgets, w)
		p.byID[spec.ID] = w
	}
	return p, nil
}

// Init initializes every widget in declaration order, then runs one render
// pass. Callbacks queued by the pass run on the next Settle.
func (p *Page) Init(ctx context.Context) error {
	if p.disposed {
		return ErrDisposed
	}
	for _, w := range p.widgets {
		if err := w.Init(ctx); err != nil {
			return fmt.Errorf("page: init widget %q: %w", w.ID(), err)
		}
	}
	if p.opts.AutoConfigure {
		p.autoConfigure(ctx)
	}
	p.Render()
	return nil
}

// autoConfigure loads list metadata off the loop for list widgets that
// still miss their view, key or text field.
func (p *Page) autoConfigure(ctx context.Context) {
	if p.lists == nil {
		return
	}
	for _, w := range p.widgets {
		choice, ok := w.(*widgets.ChoiceFilter)
		if !ok {
			continue
		}
		cfg := choice.Config()
		if cfg.ChoiceType != widgets.ChoiceList || cfg.ListID == "" {
			continue
		}
		if cfg.ViewID != "" && len(cfg.ViewFields) > 0 && cfg.KeyField != "" && cfg.TextField != "" {
			continue
		}
		lists := p.lists
		p.loop.Go(func() func() {
			if _, err := lists.Get(ctx, cfg.ListID); err != nil {
				return func() {
					p.logger.Error("Failed to get List Info", slog.String("widget", choice.ID()), slog.Any("error", err))
				}
			}
			return func() {
				if _, err := choice.ConfigureList(ctx); err != nil {
					p.logger.Warn("list configuration skipped", slog.String("widget", choice.ID()), slog.Any("error", err))
				}
			}
		})
	}
}

// Render runs a render pass over every widget in declaration order.
func (p *Page) Render() {
	for _, w := range p.widgets {
		w.Render()
	}
}

// Settle runs queued callbacks, timers and fetches until none remain.
func (p *Page) Settle(ctx context.Context) error {
	if p.disposed {
		return ErrDisposed
	}
	return p.loop.RunUntilIdle(ctx)
}

// Widget returns the widget with id.
func (p *Page) Widget(id string) (widgets.Widget, bool) {
	w, ok := p.byID[id]
	return w, ok
}

// Widgets returns the widgets in declaration order.
func (p *Page) Widgets() []widgets.Widget {
	return append([]widgets.Widget(nil), p.widgets...)
}

// Config returns the configuration the page was built from.
func (p *Page) Config() Config { return p.cfg }

// URL returns the current page address.
func (p *Page) URL() string { return p.location.String() }

// ListInfo resolves a list's field information through the page cache.
func (p *Page) ListInfo(ctx context.Context, id string) (*listinfo.ListInfo, error) {
	if p.lists == nil {
		return nil, listinfo.ErrNoFetcher
	}
	return p.lists.Get(ctx, id)
}

// Dispose tears the widgets down in reverse order and stops the loop.
func (p *Page) Dispose() {
	if p.disposed {
		return
	}
	for i := len(p.widgets) - 1; i >= 0; i-- {
		p.widgets[i].Dispose()
	}
	p.loop.Close()
	p.disposed = true
}
