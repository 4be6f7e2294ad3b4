// Package widgets implements the filter widgets of a page: each one
// publishes its selection through the dynamic data provider, mirrors it into
// the query string and, for the choice widget, narrows its options with a
// cascading filter chain.
package widgets

import (
	"context"
	"errors"
	"log/slog"

	"github.com/goliatone/go-filterpack/pkg/dynamicdata"
	"github.com/goliatone/go-filterpack/pkg/eventloop"
	"github.com/goliatone/go-filterpack/pkg/filter"
	"github.com/goliatone/go-filterpack/pkg/listinfo"
	"github.com/goliatone/go-filterpack/pkg/liststore"
	"github.com/goliatone/go-filterpack/pkg/querystring"
)

var (
	// ErrUnknownOption is returned when selecting a key no option carries.
	ErrUnknownOption = errors.New("widgets: option not found")
	// ErrNoneNotAllowed is returned when clearing a widget that requires a
	// selection.
	ErrNoneNotAllowed = errors.New("widgets: empty selection not allowed")
	// ErrNoSources is returned by AddFilter when no other source exists.
	ErrNoSources = errors.New("widgets: no data sources available")
	// ErrFilterIndex is returned for an out-of-range cascading filter.
	ErrFilterIndex = errors.New("widgets: filter index out of range")
	// ErrNoStore is recorded when a list widget has nothing to fetch from.
	ErrNoStore = errors.New("widgets: list store not configured")
	// ErrNotListBacked is returned by list operations on custom choices.
	ErrNotListBacked = errors.New("widgets: widget is not list backed")
)

// Env is what a page hands every widget it builds.
type Env struct {
	Provider    *dynamicdata.Provider
	Scheduler   eventloop.Scheduler
	Location    querystring.Location
	Store       liststore.Store
	Lists       *listinfo.Cache
	Directory   liststore.Directory
	CurrentUser string
	Logger      *slog.Logger
}

func (e Env) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// Widget is the lifecycle every page widget follows. Render recomputes the
// widget's state; it is also the callback for upstream changes.
type Widget interface {
	ID() string
	Kind() string
	Init(ctx context.Context) error
	Render()
	Dispose()
	View() View
}

// Source is implemented by widgets that publish properties.
type Source interface {
	Widget
	dynamicdata.Callables
}

// Property ids published by the filter widgets.
const (
	PropFilterKey      = "filterKey"
	PropFilterText     = "filterText"
	PropFilterValue    = "filterValue"
	PropFilterID       = "filterId"
	PropFilterImageURL = "filterImageUrl"
	PropFilterEmail    = "filterEmail"
	PropFilterTitle    = "filterTitle"
)

// Common holds the label and query-string settings shared by the filter
// widgets.
type Common struct {
	Title     string `yaml:"title" json:"title"`
	LabelShow bool   `yaml:"labelShow" json:"labelShow"`
	LabelText string `yaml:"labelText" json:"labelText"`
	SyncQS    bool   `yaml:"syncQS" json:"syncQS"`
	QSKey     string `yaml:"qsKey" json:"qsKey"`
}

func (c Common) label() string {
	if c.LabelShow {
		return c.LabelText
	}
	return ""
}

// base carries the wiring every widget shares.
type base struct {
	id      string
	kind    string
	env     Env
	ctx     context.Context
	adapter *dynamicdata.Adapter
	mirror  *querystring.Mirror
	logger  *slog.Logger
}

func newBase(kind, id, title string, env Env, callables dynamicdata.Callables, common Common) base {
	logger := env.logger().With(slog.String("widget", id), slog.String("kind", kind))
	adapter := dynamicdata.NewAdapter(env.Provider, title, callables,
		dynamicdata.WithSourceID(id),
		dynamicdata.WithAdapterLogger(logger),
	)
	return base{
		id:      adapter.ID(),
		kind:    kind,
		env:     env,
		ctx:     context.Background(),
		adapter: adapter,
		mirror:  querystring.NewMirror(env.Location, common.SyncQS, common.QSKey, querystring.WithLogger(logger)),
		logger:  logger,
	}
}

// ID returns the widget's source id.
func (b *base) ID() string { return b.id }

// Kind returns the registry type name.
func (b *base) Kind() string { return b.kind }

// Adapter exposes the widget's data source adapter.
func (b *base) Adapter() *dynamicdata.Adapter { return b.adapter }

func (b *base) initSource(ctx context.Context) error {
	if ctx != nil {
		b.ctx = ctx
	}
	return b.adapter.InitializeAsSource()
}

func (b *base) notify(props ...string) {
	for _, prop := range props {
		b.adapter.NotifyChanged(prop)
	}
}

// reconfigureMirror applies changed query-string settings and syncs value
// under the new key.
func (b *base) reconfigureMirror(old, next Common, value any) {
	if old.SyncQS == next.SyncQS && old.QSKey == next.QSKey {
		return
	}
	b.mirror.Configure(next.SyncQS, next.QSKey)
	b.mirror.Sync(value)
}

// Dispose withdraws the widget's source and subscriptions.
func (b *base) Dispose() { b.adapter.Dispose() }

// resolver adapts the provider for filter chains.
func (b *base) resolver() filter.Resolver {
	return filter.ResolverFunc(func(id string) (filter.Source, bool) {
		src, ok := b.adapter.TryGetSource(id)
		if !ok {
			return nil, false
		}
		return src, true
	})
}

// propertyValues reads every declared property of src for views.
func propertyValues(src dynamicdata.Callables) []PropertyValue {
	defs := src.PropertyDefinitions()
	out := make([]PropertyValue, 0, len(defs))
	for _, def := range defs {
		value, _ := src.PropertyValue(def.ID)
		out = append(out, PropertyValue{ID: def.ID, Title: def.Title, Value: value})
	}
	return out
}
