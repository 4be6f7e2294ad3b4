package dynamicdata

import (
	"log/slog"

	"github.com/google/uuid"
)

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithSourceID fixes the adapter's source id. Without it a random id is
// generated.
func WithSourceID(id string) AdapterOption {
	return func(a *Adapter) {
		if id != "" {
			a.id = id
		}
	}
}

// WithAdapterLogger overrides the adapter logger.
func WithAdapterLogger(logger *slog.Logger) AdapterOption {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Adapter is one widget's bridge to the provider: it publishes the widget as
// a source and tracks the widget's own subscriptions. It is owned by a single
// widget and used from the page event loop only.
type Adapter struct {
	provider    *Provider
	id          string
	title       string
	callables   Callables
	logger      *slog.Logger
	initialized bool
	subs        map[subKey]struct{}
}

// NewAdapter binds callables to provider under title. Consumer-only widgets
// pass nil callables and never call InitializeAsSource.
func NewAdapter(provider *Provider, title string, callables Callables, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		provider:  provider,
		id:        uuid.NewString(),
		title:     title,
		callables: callables,
		logger:    slog.Default(),
		subs:      make(map[subKey]struct{}),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(a)
	}
	return a
}

// ID returns the adapter's source id.
func (a *Adapter) ID() string { return a.id }

// Title returns the source title.
func (a *Adapter) Title() string { return a.title }

// Initialized reports whether the widget is currently published.
func (a *Adapter) Initialized() bool { return a.initialized }

// InitializeAsSource publishes the widget. It succeeds once per lifetime.
func (a *Adapter) InitializeAsSource() error {
	if a.initialized {
		return ErrAlreadyInitialized
	}
	if err := a.provider.Register(a.id, a.title, a.callables); err != nil {
		return err
	}
	a.initialized = true
	return nil
}

// DeclareProperties returns the widget's property definitions.
func (a *Adapter) DeclareProperties() []PropertyDefinition {
	if a.callables == nil {
		return nil
	}
	return a.callables.PropertyDefinitions()
}

// ReadProperty returns the current value of property id. An undeclared id
// fails with ErrUnknownProperty.
func (a *Adapter) ReadProperty(id string) (any, error) {
	if a.callables == nil {
		return nil, UnknownProperty(id)
	}
	return a.callables.PropertyValue(id)
}

// NotifyChanged tells every dependent that property id changed.
func (a *Adapter) NotifyChanged(propertyID string) {
	a.provider.Notify(a.id, propertyID)
}

// Subscribe watches (sourceID, propertyID) with callback.
func (a *Adapter) Subscribe(sourceID, propertyID string, callback Callback) error {
	if err := a.provider.Subscribe(sourceID, propertyID, a.id, callback); err != nil {
		return err
	}
	a.subs[subKey{source: sourceID, property: propertyID}] = struct{}{}
	return nil
}

// Unsubscribe drops the (sourceID, propertyID) watch. Failures are logged
// and swallowed so a replacement subscription is never blocked.
func (a *Adapter) Unsubscribe(sourceID, propertyID string) {
	delete(a.subs, subKey{source: sourceID, property: propertyID})
	if err := a.provider.Unsubscribe(sourceID, propertyID, a.id); err != nil {
		a.logger.Warn("Error unregistering filter subscription",
			slog.String("widget", a.id),
			slog.String("source", sourceID),
			slog.String("property", propertyID),
			slog.Any("error", err),
		)
	}
}

// AvailableSources lists every registered source except this one.
func (a *Adapter) AvailableSources() []SourceInfo {
	all := a.provider.Sources()
	out := make([]SourceInfo, 0, len(all))
	for _, info := range all {
		if info.ID == a.id {
			continue
		}
		out = append(out, info)
	}
	return out
}

// TryGetSource looks up another source by id.
func (a *Adapter) TryGetSource(id string) (Source, bool) {
	return a.provider.Source(id)
}

// Dispose drops the widget's subscriptions and withdraws its source.
func (a *Adapter) Dispose() {
	for key := range a.subs {
		a.Unsubscribe(key.source, key.property)
	}
	if a.initialized {
		a.provider.Unregister(a.id)
		a.initialized = false
	}
}
