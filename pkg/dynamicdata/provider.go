package dynamicdata

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// PropertyDefinition describes one value a source publishes.
type PropertyDefinition struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// SourceInfo identifies a registered source for pickers.
type SourceInfo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Callables is implemented by widgets that publish values.
type Callables interface {
	PropertyDefinitions() []PropertyDefinition
	PropertyValue(id string) (any, error)
}

// Source is a registered publisher as consumers see it.
type Source interface {
	ID() string
	Title() string
	PropertyDefinitions() []PropertyDefinition
	PropertyValue(id string) (any, error)
}

// Callback runs when a subscribed property changes.
type Callback func()

// Dispatcher schedules callback execution. The default runs callbacks
// inline; pages install their event loop here.
type Dispatcher func(fn func())

// Option configures a Provider.
type Option func(*Provider)

// WithLogger overrides the provider logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithDispatcher routes change callbacks through dispatch.
func WithDispatcher(dispatch Dispatcher) Option {
	return func(p *Provider) {
		if dispatch != nil {
			p.dispatch = dispatch
		}
	}
}

type registeredSource struct {
	id        string
	title     string
	callables Callables
}

func (s *registeredSource) ID() string    { return s.id }
func (s *registeredSource) Title() string { return s.title }

func (s *registeredSource) PropertyDefinitions() []PropertyDefinition {
	defs := s.callables.PropertyDefinitions()
	out := make([]PropertyDefinition, len(defs))
	copy(out, defs)
	return out
}

func (s *registeredSource) PropertyValue(id string) (any, error) {
	return s.callables.PropertyValue(id)
}

type subKey struct {
	source   string
	property string
}

type subscription struct {
	subscriber string
	callback   Callback
}

// Provider is the page-scoped publish/subscribe registry. Sources register
// under an id; consumers subscribe to (source, property) pairs under their
// own subscriber id, so a subscription is keyed by the triple.
type Provider struct {
	mu       sync.RWMutex
	sources  map[string]*registeredSource
	order    []string
	subs     map[subKey][]subscription
	dispatch Dispatcher
	logger   *slog.Logger
}

// NewProvider constructs an empty provider.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		sources:  make(map[string]*registeredSource),
		subs:     make(map[subKey][]subscription),
		dispatch: func(fn func()) { fn() },
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(p)
	}
	return p
}

// Register adds a source. Ids are unique for the provider's lifetime of the
// source; re-registering a live id fails.
func (p *Provider) Register(id, title string, callables Callables) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("dynamicdata: source id is required")
	}
	if callables == nil {
		return fmt.Errorf("dynamicdata: source %q has no callables", id)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.sources[id]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateSource, id)
	}
	p.sources[id] = &registeredSource{id: id, title: title, callables: callables}
	p.order = append(p.order, id)
	p.logger.Debug("source registered", slog.String("source", id), slog.String("title", title))
	return nil
}

// Unregister removes a source. Subscriptions targeting it stay in place so
// a consumer can still unsubscribe later.
func (p *Provider) Unregister(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.sources[id]; !ok {
		return
	}
	delete(p.sources, id)
	for i, existing := range p.order {
		if existing == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	p.logger.Debug("source unregistered", slog.String("source", id))
}

// Source looks up a registered source.
func (p *Provider) Source(id string) (Source, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	src, ok := p.sources[id]
	if !ok {
		return nil, false
	}
	return src, true
}

// Sources lists registered sources in registration order.
func (p *Provider) Sources() []SourceInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]SourceInfo, 0, len(p.order))
	for _, id := range p.order {
		src := p.sources[id]
		out = append(out, SourceInfo{ID: src.id, Title: src.title})
	}
	return out
}

// Subscribe registers callback for changes of (sourceID, propertyID) under
// subscriber. The source does not need to exist yet. Subscribing the same
// triple again replaces the callback.
func (p *Provider) Subscribe(sourceID, propertyID, subscriber string, callback Callback) error {
	if sourceID == "" || propertyID == "" || subscriber == "" || callback == nil {
		return fmt.Errorf("%w: source=%q property=%q subscriber=%q", ErrInvalidSubscription, sourceID, propertyID, subscriber)
	}

	key := subKey{source: sourceID, property: propertyID}

	p.mu.Lock()
	defer p.mu.Unlock()

	list := p.subs[key]
	for i := range list {
		if list[i].subscriber == subscriber {
			list[i].callback = callback
			return nil
		}
	}
	p.subs[key] = append(list, subscription{subscriber: subscriber, callback: callback})
	return nil
}

// Unsubscribe drops the (sourceID, propertyID, subscriber) registration.
// An unknown triple is a no-op. When the source itself is gone the
// registration is still dropped and ErrSourceNotFound is returned.
func (p *Provider) Unsubscribe(sourceID, propertyID, subscriber string) error {
	key := subKey{source: sourceID, property: propertyID}

	p.mu.Lock()
	defer p.mu.Unlock()

	list := p.subs[key]
	for i := range list {
		if list[i].subscriber == subscriber {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(p.subs, key)
	} else {
		p.subs[key] = list
	}

	if _, ok := p.sources[sourceID]; !ok {
		return fmt.Errorf("%w: %q", ErrSourceNotFound, sourceID)
	}
	return nil
}

// Subscribers reports how many consumers watch (sourceID, propertyID).
func (p *Provider) Subscribers(sourceID, propertyID string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs[subKey{source: sourceID, property: propertyID}])
}

// Notify runs every callback subscribed to (sourceID, propertyID) through the
// dispatcher. Callers commit the new value before notifying.
func (p *Provider) Notify(sourceID, propertyID string) {
	p.mu.RLock()
	list := p.subs[subKey{source: sourceID, property: propertyID}]
	callbacks := make([]Callback, len(list))
	for i, sub := range list {
		callbacks[i] = sub.callback
	}
	p.mu.RUnlock()

	p.logger.Debug("property changed",
		slog.String("source", sourceID),
		slog.String("property", propertyID),
		slog.Int("subscribers", len(callbacks)),
	)
	for _, cb := range callbacks {
		p.dispatch(cb)
	}
}
