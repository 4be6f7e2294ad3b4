package widgets

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownType is returned when no factory is registered for a type.
	ErrUnknownType = errors.New("widgets: unknown widget type")
	// ErrUnresolved is returned when an untyped entry matches no rule.
	ErrUnresolved = errors.New("widgets: cannot infer widget type")
)

// Spec is one widget entry of a page: its id, its type and the
// type-specific options.
type Spec struct {
	ID      string         `yaml:"id" json:"id"`
	Type    string         `yaml:"type" json:"type"`
	Options map[string]any `yaml:"options" json:"options"`
}

func (s Spec) has(keys ...string) bool {
	for _, key := range keys {
		if _, ok := s.Options[key]; ok {
			return true
		}
	}
	return false
}

// Factory builds a widget from its entry.
type Factory func(spec Spec, env Env) (Widget, error)

// Matcher decides whether an untyped entry should be built as a type.
type Matcher func(spec Spec) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry maps widget types to factories and infers the type of untyped
// entries from registered matchers. Higher priority wins; ties fall back to
// registration order.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	rules     []rule
}

// NewRegistry constructs a registry with the built-in widgets registered.
func NewRegistry() *Registry {
	reg := &Registry{factories: make(map[string]Factory)}
	reg.registerBuiltins()
	return reg
}

// RegisterFactory adds or replaces the factory for name.
func (r *Registry) RegisterFactory(name string, factory Factory) {
	if r == nil || factory == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.factories == nil {
		r.factories = make(map[string]Factory)
	}
	r.factories[trimmed] = factory
}

// Register adds a matcher that infers name for untyped entries.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Types lists the registered widget types.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the widget type for spec. An explicit type is honoured
// before matcher evaluation.
func (r *Registry) Resolve(spec Spec) (string, bool) {
	if explicit := strings.TrimSpace(spec.Type); explicit != "" {
		return explicit, true
	}
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(spec) {
			return entry.name, true
		}
	}
	return "", false
}

// Build resolves spec's type and runs its factory.
func (r *Registry) Build(spec Spec, env Env) (Widget, error) {
	name, ok := r.Resolve(spec)
	if !ok {
		return nil, fmt.Errorf("%w: widget %q", ErrUnresolved, spec.ID)
	}
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q: widget %q", ErrUnknownType, name, spec.ID)
	}
	spec.Type = name
	return factory(spec, env)
}

// DecodeOptions decodes a widget's options into its typed configuration.
// Unknown option names are rejected.
func DecodeOptions[T any](options map[string]any) (T, error) {
	var cfg T
	if len(options) == 0 {
		return cfg, nil
	}
	raw, err := yaml.Marshal(options)
	if err != nil {
		return cfg, fmt.Errorf("encode options: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode options: %w", err)
	}
	return cfg, nil
}

func factoryOf[T any](build func(id string, cfg T, env Env) Widget) Factory {
	return func(spec Spec, env Env) (Widget, error) {
		cfg, err := DecodeOptions[T](spec.Options)
		if err != nil {
			return nil, fmt.Errorf("widgets: %s %q: %w", spec.Type, spec.ID, err)
		}
		return build(spec.ID, cfg, env), nil
	}
}

func (r *Registry) registerBuiltins() {
	r.RegisterFactory(KindChoice, factoryOf(func(id string, cfg ChoiceConfig, env Env) Widget {
		return NewChoiceFilter(id, cfg, env)
	}))
	r.RegisterFactory(KindText, factoryOf(func(id string, cfg TextConfig, env Env) Widget {
		return NewTextFilter(id, cfg, env)
	}))
	r.RegisterFactory(KindNumber, factoryOf(func(id string, cfg NumberConfig, env Env) Widget {
		return NewNumberFilter(id, cfg, env)
	}))
	r.RegisterFactory(KindToggle, factoryOf(func(id string, cfg ToggleConfig, env Env) Widget {
		return NewToggleFilter(id, cfg, env)
	}))
	r.RegisterFactory(KindPeople, factoryOf(func(id string, cfg PeopleConfig, env Env) Widget {
		return NewPeopleFilter(id, cfg, env)
	}))
	r.RegisterFactory(KindDynamicValue, factoryOf(func(id string, cfg DynamicValueConfig, env Env) Widget {
		return NewDynamicValue(id, cfg, env)
	}))

	r.Register(KindDynamicValue, 90, func(spec Spec) bool {
		return spec.has("sourceId", "propertyId")
	})
	r.Register(KindChoice, 80, func(spec Spec) bool {
		return spec.has("choiceType", "customChoices", "listId", "cascadingFilters")
	})
	r.Register(KindToggle, 70, func(spec Spec) bool {
		return spec.has("onText", "offText", "defaultState")
	})
	r.Register(KindNumber, 60, func(spec Spec) bool {
		return spec.has("min", "max", "step", "decimalPlaces")
	})
	r.Register(KindPeople, 50, func(spec Spec) bool {
		return spec.has("defaultCurrentUser", "selectionLimit", "groupName")
	})
	r.Register(KindText, 0, func(Spec) bool { return true })
}
