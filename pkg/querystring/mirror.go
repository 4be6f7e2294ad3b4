package querystring

import (
	"log/slog"
	"net/url"
	"reflect"
	"strings"

	"github.com/goliatone/go-filterpack/pkg/filter"
)

// Encode serialises a selection for the URL: booleans as "1"/"0", lists as
// ";"-joined items, anything else in its string form. An absent value
// reports false.
func Encode(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case bool:
		if v {
			return "1", true
		}
		return "0", true
	case string:
		return v, true
	case []byte:
		return string(v), true
	case []string:
		return strings.Join(v, ";"), true
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = filter.String(rv.Index(i).Interface())
		}
		return strings.Join(parts, ";"), true
	}
	return filter.String(value), true
}

// Apply writes value under key in q and removes previousKey when the key was
// renamed. It returns the key to remember as previous for the next call.
func Apply(q url.Values, value any, key, previousKey string) string {
	if encoded, ok := Encode(value); ok {
		q.Set(key, encoded)
	} else {
		q.Del(key)
	}
	if key != previousKey {
		if previousKey != "" {
			q.Del(previousKey)
		}
		previousKey = key
	}
	return previousKey
}

// MirrorOption configures a Mirror.
type MirrorOption func(*Mirror)

// WithLogger overrides the mirror logger.
func WithLogger(logger *slog.Logger) MirrorOption {
	return func(m *Mirror) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Mirror keeps one widget's selection in one query-string parameter.
type Mirror struct {
	loc         Location
	enabled     bool
	key         string
	previousKey string
	logger      *slog.Logger
}

// NewMirror binds a mirror to loc. The initial key is remembered as the
// previous key.
func NewMirror(loc Location, enabled bool, key string, opts ...MirrorOption) *Mirror {
	m := &Mirror{
		loc:         loc,
		enabled:     enabled,
		key:         key,
		previousKey: key,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(m)
	}
	return m
}

// Enabled reports whether syncing is on and a key is configured.
func (m *Mirror) Enabled() bool {
	return m != nil && m.loc != nil && m.enabled && m.key != ""
}

// Key returns the configured parameter name.
func (m *Mirror) Key() string { return m.key }

// Configure changes the enable flag and key. The old key is removed on the
// next Sync.
func (m *Mirror) Configure(enabled bool, key string) {
	m.enabled = enabled
	m.key = key
}

// Seed returns the URL value for the configured key, if any.
func (m *Mirror) Seed() (string, bool) {
	if !m.Enabled() {
		return "", false
	}
	q := m.loc.Query()
	if !q.Has(m.key) {
		return "", false
	}
	return q.Get(m.key), true
}

// Sync reflects value into the URL. Failures are logged, not returned.
func (m *Mirror) Sync(value any) {
	if !m.Enabled() {
		return
	}
	q := m.loc.Query()
	m.previousKey = Apply(q, value, m.key, m.previousKey)
	if err := m.loc.ReplaceQuery(q); err != nil {
		m.logger.Warn("query string sync failed", slog.String("key", m.key), slog.Any("error", err))
	}
}
