package filter

import (
	"log/slog"
	"slices"
)

// Entry is one cascading filter rule: the record field at Field is compared
// with Operation against property Prop of upstream source Source. With UseSub
// the upstream value is indexed one level deeper by Sub.
type Entry struct {
	Field     string   `json:"field" yaml:"field"`
	Operation Operator `json:"operation" yaml:"operation"`
	Source    string   `json:"source" yaml:"source"`
	Prop      string   `json:"prop" yaml:"prop"`
	UseSub    bool     `json:"useSub" yaml:"useSub"`
	Sub       string   `json:"sub" yaml:"sub"`
}

// RepairSub points Sub at the first member of sample when UseSub is set and
// Sub no longer names one of its members. It reports whether Sub changed.
func (e *Entry) RepairSub(sample any) bool {
	if e == nil || !e.UseSub {
		return false
	}
	keys, err := SubKeys(sample)
	if err != nil || len(keys) == 0 {
		return false
	}
	if slices.Contains(keys, e.Sub) {
		return false
	}
	e.Sub = keys[0]
	return true
}

// Source is the read side of an upstream publisher.
type Source interface {
	PropertyValue(id string) (any, error)
}

// Resolver finds upstream sources by id.
type Resolver interface {
	ResolveSource(id string) (Source, bool)
}

// ResolverFunc adapts a function into a Resolver.
type ResolverFunc func(id string) (Source, bool)

// ResolveSource delegates to the underlying function.
func (fn ResolverFunc) ResolveSource(id string) (Source, bool) {
	return fn(id)
}

// Chain narrows candidate records with an AND of its entries.
type Chain struct {
	Entries  []Entry
	Resolver Resolver
	Logger   *slog.Logger
}

type boundEntry struct {
	entry    Entry
	upstream any
}

// Apply returns the records that pass every entry, in their original order.
// Upstream values are read once per call. An entry whose source or property
// cannot be read does not restrict.
func (c Chain) Apply(records []Record) []Record {
	bound := c.bind()
	out := make([]Record, 0, len(records))
	for _, record := range records {
		if c.matches(bound, record) {
			out = append(out, record)
		}
	}
	return out
}

// Match reports whether a single record passes every entry.
func (c Chain) Match(record Record) bool {
	return c.matches(c.bind(), record)
}

func (c Chain) bind() []boundEntry {
	logger := c.logger()
	bound := make([]boundEntry, 0, len(c.Entries))
	for _, entry := range c.Entries {
		if c.Resolver == nil {
			logger.Warn("filter skipped: no source resolver", slog.String("source", entry.Source))
			continue
		}
		source, ok := c.Resolver.ResolveSource(entry.Source)
		if !ok || source == nil {
			logger.Warn("Unable to connect to the data source",
				slog.String("source", entry.Source),
				slog.Any("error", "datasource not found"),
			)
			continue
		}
		value, err := source.PropertyValue(entry.Prop)
		if err == nil && value != nil && entry.UseSub {
			value, err = Index(value, entry.Sub)
		}
		if err != nil {
			logger.Warn("An error has occurred while retrieving the property value",
				slog.String("source", entry.Source),
				slog.String("property", entry.Prop),
				slog.Any("error", err),
			)
			continue
		}
		bound = append(bound, boundEntry{entry: entry, upstream: value})
	}
	return bound
}

func (c Chain) matches(bound []boundEntry, record Record) bool {
	for _, b := range bound {
		value, err := Extract(b.entry.Field, record)
		if err != nil {
			c.logger().Debug("record value unavailable",
				slog.String("field", b.entry.Field),
				slog.Any("error", err),
			)
			value = nil
		}
		if !Evaluate(value, b.entry.Operation, b.upstream) {
			return false
		}
	}
	return true
}

func (c Chain) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
