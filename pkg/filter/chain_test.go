package filter

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type stubSource map[string]any

func (s stubSource) PropertyValue(id string) (any, error) {
	value, ok := s[id]
	if !ok {
		return nil, errors.New("bad property id")
	}
	return value, nil
}

func resolverFor(sources map[string]stubSource) Resolver {
	return ResolverFunc(func(id string) (Source, bool) {
		src, ok := sources[id]
		if !ok {
			return nil, false
		}
		return src, true
	})
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func keys(records []Record) []any {
	out := make([]any, len(records))
	for i, r := range records {
		out[i] = r["key"]
	}
	return out
}

var cities = []Record{
	{"key": 1, "text": "Seattle", "region": "West", "size": 5},
	{"key": 2, "text": "Portland", "region": "West", "size": 3},
	{"key": 3, "text": "Boston", "region": "East", "size": 4},
	{"key": 4, "text": "Austin", "region": "South", "size": 6},
}

func TestChainAppliesAndSemantics(t *testing.T) {
	t.Parallel()

	chain := Chain{
		Entries: []Entry{
			{Field: "region", Operation: OpEqual, Source: "region", Prop: "filterKey"},
			{Field: "size", Operation: OpGreater, Source: "size", Prop: "filterValue"},
		},
		Resolver: resolverFor(map[string]stubSource{
			"region": {"filterKey": "West"},
			"size":   {"filterValue": 4},
		}),
		Logger: quietLogger(),
	}

	got := keys(chain.Apply(cities))
	if diff := cmp.Diff([]any{1}, got); diff != "" {
		t.Fatalf("filtered keys mismatch (-want +got):\n%s", diff)
	}
}

func TestChainOrderIndependent(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{Field: "region", Operation: OpStartsWith, Source: "a", Prop: "v"},
		{Field: "size", Operation: OpGreaterOrEqual, Source: "b", Prop: "v"},
		{Field: "text", Operation: OpContains, Source: "c", Prop: "v"},
	}
	resolver := resolverFor(map[string]stubSource{
		"a": {"v": "w"},
		"b": {"v": 3},
		"c": {"v": "t"},
	})

	orders := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	var want []any
	for i, order := range orders {
		permuted := make([]Entry, len(order))
		for j, idx := range order {
			permuted[j] = entries[idx]
		}
		got := keys(Chain{Entries: permuted, Resolver: resolver, Logger: quietLogger()}.Apply(cities))
		if i == 0 {
			want = got
			continue
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("order %v changed result (-want +got):\n%s", order, diff)
		}
	}
	if diff := cmp.Diff([]any{1, 2}, want); diff != "" {
		t.Fatalf("unexpected filtered keys (-want +got):\n%s", diff)
	}
}

func TestChainUnavailableEntriesDoNotRestrict(t *testing.T) {
	t.Parallel()

	chain := Chain{
		Entries: []Entry{
			{Field: "region", Operation: OpEqual, Source: "gone", Prop: "filterKey"},
			{Field: "region", Operation: OpEqual, Source: "region", Prop: "nope"},
		},
		Resolver: resolverFor(map[string]stubSource{"region": {"filterKey": "West"}}),
		Logger:   quietLogger(),
	}

	if got := len(chain.Apply(cities)); got != len(cities) {
		t.Fatalf("expected all %d records, got %d", len(cities), got)
	}
}

func TestChainUseSub(t *testing.T) {
	t.Parallel()

	chain := Chain{
		Entries: []Entry{
			{Field: "text", Operation: OpEqual, Source: "choice", Prop: "filterText", UseSub: true, Sub: "0"},
		},
		Resolver: resolverFor(map[string]stubSource{
			"choice": {"filterText": []any{"Boston"}},
		}),
		Logger: quietLogger(),
	}

	if diff := cmp.Diff([]any{3}, keys(chain.Apply(cities))); diff != "" {
		t.Fatalf("filtered keys mismatch (-want +got):\n%s", diff)
	}
}

func TestChainAbsentUpstreamMatchesAbsentField(t *testing.T) {
	t.Parallel()

	records := []Record{
		{"key": 1, "region": "West"},
		{"key": 2},
	}
	chain := Chain{
		Entries:  []Entry{{Field: "region", Operation: OpEqual, Source: "s", Prop: "p"}},
		Resolver: resolverFor(map[string]stubSource{"s": {"p": nil}}),
		Logger:   quietLogger(),
	}

	if diff := cmp.Diff([]any{2}, keys(chain.Apply(records))); diff != "" {
		t.Fatalf("filtered keys mismatch (-want +got):\n%s", diff)
	}
}

func TestChainMalformedPathIsAbsentValue(t *testing.T) {
	t.Parallel()

	records := []Record{
		{"key": 1, "Manager": []any{map[string]any{"Title": "Alice"}}},
		{"key": 2, "Manager": []any{}},
	}
	chain := Chain{
		Entries:  []Entry{{Field: "Manager/Title", Operation: OpEqual, Source: "s", Prop: "p"}},
		Resolver: resolverFor(map[string]stubSource{"s": {"p": "Alice"}}),
		Logger:   quietLogger(),
	}

	if diff := cmp.Diff([]any{1}, keys(chain.Apply(records))); diff != "" {
		t.Fatalf("filtered keys mismatch (-want +got):\n%s", diff)
	}
}

func TestEntryRepairSub(t *testing.T) {
	t.Parallel()

	entry := Entry{UseSub: true, Sub: "missing"}
	if !entry.RepairSub(map[string]any{"id": 1, "email": "a@b"}) {
		t.Fatalf("expected repair")
	}
	if entry.Sub != "email" {
		t.Fatalf("expected first sorted key, got %q", entry.Sub)
	}
	if entry.RepairSub(map[string]any{"id": 1, "email": "a@b"}) {
		t.Fatalf("expected valid sub to be kept")
	}
	if entry.RepairSub(nil) {
		t.Fatalf("expected nil sample to leave sub untouched")
	}
}
