package querystring

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newLocation(t *testing.T, raw string) *MemoryLocation {
	t.Helper()
	loc, err := NewMemoryLocation(raw)
	if err != nil {
		t.Fatalf("NewMemoryLocation returned error: %v", err)
	}
	return loc
}

func TestEncode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		value any
		want  string
		ok    bool
	}{
		{"absent", nil, "", false},
		{"true", true, "1", true},
		{"false", false, "0", true},
		{"number", 5, "5", true},
		{"float", 2.5, "2.5", true},
		{"string", "West", "West", true},
		{"string list", []string{"a@x", "b@x"}, "a@x;b@x", true},
		{"any list", []any{1, "two"}, "1;two", true},
		{"empty list", []string{}, "", true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := Encode(tc.value)
			if got != tc.want || ok != tc.ok {
				t.Fatalf("Encode(%#v) = %q, %v; want %q, %v", tc.value, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestMirrorRoundTrip(t *testing.T) {
	t.Parallel()

	loc := newLocation(t, "/page?other=1")
	mirror := NewMirror(loc, true, "k")

	mirror.Sync(5)
	if got := loc.Query().Get("k"); got != "5" {
		t.Fatalf("expected k=5, got %q", got)
	}
	if got := loc.Query().Get("other"); got != "1" {
		t.Fatalf("expected unrelated key to survive, got %q", got)
	}

	mirror.Sync(nil)
	if loc.Query().Has("k") {
		t.Fatalf("expected k to be removed")
	}
	if got := loc.String(); got != "/page?other=1" {
		t.Fatalf("unexpected location %q", got)
	}
	if loc.Replaces() != 2 {
		t.Fatalf("expected two history replaces, got %d", loc.Replaces())
	}
}

func TestMirrorKeyRename(t *testing.T) {
	t.Parallel()

	loc := newLocation(t, "/?k=5")
	mirror := NewMirror(loc, true, "k")

	mirror.Configure(true, "k2")
	mirror.Sync(5)

	want := url.Values{"k2": {"5"}}
	if diff := cmp.Diff(want, loc.Query()); diff != "" {
		t.Fatalf("query mismatch (-want +got):\n%s", diff)
	}

	loc2 := newLocation(t, "/?k2=5&k3=1")
	mirror.loc = loc2
	mirror.Configure(true, "k3")
	mirror.Sync(7)
	want = url.Values{"k3": {"7"}}
	if diff := cmp.Diff(want, loc2.Query()); diff != "" {
		t.Fatalf("second rename mismatch (-want +got):\n%s", diff)
	}
}

func TestMirrorRemembersKeyAfterEmptyPrevious(t *testing.T) {
	t.Parallel()

	loc := newLocation(t, "/")
	mirror := NewMirror(loc, true, "")

	mirror.Configure(true, "a")
	mirror.Sync("x")
	mirror.Configure(true, "b")
	mirror.Sync("x")

	want := url.Values{"b": {"x"}}
	if diff := cmp.Diff(want, loc.Query()); diff != "" {
		t.Fatalf("query mismatch (-want +got):\n%s", diff)
	}
}

func TestMirrorSeedAndDisabled(t *testing.T) {
	t.Parallel()

	loc := newLocation(t, "/?region=West")

	seed, ok := NewMirror(loc, true, "region").Seed()
	if !ok || seed != "West" {
		t.Fatalf("expected seed West, got %q (%v)", seed, ok)
	}

	if _, ok := NewMirror(loc, false, "region").Seed(); ok {
		t.Fatalf("disabled mirror should not seed")
	}

	disabled := NewMirror(loc, false, "region")
	disabled.Sync("East")
	if loc.Replaces() != 0 {
		t.Fatalf("disabled mirror should not touch the location")
	}
}
