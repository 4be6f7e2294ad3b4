package liststore

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-filterpack/pkg/filter"
	"github.com/goliatone/go-filterpack/pkg/listinfo"
)

// FixtureList is one list in a fixture file: its metadata plus raw rows.
type FixtureList struct {
	listinfo.ListMetadata `yaml:",inline"`
	Rows                  []map[string]any `yaml:"rows"`
}

// Fixture is the on-disk shape read by MemoryStore.
type Fixture struct {
	Lists []FixtureList `yaml:"lists"`
	Users []Person      `yaml:"users"`
}

// MemoryStore serves lists and people from a Fixture. View queries are
// not evaluated; every row of the list is returned.
type MemoryStore struct {
	mu    sync.RWMutex
	lists map[string]FixtureList
	users map[string]Person
}

// NewMemoryStore indexes fixture.
func NewMemoryStore(fixture Fixture) (*MemoryStore, error) {
	s := &MemoryStore{
		lists: make(map[string]FixtureList, len(fixture.Lists)),
		users: make(map[string]Person, len(fixture.Users)),
	}
	for i, list := range fixture.Lists {
		id := strings.TrimSpace(list.ID)
		if id == "" {
			return nil, fmt.Errorf("liststore: lists[%d]: id is required", i)
		}
		if _, dup := s.lists[id]; dup {
			return nil, fmt.Errorf("liststore: duplicate list id %q", id)
		}
		s.lists[id] = list
	}
	for _, user := range fixture.Users {
		s.users[strings.ToLower(user.Email)] = user
	}
	return s, nil
}

// LoadFixture reads a YAML fixture file from disk.
func LoadFixture(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("liststore: read fixture: %w", err)
	}
	return ParseFixture(path, data)
}

// LoadFixtureFS reads a YAML fixture file from fsys.
func LoadFixtureFS(fsys fs.FS, path string) (*MemoryStore, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("liststore: read fixture: %w", err)
	}
	return ParseFixture(path, data)
}

// ParseFixture decodes YAML fixture data; name only labels errors.
func ParseFixture(name string, data []byte) (*MemoryStore, error) {
	var fixture Fixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("liststore: parse %s: %w", name, err)
	}
	store, err := NewMemoryStore(fixture)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return store, nil
}

// ListMetadata implements Store.
func (s *MemoryStore) ListMetadata(ctx context.Context, id string) (listinfo.ListMetadata, error) {
	if err := ctx.Err(); err != nil {
		return listinfo.ListMetadata{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	list, ok := s.lists[id]
	if !ok {
		return listinfo.ListMetadata{}, fmt.Errorf("%w: %q", ErrListNotFound, id)
	}
	return list.ListMetadata, nil
}

// Rows implements Store. Each row is projected onto the requested view
// fields, keeping "<field>.<suffix>" companions such as URL descriptions.
func (s *MemoryStore) Rows(ctx context.Context, q Query) ([]filter.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	list, ok := s.lists[q.ListID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrListNotFound, q.ListID)
	}
	out := make([]filter.Record, 0, len(list.Rows))
	for _, row := range list.Rows {
		out = append(out, project(row, q.ViewFields))
	}
	return out, nil
}

// Person implements Directory.
func (s *MemoryStore) Person(ctx context.Context, email string) (Person, error) {
	if err := ctx.Err(); err != nil {
		return Person{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	person, ok := s.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return Person{}, fmt.Errorf("%w: %q", ErrPersonNotFound, email)
	}
	return person, nil
}

// ListIDs returns the fixture's list ids in sorted order.
func (s *MemoryStore) ListIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.lists))
	for id := range s.lists {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func project(row map[string]any, fields []string) filter.Record {
	if len(fields) == 0 {
		out := make(filter.Record, len(row))
		for k, v := range row {
			out[k] = v
		}
		return out
	}
	out := make(filter.Record, len(fields))
	for key, value := range row {
		for _, field := range fields {
			if key == field || strings.HasPrefix(key, field+".") {
				out[key] = value
				break
			}
		}
	}
	return out
}
