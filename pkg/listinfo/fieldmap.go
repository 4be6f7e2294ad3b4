package listinfo

import (
	"bytes"
	"encoding/json"
)

// FieldMap maps field paths to labels, remembering first insertion order.
// Setting an existing path updates its label in place.
type FieldMap struct {
	order  []string
	labels map[string]string
}

// NewFieldMap returns an empty map.
func NewFieldMap() *FieldMap {
	return &FieldMap{labels: make(map[string]string)}
}

// Set records label for path.
func (m *FieldMap) Set(path, label string) {
	if _, ok := m.labels[path]; !ok {
		m.order = append(m.order, path)
	}
	m.labels[path] = label
}

// Label returns the label for path, or path itself when unknown.
func (m *FieldMap) Label(path string) string {
	if m == nil {
		return path
	}
	if label, ok := m.labels[path]; ok {
		return label
	}
	return path
}

// Has reports whether path is known.
func (m *FieldMap) Has(path string) bool {
	if m == nil {
		return false
	}
	_, ok := m.labels[path]
	return ok
}

// Paths returns the known paths in insertion order.
func (m *FieldMap) Paths() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.order...)
}

// Len reports the number of paths.
func (m *FieldMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// MarshalJSON writes the map as an object in insertion order.
func (m *FieldMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, path := range m.Paths() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(path)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(m.labels[path])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
