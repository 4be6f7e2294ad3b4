// Package liststore is the read-only boundary to list metadata, list rows
// and the people directory.
package liststore

import (
	"context"
	"errors"
	"html"
	"strings"

	"github.com/goliatone/go-filterpack/pkg/filter"
	"github.com/goliatone/go-filterpack/pkg/listinfo"
)

var (
	// ErrListNotFound reports an unknown list id.
	ErrListNotFound = errors.New("liststore: list not found")
	// ErrPersonNotFound reports an unknown directory entry.
	ErrPersonNotFound = errors.New("liststore: person not found")
)

// Query asks for the rows of one list view.
type Query struct {
	ListID     string   `json:"listId"`
	ViewQuery  string   `json:"viewQuery,omitempty"`
	ViewFields []string `json:"viewFields"`
}

// ViewXML renders the query as a view document.
func (q Query) ViewXML() string {
	var b strings.Builder
	b.WriteString("<View><Query>")
	b.WriteString(q.ViewQuery)
	b.WriteString("</Query><ViewFields>")
	for _, field := range q.ViewFields {
		b.WriteString(`<FieldRef Name="`)
		b.WriteString(html.EscapeString(field))
		b.WriteString(`"/>`)
	}
	b.WriteString("</ViewFields></View>")
	return b.String()
}

// Store serves list metadata and rows.
type Store interface {
	ListMetadata(ctx context.Context, id string) (listinfo.ListMetadata, error)
	Rows(ctx context.Context, q Query) ([]filter.Record, error)
}

// Person is a directory entry.
type Person struct {
	ID       string `json:"id" yaml:"id"`
	Email    string `json:"email" yaml:"email"`
	Title    string `json:"title" yaml:"title"`
	ImageURL string `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
}

// Directory resolves people by email.
type Directory interface {
	Person(ctx context.Context, email string) (Person, error)
}
