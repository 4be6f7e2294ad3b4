package widgets

import (
	"context"
	"log/slog"
	"strings"

	"github.com/goliatone/go-filterpack/pkg/dynamicdata"
	"github.com/goliatone/go-filterpack/pkg/liststore"
)

// KindPeople is the registry name of the people widget.
const KindPeople = "people"

// PeopleConfig configures a PeopleFilter. DefaultValue is a ";"-separated
// email list.
type PeopleConfig struct {
	Common             `yaml:",inline"`
	DefaultValue       string `yaml:"defaultValue" json:"defaultValue"`
	DefaultCurrentUser bool   `yaml:"defaultCurrentUser" json:"defaultCurrentUser"`
	SelectionLimit     int    `yaml:"selectionLimit" json:"selectionLimit"`
	GroupName          string `yaml:"groupName" json:"groupName"`
}

// PeopleFilter publishes the ids, image URLs, emails and names of the
// selected people, each ";"-joined.
type PeopleFilter struct {
	base
	cfg   PeopleConfig
	value []liststore.Person
}

// NewPeopleFilter builds an uninitialised people widget.
func NewPeopleFilter(id string, cfg PeopleConfig, env Env) *PeopleFilter {
	w := &PeopleFilter{cfg: cfg}
	w.base = newBase(KindPeople, id, cfg.Title, env, w, cfg.Common)
	return w
}

// Init publishes the widget and seeds the selection from the current user
// or the default list; a query-string email list overrides both.
func (w *PeopleFilter) Init(ctx context.Context) error {
	if err := w.initSource(ctx); err != nil {
		return err
	}
	var emails []string
	switch {
	case w.cfg.DefaultCurrentUser:
		emails = []string{w.env.CurrentUser}
	case w.cfg.DefaultValue != "":
		emails = strings.Split(w.cfg.DefaultValue, ";")
	}
	if seed, ok := w.mirror.Seed(); ok {
		emails = strings.Split(seed, ";")
	}
	w.value = w.resolve(w.ctx, cleanEmails(emails))
	return nil
}

// resolve looks each email up in the directory. Unknown people keep only
// their email.
func (w *PeopleFilter) resolve(ctx context.Context, emails []string) []liststore.Person {
	out := make([]liststore.Person, 0, len(emails))
	for _, email := range emails {
		person := liststore.Person{Email: email}
		if w.env.Directory != nil && strings.TrimSpace(email) != "" {
			found, err := w.env.Directory.Person(ctx, email)
			if err != nil {
				w.logger.Warn("person lookup failed", slog.String("email", email), slog.Any("error", err))
			} else {
				person = found
			}
		}
		out = append(out, person)
	}
	if w.cfg.SelectionLimit > 0 && len(out) > w.cfg.SelectionLimit {
		out = out[:w.cfg.SelectionLimit]
	}
	return out
}

// PropertyDefinitions implements dynamicdata.Callables.
func (w *PeopleFilter) PropertyDefinitions() []dynamicdata.PropertyDefinition {
	return []dynamicdata.PropertyDefinition{
		{ID: PropFilterID, Title: "User ID", Description: "The user ID(s) from the people filter"},
		{ID: PropFilterImageURL, Title: "Image URL", Description: "The profile Image URL(s) from the people filter"},
		{ID: PropFilterEmail, Title: "Email", Description: "The email address(es) from the people filter"},
		{ID: PropFilterTitle, Title: "Title", Description: "The name(s) from the people filter"},
	}
}

// PropertyValue implements dynamicdata.Callables.
func (w *PeopleFilter) PropertyValue(id string) (any, error) {
	var pick func(liststore.Person) string
	switch id {
	case PropFilterID:
		pick = func(p liststore.Person) string { return p.ID }
	case PropFilterImageURL:
		pick = func(p liststore.Person) string { return p.ImageURL }
	case PropFilterEmail:
		pick = func(p liststore.Person) string { return p.Email }
	case PropFilterTitle:
		pick = func(p liststore.Person) string { return p.Title }
	default:
		return nil, dynamicdata.UnknownProperty(id)
	}
	parts := make([]string, len(w.value))
	for i, person := range w.value {
		parts[i] = pick(person)
	}
	return strings.Join(parts, ";"), nil
}

// People returns the current selection.
func (w *PeopleFilter) People() []liststore.Person {
	return append([]liststore.Person(nil), w.value...)
}

// SetEmails resolves emails into the selection, notifies every property
// and syncs the query string.
func (w *PeopleFilter) SetEmails(ctx context.Context, emails []string) {
	w.value = w.resolve(ctx, cleanEmails(emails))
	w.notify(PropFilterID, PropFilterImageURL, PropFilterEmail, PropFilterTitle)
	w.mirror.Sync(w.emails())
	w.Render()
}

func cleanEmails(emails []string) []string {
	cleaned := make([]string, 0, len(emails))
	for _, email := range emails {
		if email = strings.TrimSpace(email); email != "" {
			cleaned = append(cleaned, email)
		}
	}
	return cleaned
}

func (w *PeopleFilter) emails() []string {
	out := make([]string, len(w.value))
	for i, person := range w.value {
		out[i] = person.Email
	}
	return out
}

// Reconfigure applies an edited configuration.
func (w *PeopleFilter) Reconfigure(next PeopleConfig) {
	old := w.cfg
	w.cfg = next
	w.reconfigureMirror(old.Common, next.Common, w.emails())
}

// Render implements Widget.
func (w *PeopleFilter) Render() {}

// View implements Widget.
func (w *PeopleFilter) View() View {
	names := make([]string, len(w.value))
	for i, person := range w.value {
		names[i] = person.Title
		if names[i] == "" {
			names[i] = person.Email
		}
	}
	return View{
		ID:         w.id,
		Kind:       w.kind,
		Title:      w.cfg.Title,
		Label:      w.cfg.label(),
		State:      StateReady,
		Value:      w.emails(),
		Display:    strings.Join(names, "; "),
		QSKey:      w.mirror.Key(),
		Properties: propertyValues(w),
	}
}
