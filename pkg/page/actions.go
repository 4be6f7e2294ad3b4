package page

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-filterpack/pkg/filter"
	"github.com/goliatone/go-filterpack/pkg/widgets"
)

// ErrReadOnly is returned when setting a widget that only displays data.
var ErrReadOnly = errors.New("page: widget is read only")

// Set applies a textual input to widget id the way a user would: a choice
// selects the option whose key matches (empty clears), a number parses its
// input, a toggle reads 1/true/on/yes, and people take ";"-separated
// emails. Callers settle the page afterwards.
func (p *Page) Set(ctx context.Context, id, input string) error {
	if p.disposed {
		return ErrDisposed
	}
	w, ok := p.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownWidget, id)
	}

	switch target := w.(type) {
	case *widgets.ChoiceFilter:
		if strings.TrimSpace(input) == "" {
			return target.Clear()
		}
		return target.Select(input)
	case *widgets.TextFilter:
		target.SetValue(input)
	case *widgets.NumberFilter:
		n, ok := filter.Number(strings.TrimSpace(input))
		if !ok {
			return fmt.Errorf("page: widget %q: %q is not a number", id, input)
		}
		target.SetValue(n)
	case *widgets.ToggleFilter:
		on, err := parseToggle(input)
		if err != nil {
			return fmt.Errorf("page: widget %q: %w", id, err)
		}
		target.SetState(on)
	case *widgets.PeopleFilter:
		target.SetEmails(ctx, strings.Split(input, ";"))
	default:
		return fmt.Errorf("%w: %q", ErrReadOnly, id)
	}
	return nil
}

func parseToggle(input string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "1", "on", "yes":
		return true, nil
	case "0", "off", "no", "":
		return false, nil
	}
	return strconv.ParseBool(input)
}

// Assignment is one id=value pair given on a command line.
type Assignment struct {
	ID    string
	Value string
}

// ParseAssignments splits "id=value" pairs.
func ParseAssignments(pairs []string) ([]Assignment, error) {
	out := make([]Assignment, 0, len(pairs))
	for _, pair := range pairs {
		id, value, ok := strings.Cut(pair, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("page: assignment %q must look like id=value", pair)
		}
		out = append(out, Assignment{ID: id, Value: value})
	}
	return out, nil
}

// Apply sets each assignment in order, settling after every one so later
// widgets see the options earlier ones produced.
func (p *Page) Apply(ctx context.Context, assignments []Assignment) error {
	for _, a := range assignments {
		if err := p.Set(ctx, a.ID, a.Value); err != nil {
			return err
		}
		if err := p.Settle(ctx); err != nil {
			return err
		}
	}
	return nil
}
