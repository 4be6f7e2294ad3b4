package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-filterpack/pkg/filter"
	"github.com/goliatone/go-filterpack/pkg/page"
	"github.com/goliatone/go-filterpack/pkg/widgets"
)

const (
	doneLabel = "Done"
	noneLabel = "(none)"
)

// Session walks a user through changing a page's filters: pick a widget,
// answer its prompt, settle the page and show the result, until done.
type Session struct {
	driver       PromptDriver
	outputFormat OutputFormat
	theme        Theme
}

// NewSession constructs a session with defaults (survey driver, JSON
// output).
func NewSession(options ...Option) *Session {
	s := &Session{outputFormat: OutputFormatJSON}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.driver == nil {
		s.driver = NewSurveyDriver(nil)
	}
	return s
}

// ContentType reports the serialization format Run produces.
func (s *Session) ContentType() string {
	switch s.outputFormat {
	case OutputFormatQuery, OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Run drives p until the user picks Done and returns the final state in the
// configured format. p must be initialized.
func (s *Session) Run(ctx context.Context, p *page.Page) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if p == nil {
		return nil, errors.New("tui: page is required")
	}
	editable := editableWidgets(p)
	if len(editable) == 0 {
		return nil, ErrNothingEditable
	}

	log := &Log{}
	for {
		if err := s.driver.Info(ctx, Summary(p.Snapshot())); err != nil {
			return nil, err
		}

		labels := make([]string, 0, len(editable)+1)
		for _, w := range editable {
			labels = append(labels, pickLabel(w.View()))
		}
		labels = append(labels, doneLabel)
		idx, err := s.driver.Select(ctx, SelectConfig{
			Message:      s.theme.PromptPrefix + "Which filter do you want to change?",
			Options:      labels,
			DefaultIndex: len(labels) - 1,
		})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(editable) {
			break
		}

		w := editable[idx]
		input, ok, err := s.prompt(ctx, w)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		change := Change{Widget: w.ID(), Input: input}
		if err := p.Set(ctx, w.ID(), input); err != nil {
			change.Error = err.Error()
			if err := s.driver.Info(ctx, s.theme.ErrorPrefix+err.Error()); err != nil {
				return nil, err
			}
		} else if err := p.Settle(ctx); err != nil {
			return nil, err
		}
		change.URL = p.URL()
		log.Record(change)
	}
	return s.serialize(p.Snapshot(), log)
}

// prompt asks for w's next value in the textual form page.Set accepts. ok
// is false when there is nothing to ask.
func (s *Session) prompt(ctx context.Context, w widgets.Widget) (string, bool, error) {
	view := w.View()
	message := s.theme.PromptPrefix + widgetName(view)

	switch target := w.(type) {
	case *widgets.ChoiceFilter:
		return s.promptChoice(ctx, target, view, message)
	case *widgets.TextFilter:
		out, err := s.driver.Input(ctx, InputConfig{Message: message, Default: view.Display})
		return out, err == nil, err
	case *widgets.NumberFilter:
		out, err := s.driver.Input(ctx, InputConfig{
			Message:   message,
			Default:   filter.String(target.Value()),
			Validator: validateNumber,
		})
		return strings.TrimSpace(out), err == nil, err
	case *widgets.ToggleFilter:
		on, err := s.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: target.On()})
		if err != nil {
			return "", false, err
		}
		if on {
			return "1", true, nil
		}
		return "0", true, nil
	case *widgets.PeopleFilter:
		emails := make([]string, 0, len(target.People()))
		for _, person := range target.People() {
			emails = append(emails, person.Email)
		}
		out, err := s.driver.Input(ctx, InputConfig{
			Message: message,
			Default: strings.Join(emails, ";"),
			Help:    "Emails separated by ;",
		})
		return out, err == nil, err
	}
	return "", false, nil
}

func (s *Session) promptChoice(ctx context.Context, w *widgets.ChoiceFilter, view widgets.View, message string) (string, bool, error) {
	if len(view.Options) == 0 {
		return "", false, s.driver.Info(ctx, s.theme.InfoPrefix+widgetName(view)+" has no options to pick from")
	}

	allowNone := w.Config().AllowNone
	labels := make([]string, 0, len(view.Options)+1)
	if allowNone {
		labels = append(labels, noneLabel)
	}
	selected := 0
	for _, opt := range view.Options {
		if opt.Selected {
			selected = len(labels)
		}
		labels = append(labels, opt.Text)
	}

	idx, err := s.driver.Select(ctx, SelectConfig{Message: message, Options: labels, DefaultIndex: selected})
	if err != nil {
		return "", false, err
	}
	if allowNone {
		if idx == 0 {
			return "", true, nil
		}
		idx--
	}
	if idx < 0 || idx >= len(view.Options) {
		return "", false, nil
	}
	return filter.String(view.Options[idx].Key), true, nil
}

func (s *Session) serialize(snap page.Snapshot, log *Log) ([]byte, error) {
	switch s.outputFormat {
	case OutputFormatQuery:
		return []byte(snap.URL + "\n"), nil
	case OutputFormatPrettyText:
		var b strings.Builder
		b.WriteString(Summary(snap))
		if changes := log.Changes(); len(changes) > 0 {
			b.WriteString("\nChanges:\n")
			for _, c := range changes {
				if c.Error != "" {
					fmt.Fprintf(&b, "  %s=%s failed: %s\n", c.Widget, c.Input, c.Error)
					continue
				}
				fmt.Fprintf(&b, "  %s=%s -> %s\n", c.Widget, c.Input, c.URL)
			}
		}
		return []byte(b.String()), nil
	default:
		payload := struct {
			Snapshot page.Snapshot `json:"snapshot"`
			Changes  []Change      `json:"changes"`
			Replay   []string      `json:"replay"`
		}{snap, log.Changes(), log.Replay()}
		out, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("tui: encode result: %w", err)
		}
		return append(out, '\n'), nil
	}
}

func editableWidgets(p *page.Page) []widgets.Widget {
	var out []widgets.Widget
	for _, w := range p.Widgets() {
		switch w.(type) {
		case *widgets.ChoiceFilter, *widgets.TextFilter, *widgets.NumberFilter, *widgets.ToggleFilter, *widgets.PeopleFilter:
			out = append(out, w)
		}
	}
	return out
}

func pickLabel(view widgets.View) string {
	if view.Display == "" {
		return widgetName(view)
	}
	return fmt.Sprintf("%s (%s)", widgetName(view), view.Display)
}

func validateNumber(input string) error {
	if _, ok := filter.Number(strings.TrimSpace(input)); !ok {
		return fmt.Errorf("%q is not a number", input)
	}
	return nil
}
