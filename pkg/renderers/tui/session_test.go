package tui

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-filterpack/pkg/liststore"
	"github.com/goliatone/go-filterpack/pkg/page"
	"github.com/goliatone/go-filterpack/pkg/render"
	"github.com/goliatone/go-filterpack/pkg/testsupport"
	"github.com/goliatone/go-filterpack/pkg/widgets"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	confirm      []bool
	infoMessages []string
	selectMsgs   [][]string
	inputPos     int
	selectPos    int
	confirmPos   int
	selectErr    error
}

func (s *stubDriver) Input(_ context.Context, _ InputConfig) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	if s.selectErr != nil {
		return -1, s.selectErr
	}
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	s.selectMsgs = append(s.selectMsgs, cfg.Options)
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func demoPage(t *testing.T) *page.Page {
	t.Helper()
	cfg, err := page.LoadFS(page.DemoFS(), page.DemoPage)
	if err != nil {
		t.Fatalf("load page: %v", err)
	}
	store, err := liststore.LoadFixtureFS(page.DemoFS(), page.DemoLists)
	if err != nil {
		t.Fatalf("load lists: %v", err)
	}
	return startPage(t, cfg, page.WithStore(store))
}

func startPage(t *testing.T, cfg page.Config, opts ...page.Option) *page.Page {
	t.Helper()
	p, err := page.New(cfg, append(opts, page.WithLogger(testsupport.Logger()))...)
	if err != nil {
		t.Fatalf("new page: %v", err)
	}
	t.Cleanup(p.Dispose)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := p.Settle(ctx); err != nil {
		t.Fatalf("settle: %v", err)
	}
	return p
}

func TestSessionEditsPage(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{
		// region -> South, office -> Porto, remote -> on, headcount -> bad, done
		selectIdx: []int{0, 1, 1, 2, 3, 2, 6},
		confirm:   []bool{true},
		inputs:    []string{"abc"},
	}
	session := NewSession(WithPromptDriver(driver), WithTheme(Theme{ErrorPrefix: "! "}))

	out, err := session.Run(context.Background(), demoPage(t))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var result struct {
		Snapshot page.Snapshot `json:"snapshot"`
		Changes  []Change      `json:"changes"`
		Replay   []string      `json:"replay"`
	}
	if err := json.Unmarshal(out, &result); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if diff := cmp.Diff([]string{"region=2", "office=13", "remote=1"}, result.Replay); diff != "" {
		t.Fatalf("replay mismatch (-want +got):\n%s", diff)
	}
	if len(result.Changes) != 4 || result.Changes[3].Error == "" {
		t.Fatalf("expected the headcount edit to fail, got %+v", result.Changes)
	}
	if office, _ := result.Snapshot.Widget("office"); office.Display != "Porto" {
		t.Fatalf("expected Porto selected, got %q", office.Display)
	}
	if !strings.Contains(result.Snapshot.URL, "office=13") {
		t.Fatalf("expected office in URL, got %s", result.Snapshot.URL)
	}

	// The office prompt offers the empty choice first, then the southern offices.
	if diff := cmp.Diff([]string{noneLabel, "Lisbon", "Porto"}, driver.selectMsgs[3]); diff != "" {
		t.Fatalf("office prompt mismatch (-want +got):\n%s", diff)
	}
	var sawError bool
	for _, msg := range driver.infoMessages {
		if strings.HasPrefix(msg, "! ") && strings.Contains(msg, "not a number") {
			sawError = true
		}
	}
	if !sawError {
		t.Fatalf("expected the parse error to be shown, got %q", driver.infoMessages)
	}
}

func TestSessionQueryOutput(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{selectIdx: []int{6}}
	session := NewSession(WithPromptDriver(driver), WithOutputFormat(OutputFormatQuery))
	out, err := session.Run(context.Background(), demoPage(t))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := string(out); !strings.HasPrefix(got, "/offices?") || !strings.Contains(got, "region=1") {
		t.Fatalf("unexpected query output %q", got)
	}
	if session.ContentType() != "text/plain" {
		t.Fatalf("unexpected content type %s", session.ContentType())
	}
}

func TestSessionErrors(t *testing.T) {
	t.Parallel()

	cfg, err := page.Parse("p.yaml", []byte("widgets:\n  - id: shown\n    type: dynamicValue\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = NewSession(WithPromptDriver(&stubDriver{})).Run(context.Background(), startPage(t, cfg))
	if !errors.Is(err, ErrNothingEditable) {
		t.Fatalf("expected ErrNothingEditable, got %v", err)
	}

	aborting := &stubDriver{selectErr: ErrAborted}
	_, err = NewSession(WithPromptDriver(aborting)).Run(context.Background(), demoPage(t))
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()

	snap := page.Snapshot{
		Title: "Offices",
		URL:   "/offices?region=1",
		Widgets: []widgets.View{
			{ID: "region", Label: "Region", Kind: widgets.KindChoice, State: widgets.StateReady, Options: []widgets.Option{
				{Key: 1, Text: "North", Selected: true},
				{Key: 2, Text: "South"},
			}},
			{ID: "office", Kind: widgets.KindChoice, State: widgets.StateError, Message: "Failed to load list choices: boom"},
			{ID: "q", Title: "Search", Kind: widgets.KindText, State: widgets.StateReady, Display: "port"},
		},
	}
	want := strings.Join([]string{
		"Offices",
		"URL: /offices?region=1",
		"",
		"Region (choice, ready)",
		"  * North",
		"    South",
		"",
		"office (choice, error)",
		"  ! Failed to load list choices: boom",
		"  (no options)",
		"",
		"Search (text, ready)",
		"  port",
		"",
	}, "\n")
	if diff := cmp.Diff(want, Summary(snap)); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}

	out, err := New().Render(context.Background(), snap, render.RenderOptions{BasePath: "http://h"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(out), "URL: http://h/offices?region=1") {
		t.Fatalf("expected canonical URL in text output\n%s", out)
	}
}
