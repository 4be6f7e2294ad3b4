package widgets

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goliatone/go-filterpack/pkg/dynamicdata"
	"github.com/goliatone/go-filterpack/pkg/filter"
	"github.com/goliatone/go-filterpack/pkg/liststore"
)

// KindChoice is the registry name of the choice widget.
const KindChoice = "choice"

// ChoiceType says where a choice widget's candidates come from.
type ChoiceType string

const (
	ChoiceCustom ChoiceType = "custom"
	ChoiceList   ChoiceType = "list"
)

// CustomChoice is one author-defined candidate. FilterValue is what
// cascading filters compare against by default.
type CustomChoice struct {
	Key         any    `yaml:"key" json:"key"`
	Text        string `yaml:"text" json:"text"`
	FilterValue any    `yaml:"filterValue" json:"filterValue"`
}

func (c CustomChoice) record() filter.Record {
	return filter.Record{"key": c.Key, "text": c.Text, "filterValue": c.FilterValue}
}

// ChoiceConfig configures a ChoiceFilter.
type ChoiceConfig struct {
	Common           `yaml:",inline"`
	ChoiceType       ChoiceType     `yaml:"choiceType" json:"choiceType"`
	CustomChoices    []CustomChoice `yaml:"customChoices" json:"customChoices"`
	ListID           string         `yaml:"listId" json:"listId"`
	ViewID           string         `yaml:"viewId" json:"viewId"`
	ViewQuery        string         `yaml:"viewQuery" json:"viewQuery"`
	ViewFields       []string       `yaml:"viewFields" json:"viewFields"`
	KeyField         string         `yaml:"keyField" json:"keyField"`
	TextField        string         `yaml:"textField" json:"textField"`
	AllowNone        bool           `yaml:"allowNone" json:"allowNone"`
	CascadingFilters []filter.Entry `yaml:"cascadingFilters" json:"cascadingFilters"`
	SendAsArray      bool           `yaml:"sendAsArray" json:"sendAsArray"`
}

func (c ChoiceConfig) listBacked() bool { return c.ChoiceType == ChoiceList }

// needsConfiguration reports a list source missing what a fetch needs.
// The view query may legitimately be empty.
func (c ChoiceConfig) needsConfiguration() bool {
	if !c.listBacked() {
		return false
	}
	return c.ListID == "" || c.ViewID == "" || len(c.ViewFields) == 0 || c.KeyField == "" || c.TextField == ""
}

// ChoiceFilter publishes the key and text of one selected option.
type ChoiceFilter struct {
	base
	cfg ChoiceConfig

	selectedKey  any
	selectedText any

	subscribed bool
	options    []Option

	results     []filter.Record
	haveResults bool
	loading     bool
	fetchErr    error
	generation  int
}

// NewChoiceFilter builds an uninitialised choice widget.
func NewChoiceFilter(id string, cfg ChoiceConfig, env Env) *ChoiceFilter {
	if cfg.ChoiceType == "" {
		cfg.ChoiceType = ChoiceCustom
	}
	w := &ChoiceFilter{cfg: cfg}
	w.base = newBase(KindChoice, id, cfg.Title, env, w, cfg.Common)
	return w
}

// Config returns a copy of the current configuration.
func (w *ChoiceFilter) Config() ChoiceConfig {
	cfg := w.cfg
	cfg.CascadingFilters = append([]filter.Entry(nil), w.cfg.CascadingFilters...)
	return cfg
}

// Init publishes the widget, seeds the selection from the query string and
// starts the first list fetch.
func (w *ChoiceFilter) Init(ctx context.Context) error {
	if err := w.initSource(ctx); err != nil {
		return err
	}
	if seed, ok := w.mirror.Seed(); ok {
		w.selectedKey = seed
	}
	if w.cfg.listBacked() && !w.cfg.needsConfiguration() {
		w.fetch()
	}
	return nil
}

// PropertyDefinitions implements dynamicdata.Callables.
func (w *ChoiceFilter) PropertyDefinitions() []dynamicdata.PropertyDefinition {
	return []dynamicdata.PropertyDefinition{
		{ID: PropFilterKey, Title: "Filter Key", Description: "The key value of the selected filter choice"},
		{ID: PropFilterText, Title: "Filter Text", Description: "The display text of the selected filter choice"},
	}
}

// PropertyValue implements dynamicdata.Callables.
func (w *ChoiceFilter) PropertyValue(id string) (any, error) {
	switch id {
	case PropFilterKey:
		return w.wrap(w.selectedKey), nil
	case PropFilterText:
		return w.wrap(w.selectedText), nil
	}
	return nil, dynamicdata.UnknownProperty(id)
}

func (w *ChoiceFilter) wrap(value any) any {
	if w.cfg.SendAsArray {
		return []any{map[string]any{"value": value}}
	}
	return value
}

// Selection returns the selected key and text; absent values are nil.
func (w *ChoiceFilter) Selection() (key, text any) {
	return w.selectedKey, w.selectedText
}

// Options returns the options computed by the last render pass.
func (w *ChoiceFilter) Options() []Option {
	return append([]Option(nil), w.options...)
}

// Render recomputes the options and applies the selection policy: a
// selection no longer among the options is cleared, and without allowNone
// the first option is forced. A key seeded from the URL gets its text once
// the options carry it.
func (w *ChoiceFilter) Render() {
	needsConfig := w.cfg.needsConfiguration()
	if !w.subscribed && !needsConfig {
		for _, entry := range w.cfg.CascadingFilters {
			w.subscribe(entry)
		}
		w.subscribed = true
	}

	options := w.computeOptions(needsConfig)
	w.options = options

	// A seeded key waits for real options.
	if needsConfig || (w.cfg.listBacked() && w.loading) {
		return
	}

	if w.selectedKey != nil && indexOf(options, w.selectedKey) < 0 {
		w.selectedKey = nil
		w.selectedText = nil
		if w.cfg.AllowNone || len(options) == 0 {
			w.publish()
		}
	}
	if !w.cfg.AllowNone && w.selectedKey == nil && len(options) > 0 {
		w.selectedKey = options[0].Key
		w.selectedText = options[0].Text
		w.publish()
	}
	if w.selectedKey != nil && w.selectedText == nil {
		if i := indexOf(options, w.selectedKey); i >= 0 {
			w.selectedText = options[i].Text
			w.notify(PropFilterText)
		}
	}
}

// Select makes the option carrying key the selection.
func (w *ChoiceFilter) Select(key any) error {
	i := indexOf(w.options, key)
	if i < 0 {
		return fmt.Errorf("%w: %v", ErrUnknownOption, key)
	}
	w.selectedKey = w.options[i].Key
	w.selectedText = w.options[i].Text
	w.publish()
	w.Render()
	return nil
}

// Clear removes the selection. It fails unless allowNone is set.
func (w *ChoiceFilter) Clear() error {
	if !w.cfg.AllowNone {
		return ErrNoneNotAllowed
	}
	w.selectedKey = nil
	w.selectedText = nil
	w.publish()
	w.Render()
	return nil
}

// publish notifies dependents of the committed selection, then mirrors it.
func (w *ChoiceFilter) publish() {
	w.notify(PropFilterKey, PropFilterText)
	w.mirror.Sync(w.selectedKey)
}

func (w *ChoiceFilter) chain() filter.Chain {
	return filter.Chain{
		Entries:  w.cfg.CascadingFilters,
		Resolver: w.resolver(),
		Logger:   w.logger,
	}
}

func (w *ChoiceFilter) computeOptions(needsConfig bool) []Option {
	if !w.cfg.listBacked() {
		records := make([]filter.Record, 0, len(w.cfg.CustomChoices))
		for _, choice := range w.cfg.CustomChoices {
			records = append(records, choice.record())
		}
		kept := w.chain().Apply(records)
		options := make([]Option, 0, len(kept))
		for _, record := range kept {
			options = append(options, Option{Key: record["key"], Text: filter.String(record["text"])})
		}
		return options
	}

	if w.haveResults && !w.loading {
		kept := w.chain().Apply(w.results)
		options := make([]Option, 0, len(kept))
		for _, record := range kept {
			key, err := filter.Extract(w.cfg.KeyField, record)
			if err != nil {
				w.logger.Debug("option key unavailable", slog.String("field", w.cfg.KeyField), slog.Any("error", err))
			}
			text, err := filter.Extract(w.cfg.TextField, record)
			if err != nil {
				w.logger.Debug("option text unavailable", slog.String("field", w.cfg.TextField), slog.Any("error", err))
			}
			options = append(options, Option{Key: key, Text: cleanText(filter.String(text))})
		}
		return options
	}
	if !w.loading && !needsConfig && w.fetchErr == nil {
		w.fetch()
	}
	return nil
}

// fetch loads the view rows off the loop. A completion from a superseded
// fetch is dropped.
func (w *ChoiceFilter) fetch() {
	w.generation++
	gen := w.generation
	w.fetchErr = nil

	store := w.env.Store
	if store == nil {
		w.loading = false
		w.fetchErr = ErrNoStore
		w.logger.Error("Failed to load list choices", slog.Any("error", w.fetchErr))
		return
	}
	w.loading = true
	ctx := w.ctx
	query := liststore.Query{ListID: w.cfg.ListID, ViewQuery: w.cfg.ViewQuery, ViewFields: append([]string(nil), w.cfg.ViewFields...)}
	w.env.Scheduler.Go(func() func() {
		rows, err := store.Rows(ctx, query)
		return func() { w.finishFetch(gen, rows, err) }
	})
}

func (w *ChoiceFilter) finishFetch(gen int, rows []filter.Record, err error) {
	if gen != w.generation {
		w.logger.Debug("stale list rows dropped", slog.Int("generation", gen), slog.Int("current", w.generation))
		return
	}
	w.loading = false
	if err != nil {
		w.fetchErr = err
		w.logger.Error("Failed to load list choices", slog.String("list", w.cfg.ListID), slog.Any("error", err))
		w.Render()
		return
	}
	w.results = rows
	w.haveResults = true
	w.Render()
}

// dropResults forgets fetched rows and invalidates an in-flight fetch.
func (w *ChoiceFilter) dropResults() {
	w.results = nil
	w.haveResults = false
	w.loading = false
	w.fetchErr = nil
	w.generation++
}

func (w *ChoiceFilter) subscribe(entry filter.Entry) {
	if entry.Source == "" || entry.Prop == "" {
		return
	}
	if err := w.adapter.Subscribe(entry.Source, entry.Prop, w.Render); err != nil {
		w.logger.Warn("filter subscription failed",
			slog.String("source", entry.Source),
			slog.String("property", entry.Prop),
			slog.Any("error", err),
		)
	}
}

func (w *ChoiceFilter) unsubscribe(entry filter.Entry) {
	if entry.Source == "" || entry.Prop == "" {
		return
	}
	w.adapter.Unsubscribe(entry.Source, entry.Prop)
}

// State reports the lifecycle state.
func (w *ChoiceFilter) State() State {
	switch {
	case w.cfg.needsConfiguration():
		return StateUnconfigured
	case w.cfg.listBacked() && w.loading:
		return StateLoading
	case w.fetchErr != nil:
		return StateError
	default:
		return StateReady
	}
}

// View implements Widget.
func (w *ChoiceFilter) View() View {
	options := make([]Option, len(w.options))
	for i, opt := range w.options {
		opt.Selected = w.selectedKey != nil && filter.LooseEqual(opt.Key, w.selectedKey)
		options[i] = opt
	}
	view := View{
		ID:         w.id,
		Kind:       w.kind,
		Title:      w.cfg.Title,
		Label:      w.cfg.label(),
		State:      w.State(),
		Options:    options,
		Value:      w.selectedKey,
		QSKey:      w.mirror.Key(),
		Properties: propertyValues(w),
	}
	if w.selectedText != nil {
		view.Display = filter.String(w.selectedText)
	}
	if w.fetchErr != nil {
		view.Message = fmt.Sprintf("Failed to load list choices: %v", w.fetchErr)
	}
	return view
}

func indexOf(options []Option, key any) int {
	for i, opt := range options {
		if filter.LooseEqual(opt.Key, key) {
			return i
		}
	}
	return -1
}
