// Package pongo renders widget views through pongo2 templates.
package pongo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-filterpack/pkg/render/template"
)

// ErrFilterExists reports a filter name pongo2 already knows. Filters live
// in a single pongo2 registry shared by all engines.
var ErrFilterExists = errors.New("pongo: filter already registered")

var errNilEngine = errors.New("pongo: engine is nil")

// Option adjusts engine settings.
type Option func(*settings)

type settings struct {
	dir     string
	files   fs.FS
	ext     string
	globals map[string]any
}

// WithBaseDir reads templates from dir.
func WithBaseDir(dir string) Option {
	return func(s *settings) { s.dir = strings.TrimSpace(dir) }
}

// WithFS reads templates from files. A base dir, when also set, is tried
// first.
func WithFS(files fs.FS) Option {
	return func(s *settings) { s.files = files }
}

// WithExtension sets the suffix added to bare template names. Default .tmpl.
func WithExtension(ext string) Option {
	return func(s *settings) {
		ext = strings.TrimSpace(ext)
		switch {
		case ext == "":
		case strings.HasPrefix(ext, "."):
			s.ext = ext
		default:
			s.ext = "." + ext
		}
	}
}

// WithGlobalData adds values visible to every template.
func WithGlobalData(data map[string]any) Option {
	return func(s *settings) {
		for key, value := range data {
			if s.globals == nil {
				s.globals = make(map[string]any, len(data))
			}
			s.globals[strings.TrimSpace(key)] = value
		}
	}
}

// Engine is a pongo2 template set with compiled templates kept by path.
type Engine struct {
	mu sync.RWMutex

	set      *pongo2.TemplateSet
	compiled map[string]*pongo2.Template
	ext      string
}

var _ template.TemplateRenderer = (*Engine)(nil)

// New returns an engine reading from WithBaseDir, WithFS or both.
func New(options ...Option) (*Engine, error) {
	s := settings{ext: ".tmpl"}
	for _, opt := range options {
		if opt != nil {
			opt(&s)
		}
	}

	var loaders []pongo2.TemplateLoader
	if s.dir != "" {
		local, err := pongo2.NewLocalFileSystemLoader(s.dir)
		if err != nil {
			return nil, fmt.Errorf("pongo: template dir %q: %w", s.dir, err)
		}
		loaders = append(loaders, local)
	}
	if s.files != nil {
		loaders = append(loaders, pongo2.NewFSLoader(s.files))
	}
	if len(loaders) == 0 {
		return nil, errors.New("pongo: no template source, use WithBaseDir or WithFS")
	}

	registerBuiltinFilters()
	e := &Engine{
		set:      pongo2.NewSet("filterpack", loaders...),
		compiled: map[string]*pongo2.Template{},
		ext:      s.ext,
	}
	if s.globals != nil {
		if err := e.GlobalContext(s.globals); err != nil {
			return nil, fmt.Errorf("pongo: global data: %w", err)
		}
	}
	return e, nil
}

// RenderTemplate renders the named template, adding the extension to bare
// names, and copies the result to out.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.set == nil {
		return "", errNilEngine
	}
	path := e.pathFor(name)
	tmpl, err := e.template(path)
	if err != nil {
		return "", err
	}
	return e.execute(tmpl, data, path, out)
}

// RenderString renders an inline template.
func (e *Engine) RenderString(templateContent string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.set == nil {
		return "", errNilEngine
	}
	tmpl, err := e.set.FromString(templateContent)
	if err != nil {
		return "", fmt.Errorf("pongo: parse inline template: %w", err)
	}
	return e.execute(tmpl, data, "inline", out)
}

// RegisterFilter makes fn available as {{ value|name:param }}.
func (e *Engine) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	if name = strings.TrimSpace(name); name == "" || fn == nil {
		return errors.New("pongo: filter needs a name and a function")
	}
	if pongo2.FilterExists(name) {
		return fmt.Errorf("%w: %q", ErrFilterExists, name)
	}
	return pongo2.RegisterFilter(name, func(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var arg any
		if param != nil {
			arg = param.Interface()
		}
		got, err := fn(in.Interface(), arg)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(got), nil
	})
}

// GlobalContext adds data to the set globals. Later keys win.
func (e *Engine) GlobalContext(data any) error {
	if e == nil || e.set == nil {
		return errNilEngine
	}
	if data == nil {
		return nil
	}
	globals, err := toContext(data)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.set.Globals == nil {
		e.set.Globals = pongo2.Context{}
	}
	e.set.Globals.Update(globals)
	return nil
}

func (e *Engine) pathFor(name string) string {
	if strings.HasSuffix(name, e.ext) {
		return name
	}
	return name + e.ext
}

func (e *Engine) template(path string) (*pongo2.Template, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if tmpl := e.compiled[path]; tmpl != nil {
		return tmpl, nil
	}
	tmpl, err := e.set.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("pongo: template %q: %w", path, err)
	}
	e.compiled[path] = tmpl
	return tmpl, nil
}

func (e *Engine) execute(tmpl *pongo2.Template, data any, label string, out []io.Writer) (string, error) {
	ctx, err := toContext(data)
	if err != nil {
		return "", fmt.Errorf("pongo: %s data: %w", label, err)
	}

	var buf bytes.Buffer
	e.mu.RLock()
	err = tmpl.ExecuteWriter(ctx, &buf)
	e.mu.RUnlock()
	if err != nil {
		return "", fmt.Errorf("pongo: render %s: %w", label, err)
	}

	for _, w := range out {
		if _, err := w.Write(buf.Bytes()); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// toContext flattens data to JSON-shaped values. Struct fields appear under
// their json names.
func toContext(data any) (pongo2.Context, error) {
	if data == nil {
		return pongo2.Context{}, nil
	}
	if ctx, ok := data.(pongo2.Context); ok {
		return ctx, nil
	}
	if m, ok := data.(map[string]any); ok {
		ctx := make(pongo2.Context, len(m))
		for key, value := range m {
			if key = strings.TrimSpace(key); key == "" {
				continue
			}
			v, err := jsonShaped(value)
			if err != nil {
				return nil, err
			}
			ctx[key] = v
		}
		return ctx, nil
	}

	v, err := jsonShaped(data)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("pongo: template data must be an object, got %T", data)
	}
	return pongo2.Context(m), nil
}

func jsonShaped(value any) (any, error) {
	switch value.(type) {
	case nil, string, bool, int, int64, float64:
		return value, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	err = json.Unmarshal(raw, &out)
	return out, err
}

func registerBuiltinFilters() {
	if pongo2.FilterExists("trim") {
		return
	}
	_ = pongo2.RegisterFilter("trim", func(in, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		return pongo2.AsValue(strings.TrimSpace(in.String())), nil
	})
}
