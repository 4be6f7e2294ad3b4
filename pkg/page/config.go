package page

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-filterpack/pkg/widgets"
)

// Config describes one page: its widgets in declaration order and the
// address the page opens at.
type Config struct {
	Title       string
	URL         string
	CurrentUser string
	Widgets     []widgets.Spec
	Source      string
}

// Widget returns the entry with id.
func (c Config) Widget(id string) (widgets.Spec, bool) {
	for _, spec := range c.Widgets {
		if spec.ID == id {
			return spec, true
		}
	}
	return widgets.Spec{}, false
}

type configFile struct {
	Title       string           `json:"title" yaml:"title"`
	URL         string           `json:"url" yaml:"url"`
	CurrentUser string           `json:"currentUser" yaml:"currentUser"`
	Widgets     []map[string]any `json:"widgets" yaml:"widgets"`
}

// Load reads a page configuration from path.
func Load(path string) (Config, error) {
	return LoadFS(os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

// LoadFS reads a page configuration from fsys. JSON files are decoded as
// JSON and everything else as YAML.
func LoadFS(fsys fs.FS, path string) (Config, error) {
	if fsys == nil {
		return Config{}, fmt.Errorf("page: nil filesystem for %s", path)
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return Config{}, fmt.Errorf("page: read %s: %w", path, err)
	}
	return Parse(path, data)
}

// Parse decodes a page configuration. name picks the format and qualifies
// errors.
func Parse(name string, data []byte) (Config, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Config{}, fmt.Errorf("page: file %s is empty", name)
	}

	var raw configFile
	if strings.EqualFold(filepath.Ext(name), ".json") {
		if err := json.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("page: parse %s: %w", name, err)
		}
	} else if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("page: parse %s: %w", name, err)
	}
	return normalise(raw, name)
}

func normalise(raw configFile, source string) (Config, error) {
	cfg := Config{
		Title:       strings.TrimSpace(raw.Title),
		URL:         strings.TrimSpace(raw.URL),
		CurrentUser: strings.TrimSpace(raw.CurrentUser),
		Source:      source,
		Widgets:     make([]widgets.Spec, 0, len(raw.Widgets)),
	}
	if len(raw.Widgets) == 0 {
		return Config{}, fmt.Errorf("page: file %s defines no widgets", source)
	}

	seen := make(map[string]struct{}, len(raw.Widgets))
	for idx, entry := range raw.Widgets {
		spec, err := normaliseWidget(entry)
		if err != nil {
			return Config{}, fmt.Errorf("page: file %s widget %d: %w", source, idx, err)
		}
		if _, exists := seen[spec.ID]; exists {
			return Config{}, fmt.Errorf("page: file %s defines duplicate widget id %q", source, spec.ID)
		}
		seen[spec.ID] = struct{}{}
		cfg.Widgets = append(cfg.Widgets, spec)
	}
	return cfg, nil
}

func normaliseWidget(entry map[string]any) (widgets.Spec, error) {
	var spec widgets.Spec
	for key, value := range entry {
		switch key {
		case "id":
			id, ok := value.(string)
			if !ok {
				return spec, fmt.Errorf("id must be a string, got %T", value)
			}
			spec.ID = strings.TrimSpace(id)
		case "type":
			kind, ok := value.(string)
			if !ok {
				return spec, fmt.Errorf("type must be a string, got %T", value)
			}
			spec.Type = strings.TrimSpace(kind)
		default:
			if spec.Options == nil {
				spec.Options = make(map[string]any, len(entry))
			}
			spec.Options[key] = value
		}
	}
	if spec.ID == "" {
		return spec, errors.New("missing id")
	}
	return spec, nil
}
