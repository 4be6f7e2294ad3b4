package template

import (
	"io"
)

// TemplateRenderer is the engine contract renderers rely on. Every render
// call returns the output and also writes it to each of out.
type TemplateRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}
