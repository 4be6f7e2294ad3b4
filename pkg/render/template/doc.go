// Package template defines the template engine seam the HTML renderer
// depends on. The pongo subpackage provides the pongo2-backed engine.
package template
