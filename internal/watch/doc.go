// Package watch re-renders a page whenever its configuration or list
// fixture changes on disk. Bursts of file events are coalesced by a
// debouncer so an editor save triggers a single render.
package watch
