// Package orchestrator wires the page pipeline (load config, open and settle
// a page session, apply assignments, decorate the snapshot, render) behind a
// single entry point.
package orchestrator
