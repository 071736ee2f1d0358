// Package watch re-runs a task whenever files matching a set of glob
// patterns change. Events are debounced so that an editor saving several
// files at once produces a single run.
package watch
