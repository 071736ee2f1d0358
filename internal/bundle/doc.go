// Package bundle drives the JavaScript bundler. An [Orchestrator] builds a
// bundler from a [Config], runs it once or in continuous watch mode, prints
// statistics after every pass and signals completion of the first pass
// exactly once per invocation.
package bundle
