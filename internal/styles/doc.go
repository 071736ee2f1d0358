// Package styles compiles the application's Sass entry point into a single
// vendor-prefixed stylesheet.
//
// Compilation is delegated to Dart Sass through its embedded protocol, and
// prefixing to esbuild's CSS transform configured with target engines
// derived from the project's browser list.
package styles
