// Package assets copies static files into the build tree and removes
// previous build output.
package assets
