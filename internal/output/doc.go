// Package output provides destinations for generated build artifacts.
//
// Writers implement the [Writer] interface: [StdoutWriter] streams an
// artifact to a terminal or pipe, [FileWriter] writes it to disk and creates
// parent directories on demand.
package output
