// Package cli implements the swlic command line: serve, check, resolve and
// version.
package cli
