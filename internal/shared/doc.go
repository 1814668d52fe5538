// Package shared holds code used across SWLic packages that belongs to no
// single layer. The testutil subpackage provides fixtures, a portal stub and
// a log-capturing slog handler for tests.
package shared
