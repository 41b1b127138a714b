// Package shared holds helpers used by several packages that belong to no
// single layer. Its testutil subpackage provides a capturing slog handler
// and retail dataset fixtures for tests.
package shared
