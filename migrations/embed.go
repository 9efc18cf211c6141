// Package migrations embeds the goose SQL migrations for the trip store so
// the API server can apply them at startup and integration tests can apply
// them before running.
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
