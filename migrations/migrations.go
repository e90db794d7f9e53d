// Package migrations exports the schema migration files as an embedded
// filesystem so they can be applied at startup and from tests.
package migrations

import "embed"

// FS holds the numbered up/down migration files.
//
//go:embed *.sql
var FS embed.FS
