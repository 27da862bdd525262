// Package migrations embeds the Postgres schema migrations so the binary can
// apply them regardless of working directory.
package migrations

import "embed"

// FS holds every .sql file in this directory, applied in lexical order.
//
//go:embed *.sql
var FS embed.FS
