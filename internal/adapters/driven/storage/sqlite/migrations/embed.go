// Package migrations holds the SQLite schema: documents, cached judgments and
// the dish graph, applied in file name order.
package migrations

import "embed"

// FS holds the up and down migration files.
//
//go:embed *.sql
var FS embed.FS
