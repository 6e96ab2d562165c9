// Package migrations embeds the SQL schema migrations of the PostgreSQL
// library store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
