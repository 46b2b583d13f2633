// Package migrations embeds the SQL schema migrations for the promotion
// service. Files are applied in lexical order by database.RunMigrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
