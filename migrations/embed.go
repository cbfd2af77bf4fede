// Package migrations embeds the SQL schema migrations applied at startup.
package migrations

import "embed"

// FS exposes the embedded migration files to the iofs source driver.
//
//go:embed *.sql
var FS embed.FS
