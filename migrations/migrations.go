// Package migrations embeds the SQL schema applied at startup and by
// integration tests.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
