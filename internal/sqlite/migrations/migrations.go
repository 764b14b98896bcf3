// Package migrations embeds the ordered schema migrations for the forms
// database. Goose applies them idempotently at startup.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
