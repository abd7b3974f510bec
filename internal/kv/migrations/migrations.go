// Package migrations embeds the goose migrations of the local settings database.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
