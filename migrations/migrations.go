// Package migrations embeds goose SQL migrations for the buildmat schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
