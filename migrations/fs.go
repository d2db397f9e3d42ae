// Package migrations embeds the goose SQL migrations applied by songctl and
// the API on startup.
package migrations

import "embed"

// FS holds every *.sql migration in this directory.
//
//go:embed *.sql
var FS embed.FS
