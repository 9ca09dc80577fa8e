// Package migrations provides embedded migration SQL files.
// Migrations run automatically on server startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
