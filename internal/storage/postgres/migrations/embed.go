// Package migrations holds the schema as golang-migrate SQL files.
package migrations

import "embed"

// FS contains every *.sql migration, compiled into the binary.
//
//go:embed *.sql
var FS embed.FS
