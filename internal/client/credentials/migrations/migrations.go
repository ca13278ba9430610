// Package migrations embeds the sqlite schema for the local credential store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
