// Package migrations embeds the SQL schema for the Postgres revocation
// store, applied with goose.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
