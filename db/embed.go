// Package db embeds the SQL schema applied at startup.
package db

import _ "embed"

// Schema holds the DDL for every table the store uses. It is idempotent
// (CREATE IF NOT EXISTS throughout) so it can run on every boot.
//
//go:embed migrations/001_schema.sql
var Schema string
