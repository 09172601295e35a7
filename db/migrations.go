package db

import "embed"

// Migrations holds the PostgreSQL schema, applied with golang-migrate at startup.
//
//go:embed migrations/*.sql
var Migrations embed.FS
