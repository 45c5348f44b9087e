// Package db embeds the schema migrations applied by pkg/db.RunMigrations.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS

const MigrationsDir = "migrations"
