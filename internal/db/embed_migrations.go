package db

import "embed"

// MigrationFS embeds the SQL migration files from internal/db/migrations,
// applied by the migrate runner behind cmd/migrate.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
