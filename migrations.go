package authz

import "embed"

// MigrationsFS contains SQL migrations for both PostgreSQL and SQLite.
//
// The migrations are organized in a dialect-aware structure:
//   - Root files (data/sql/migrations/*.sql) contain PostgreSQL migrations
//   - SQLite overrides are in data/sql/migrations/sqlite/*.sql
//
// The go-persistence-bun loader selects the correct files based on the
// database dialect being used.
//
// Usage:
//
//	import "io/fs"
//	import authz "github.com/goliatone/go-campus-authz"
//	import persistence "github.com/goliatone/go-persistence-bun"
//
//	migrationsFS, _ := fs.Sub(authz.MigrationsFS, "data/sql/migrations")
//	client.RegisterDialectMigrations(
//	    migrationsFS,
//	    persistence.WithDialectSourceLabel("."),
//	    persistence.WithValidationTargets("postgres", "sqlite"),
//	)
//
// The academic tables, the role profile tables (with the users credential
// table they cascade to) and the decision log are all included.
//
//go:embed data/sql/migrations
var MigrationsFS embed.FS
