package migrations_test

import (
	"context"
	"database/sql"
	"io/fs"
	"sort"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	authz "github.com/goliatone/go-campus-authz"
	"github.com/goliatone/go-campus-authz/migrations"
)

func TestMigrationsFSPairsDialects(t *testing.T) {
	t.Parallel()

	ups, err := fs.Glob(authz.MigrationsFS, "data/sql/migrations/*.up.sql")
	require.NoError(t, err)
	require.Len(t, ups, 5)
	for _, up := range ups {
		name := strings.TrimPrefix(up, "data/sql/migrations/")
		down := strings.TrimSuffix(name, ".up.sql") + ".down.sql"
		for _, path := range []string{
			"data/sql/migrations/" + down,
			"data/sql/migrations/sqlite/" + name,
			"data/sql/migrations/sqlite/" + down,
		} {
			_, err := fs.Stat(authz.MigrationsFS, path)
			require.NoError(t, err, path)
		}
	}
}

func TestMigrationsApplyToSQLite(t *testing.T) {
	t.Parallel()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = db.Close()
	})

	ctx := context.Background()
	filesystems := migrations.Filesystems()
	require.NotEmpty(t, filesystems)
	for _, fsys := range filesystems {
		require.NoError(t, applyFilesystem(ctx, db, fsys, "sqlite/*.up.sql"))
	}

	var tableName string
	require.NoError(t, db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='rooms'").Scan(&tableName))
	require.Equal(t, "rooms", tableName)

	require.NoError(t, migrations.ValidateSchema(ctx, db, "sqlite"))
}

func TestMigrationsDownReverseCleanly(t *testing.T) {
	t.Parallel()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = db.Close()
	})

	ctx := context.Background()
	for _, fsys := range migrations.Filesystems() {
		require.NoError(t, applyFilesystem(ctx, db, fsys, "sqlite/*.up.sql"))
		require.NoError(t, applyFilesystemReverse(ctx, db, fsys, "sqlite/*.down.sql"))
	}

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table'").Scan(&count))
	require.Zero(t, count)
}

func TestValidateSchemaReportsMissingTables(t *testing.T) {
	t.Parallel()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = db.Close()
	})

	ctx := context.Background()
	_, err = db.ExecContext(ctx, "CREATE TABLE rooms (id TEXT PRIMARY KEY, name TEXT)")
	require.NoError(t, err)

	err = migrations.ValidateSchema(ctx, db, "sqlite", migrations.WithSchemaChecks([]migrations.SchemaCheck{
		{Table: "rooms", Columns: []string{"id", "building_id", "name"}},
		migrations.DecisionLogCheck,
	}))
	var validation *migrations.SchemaValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, []string{"authz_decisions"}, validation.MissingTables)
	require.Equal(t, []string{"building_id"}, validation.MissingColumns["rooms"])

	require.Error(t, migrations.ValidateSchema(ctx, db, "oracle"))
}

func applyFilesystem(ctx context.Context, db *sql.DB, filesystem fs.FS, pattern string) error {
	entries, err := fs.Glob(filesystem, pattern)
	if err != nil {
		return err
	}
	sort.Strings(entries)
	return applyEntries(ctx, db, filesystem, entries)
}

func applyFilesystemReverse(ctx context.Context, db *sql.DB, filesystem fs.FS, pattern string) error {
	entries, err := fs.Glob(filesystem, pattern)
	if err != nil {
		return err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(entries)))
	return applyEntries(ctx, db, filesystem, entries)
}

func applyEntries(ctx context.Context, db *sql.DB, filesystem fs.FS, entries []string) error {
	for _, entry := range entries {
		sqlBytes, err := fs.ReadFile(filesystem, entry)
		if err != nil {
			return err
		}
		for _, stmt := range splitStatements(string(sqlBytes)) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
	}
	return nil
}

func splitStatements(sql string) []string {
	parts := strings.Split(sql, ";")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" && !onlyComments(part) {
			out = append(out, part)
		}
	}
	return out
}

func onlyComments(stmt string) bool {
	for _, line := range strings.Split(stmt, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return false
		}
	}
	return true
}
