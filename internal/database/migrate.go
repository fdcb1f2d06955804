package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Migrate creates the tables when they do not exist yet.  The DDL is
// idempotent, so running it on every start is safe.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	raw, err := schemaFS.ReadFile("schema/" + string(d) + ".sql")
	if err != nil {
		return fmt.Errorf("schema for %s: %w", d, err)
	}
	// one statement per Exec: the MySQL driver rejects batches unless
	// multiStatements is enabled on the DSN
	for _, stmt := range strings.Split(string(raw), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
