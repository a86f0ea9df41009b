package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// EnsureDatabase creates dbname on the server reached by adminDSN unless it
// already exists. adminDSN must point at a database that always exists,
// usually "postgres".
func EnsureDatabase(ctx context.Context, adminDSN, dbname string) error {
	db, err := sql.Open("postgres", adminDSN)
	if err != nil {
		return fmt.Errorf("open admin connection: %w", err)
	}
	defer db.Close()

	var exists bool
	err = db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`, dbname,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("look up database %q: %w", dbname, err)
	}
	if exists {
		return nil
	}

	// CREATE DATABASE takes no bind parameters.
	if _, err := db.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(dbname)); err != nil {
		return fmt.Errorf("create database %q: %w", dbname, err)
	}
	return nil
}
