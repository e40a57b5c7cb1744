package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type dialect struct {
	postgres bool
}

func (d dialect) blob() string {
	if d.postgres {
		return "BYTEA"
	}
	return "BLOB"
}

func (d dialect) timestamp() string {
	if d.postgres {
		return "TIMESTAMPTZ"
	}
	return "TIMESTAMP"
}

type migration struct {
	version int
	name    string
	up      func(context.Context, *sql.Tx, dialect) error
}

// Migrate brings the schema up to date. Each migration runs once in
// its own transaction and is recorded in schema_migrations.
func (db *DB) Migrate(ctx context.Context) error {
	if err := db.createMigrationsTable(ctx); err != nil {
		return err
	}

	migrations := []migration{
		{version: 1, name: "initial_schema", up: migrateV1},
	}

	for _, m := range migrations {
		if err := db.runMigration(ctx, m); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.name, err)
		}
	}

	db.logger.Info("database schema up to date")
	return nil
}

func (db *DB) createMigrationsTable(ctx context.Context) error {
	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at %s NOT NULL
	)`, dialect{db.postgres()}.timestamp())
	_, err := db.ExecContext(ctx, query)
	return err
}

func (db *DB) runMigration(ctx context.Context, m migration) error {
	var count int
	err := db.QueryRowContext(ctx,
		db.rebind("SELECT COUNT(*) FROM schema_migrations WHERE version = ?"), m.version).Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := m.up(ctx, tx, dialect{db.postgres()}); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		db.rebind("INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)"),
		m.version, m.name, time.Now().UTC())
	if err != nil {
		return err
	}

	return tx.Commit()
}

func migrateV1(ctx context.Context, tx *sql.Tx, d dialect) error {
	queries := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			source_path TEXT NOT NULL,
			content_hash %s NOT NULL,
			filename TEXT NOT NULL,
			file_ext TEXT NOT NULL,
			file_size INTEGER NOT NULL,
			uploaded_at %s NOT NULL,
			UNIQUE(content_hash)
		)`, d.blob(), d.timestamp()),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS parse_jobs (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			format TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at %s NOT NULL,
			finished_at %s,
			error_message TEXT,
			text_method TEXT,
			page_text TEXT,
			page_count INTEGER NOT NULL DEFAULT 0,
			employee_count INTEGER NOT NULL DEFAULT 0,
			result_json TEXT,
			FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
		)`, d.timestamp(), d.timestamp()),

		`CREATE INDEX IF NOT EXISTS idx_documents_uploaded ON documents(uploaded_at)`,
		`CREATE INDEX IF NOT EXISTS idx_parse_jobs_document ON parse_jobs(document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_parse_jobs_status ON parse_jobs(status)`,
	}

	for _, query := range queries {
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w\nQuery: %s", err, query)
		}
	}
	return nil
}
