package storage

import (
	"database/sql"
	"fmt"
)

// Schema version tracking
const currentSchemaVersion = 1

// initializeSchema creates all tables for a new database
func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		if err := createSchemaVersionTable(tx); err != nil {
			return err
		}
		if err := createSymbolTables(tx); err != nil {
			return err
		}
		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}
		db.logger.Debug("Search schema initialized", "version", currentSchemaVersion)
		return nil
	})
}

// runMigrations recreates the symbol tables when the stored schema is older
// than the code. The cache is derived data, so nothing is carried over.
func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}
	if version == currentSchemaVersion {
		return nil
	}

	db.logger.Info("Rebuilding search schema",
		"from_version", version,
		"to_version", currentSchemaVersion,
	)
	return db.WithTx(func(tx *sql.Tx) error {
		for _, stmt := range []string{
			"DROP TABLE IF EXISTS symbols_fts",
			"DROP TABLE IF EXISTS symbols",
		} {
			if _, err := tx.Exec(stmt); err != nil {
				return err
			}
		}
		if err := createSchemaVersionTable(tx); err != nil {
			return err
		}
		if err := createSymbolTables(tx); err != nil {
			return err
		}
		return setSchemaVersion(tx, currentSchemaVersion)
	})
}

func (db *DB) getSchemaVersion() (int, error) {
	var tableName string
	err := db.conn.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return version, err
}

func setSchemaVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

func createSchemaVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	return err
}

// createSymbolTables creates the symbol content table and its external
// content FTS5 index.
func createSymbolTables(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS symbols (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			file_path TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create symbols table: %w", err)
	}

	if _, err := tx.Exec("CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind)"); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	_, err = tx.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS symbols_fts USING fts5(
			name,
			file_path,
			content='symbols',
			content_rowid='rowid'
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create symbols_fts table: %w", err)
	}
	return nil
}
