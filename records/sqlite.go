package records

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	_ "github.com/mattn/go-sqlite3"
)

// DatabaseFile is the name of the SQLite file inside the data directory.
const DatabaseFile = "library.db"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SQLiteStore keeps every resource in one SQLite database. Each record is a
// row keyed by (resource, position) whose fields are stored as a JSON array.
// Save and SaveAll run inside a single SQL transaction, so a multi-resource
// write is all-or-nothing.
type SQLiteStore struct {
	db *sql.DB

	insertStmt *sql.Stmt
	deleteStmt *sql.Stmt
}

// NewSQLiteStore opens (or creates) the database in dir, applies schema
// migrations, and prepares common statements.
func NewSQLiteStore(dir string) (*SQLiteStore, error) {
	// Ensure directory exists so first-run succeeds.
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	return openSQLite(filepath.Join(dir, DatabaseFile))
}

func openSQLite(dbPath string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases prepared statements and closes the DB.
func (s *SQLiteStore) Close() error {
	if s.insertStmt != nil {
		s.insertStmt.Close()
	}
	if s.deleteStmt != nil {
		s.deleteStmt.Close()
	}
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	// WAL keeps readers unblocked while a save commits.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	err := db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read schema version: %w", err)
	}
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS records (
            resource TEXT NOT NULL,
            position INTEGER NOT NULL,
            fields TEXT NOT NULL,
            PRIMARY KEY (resource, position)
        );`); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (s *SQLiteStore) prepareStatements() error {
	var err error
	if s.insertStmt, err = s.db.Prepare(`INSERT INTO records(resource,position,fields) VALUES(?,?,?)`); err != nil {
		return err
	}
	if s.deleteStmt, err = s.db.Prepare(`DELETE FROM records WHERE resource=?`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Store implementation
// ---------------------------------------------------------------------------

func (s *SQLiteStore) Load(schema Schema) ([]Record, error) {
	rows, err := s.db.Query(`SELECT fields FROM records WHERE resource=? ORDER BY position`, schema.Name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", schema.Name, err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var rec Record
		if err := json.UnmarshalFromString(raw, &rec); err != nil {
			return nil, fmt.Errorf("%s record %d: %v: %w", schema.Name, len(out)+1, err, ErrMalformedRecord)
		}
		if len(rec) != schema.Arity() {
			return nil, fmt.Errorf("%s record %d: want %d fields, got %d: %w",
				schema.Name, len(out)+1, schema.Arity(), len(rec), ErrMalformedRecord)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Save(schema Schema, records []Record) error {
	return s.SaveAll(Snapshot{Schema: schema, Records: records})
}

// SaveAll replaces every snapshot's resource in one transaction.
func (s *SQLiteStore) SaveAll(snapshots ...Snapshot) error {
	for _, snap := range snapshots {
		if err := snap.Schema.check(snap.Records); err != nil {
			return err
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	del := tx.Stmt(s.deleteStmt)
	ins := tx.Stmt(s.insertStmt)
	for _, snap := range snapshots {
		if _, err := del.Exec(snap.Schema.Name); err != nil {
			return fmt.Errorf("clear %s: %w", snap.Schema.Name, err)
		}
		for i, rec := range snap.Records {
			raw, err := json.MarshalToString(rec)
			if err != nil {
				return err
			}
			if _, err := ins.Exec(snap.Schema.Name, i, raw); err != nil {
				return fmt.Errorf("save %s: %w", snap.Schema.Name, err)
			}
		}
	}
	return tx.Commit()
}
