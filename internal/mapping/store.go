package mapping

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

const mappingTableName = "column_mappings"

const createMappingsTable = `
CREATE TABLE IF NOT EXISTS column_mappings (
	source        TEXT    NOT NULL,
	target_table  TEXT    NOT NULL,
	target_column TEXT    NOT NULL,
	position      INTEGER NOT NULL,
	PRIMARY KEY (source, target_table, target_column)
)`

const createMappingsIndex = `CREATE INDEX IF NOT EXISTS idx_column_mappings_source ON column_mappings(source, position)`

// Store persists a mapping table in SQLite.
type Store struct {
	db    *sql.DB
	owned bool
}

// OpenStore opens (or creates) the SQLite database at path and ensures the schema.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mapping store %s: %w", path, err)
	}

	s := &Store{db: db, owned: true}
	if err := s.CreateSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// NewStore wraps an existing connection. The caller keeps ownership of db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the database if the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}

	return s.db.Close()
}

// CreateSchema creates the mapping table and its index.
func (s *Store) CreateSchema() error {
	for _, ddl := range []string{createMappingsTable, createMappingsIndex} {
		if _, err := s.db.Exec(ddl); err != nil {
			return fmt.Errorf("failed to create mapping schema: %w", err)
		}
	}

	return nil
}

// Save replaces the stored rows with the contents of t in a single transaction.
func (s *Store) Save(t *Table) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	if _, err := sq.Delete(mappingTableName).RunWith(tx).Exec(); err != nil {
		return fmt.Errorf("failed to clear mappings: %w", err)
	}

	for _, key := range t.Keys() {
		for pos, c := range t.Lookup(key) {
			_, err := sq.Insert(mappingTableName).
				Columns("source", "target_table", "target_column", "position").
				Values(key, c.Table, c.Column, pos).
				RunWith(tx).
				Exec()
			if err != nil {
				return fmt.Errorf("failed to write mapping for %s: %w", key, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit mappings: %w", err)
	}

	return nil
}

// Load reads every stored mapping. Keys come back sorted, candidates by position.
func (s *Store) Load() (*Table, error) {
	rows, err := sq.Select("source", "target_table", "target_column").
		From(mappingTableName).
		OrderBy("source", "position").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query mappings: %w", err)
	}
	defer rows.Close()

	t := NewTable()

	for rows.Next() {
		var source string

		var c Candidate

		if err := rows.Scan(&source, &c.Table, &c.Column); err != nil {
			return nil, fmt.Errorf("failed to scan mapping row: %w", err)
		}

		t.Add(source, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mappings: %w", err)
	}

	return t, nil
}

// Lookup queries the candidates for a single source without loading the table.
func (s *Store) Lookup(source string) ([]Candidate, error) {
	rows, err := sq.Select("target_table", "target_column").
		From(mappingTableName).
		Where(sq.Eq{"source": NormalizeKey(source)}).
		OrderBy("position").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query mapping for %s: %w", source, err)
	}
	defer rows.Close()

	var out []Candidate

	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.Table, &c.Column); err != nil {
			return nil, fmt.Errorf("failed to scan mapping row: %w", err)
		}

		out = append(out, c)
	}

	return out, rows.Err()
}
