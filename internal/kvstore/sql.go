package kvstore

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// SQLStore persists snapshots in a two-column key/value table so console
// preferences survive across hosts. Works against postgres ("postgres"
// driver via lib/pq) and mysql.
type SQLStore struct {
	db       *sql.DB
	table    string
	postgres bool
}

// OpenSQLStore opens a database/sql connection for the given driver
// ("postgres" or "mysql") and ensures the storage table exists.
func OpenSQLStore(driver, dsn, table string) (*SQLStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", driver, err)
	}
	s := &SQLStore{db: db, table: table, postgres: driver == "postgres"}
	if err := s.ensureTable(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an existing connection. The table must already exist or
// be creatable by the connection's user.
func NewSQLStore(db *sql.DB, table string, postgres bool) (*SQLStore, error) {
	s := &SQLStore{db: db, table: table, postgres: postgres}
	if err := s.ensureTable(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) ensureTable() error {
	ddl := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (k VARCHAR(255) PRIMARY KEY, v TEXT NOT NULL)", s.table)
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("failed to create kvstore table: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(key string) ([]byte, error) {
	query := fmt.Sprintf("SELECT v FROM %s WHERE k = ?", s.table)
	if s.postgres {
		query = fmt.Sprintf("SELECT v FROM %s WHERE k = $1", s.table)
	}
	var value []byte
	err := s.db.QueryRow(query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLStore) Set(key string, value []byte) error {
	var query string
	if s.postgres {
		query = fmt.Sprintf(
			"INSERT INTO %s (k, v) VALUES ($1, $2) ON CONFLICT (k) DO UPDATE SET v = EXCLUDED.v", s.table)
	} else {
		query = fmt.Sprintf(
			"INSERT INTO %s (k, v) VALUES (?, ?) ON DUPLICATE KEY UPDATE v = VALUES(v)", s.table)
	}
	if _, err := s.db.Exec(query, key, string(value)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(key string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE k = ?", s.table)
	if s.postgres {
		query = fmt.Sprintf("DELETE FROM %s WHERE k = $1", s.table)
	}
	if _, err := s.db.Exec(query, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying connection.
func (s *SQLStore) Close() error { return s.db.Close() }
