package index

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure-Go, CGO-free SQLite driver

	"github.com/bravo1goingdark/ucfp/pkg/ucfperr"
)

// SQLiteBackend is the on-disk Backend implementation: WAL-mode SQLite
// acting as the "on-disk LSM store" collaborator from §4.6. WAL mode's
// append-and-checkpoint write path is the closest match the pack offers to
// the spec's abstract LSM description.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLiteBackend opens (creating if needed) a single-table key/value
// store at path, tuned the way the teacher tunes its embedding store:
// WAL journal mode, NORMAL synchronous, a 5s busy timeout, and a small
// page cache.
func OpenSQLiteBackend(path string) (*SQLiteBackend, error) {
	const op = "index.OpenSQLiteBackend"

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_pragma=cache_size(-2000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, ucfperr.Wrap(op, ucfperr.KindBackend, fmt.Errorf("open database: %w", err))
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(2 * time.Hour)

	const schema = `
CREATE TABLE IF NOT EXISTS ucfp_records (
	canonical_hash TEXT PRIMARY KEY,
	value          BLOB NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		return nil, ucfperr.Wrap(op, ucfperr.KindBackend, fmt.Errorf("create table: %w", err))
	}

	return &SQLiteBackend{db: db}, nil
}

func (s *SQLiteBackend) Put(key string, value []byte) error {
	const op = "index.SQLiteBackend.Put"
	_, err := s.db.Exec(`INSERT INTO ucfp_records (canonical_hash, value) VALUES (?, ?)
		ON CONFLICT(canonical_hash) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return ucfperr.Wrap(op, ucfperr.KindBackend, err)
	}
	return nil
}

func (s *SQLiteBackend) Get(key string) ([]byte, bool, error) {
	const op = "index.SQLiteBackend.Get"
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM ucfp_records WHERE canonical_hash = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, ucfperr.Wrap(op, ucfperr.KindBackend, err)
	}
	return value, true, nil
}

func (s *SQLiteBackend) Delete(key string) error {
	const op = "index.SQLiteBackend.Delete"
	if _, err := s.db.Exec(`DELETE FROM ucfp_records WHERE canonical_hash = ?`, key); err != nil {
		return ucfperr.Wrap(op, ucfperr.KindBackend, err)
	}
	return nil
}

func (s *SQLiteBackend) BatchPut(entries map[string][]byte) error {
	const op = "index.SQLiteBackend.BatchPut"

	tx, err := s.db.Begin()
	if err != nil {
		return ucfperr.Wrap(op, ucfperr.KindBackend, fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare(`INSERT INTO ucfp_records (canonical_hash, value) VALUES (?, ?)
		ON CONFLICT(canonical_hash) DO UPDATE SET value = excluded.value`)
	if err != nil {
		return ucfperr.Wrap(op, ucfperr.KindBackend, fmt.Errorf("prepare: %w", err))
	}
	defer stmt.Close()

	for k, v := range entries {
		if _, err := stmt.Exec(k, v); err != nil {
			return ucfperr.Wrap(op, ucfperr.KindBackend, fmt.Errorf("insert %q: %w", k, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return ucfperr.Wrap(op, ucfperr.KindBackend, fmt.Errorf("commit: %w", err))
	}
	return nil
}

func (s *SQLiteBackend) Scan(visit func(key string, value []byte) error) error {
	const op = "index.SQLiteBackend.Scan"
	rows, err := s.db.Query(`SELECT canonical_hash, value FROM ucfp_records`)
	if err != nil {
		return ucfperr.Wrap(op, ucfperr.KindBackend, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return ucfperr.Wrap(op, ucfperr.KindBackend, err)
		}
		if err := visit(key, value); err != nil {
			return err
		}
	}
	return ucfperr.Wrap(op, ucfperr.KindBackend, rows.Err())
}

func (s *SQLiteBackend) Flush() error {
	const op = "index.SQLiteBackend.Flush"
	if _, err := s.db.Exec(`PRAGMA wal_checkpoint(PASSIVE);`); err != nil {
		return ucfperr.Wrap(op, ucfperr.KindBackend, err)
	}
	return nil
}

// Close releases the underlying database connections.
func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
