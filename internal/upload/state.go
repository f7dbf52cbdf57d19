package upload

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const stateSchema = `CREATE TABLE IF NOT EXISTS imported_exports (
	path        TEXT PRIMARY KEY,
	hash        TEXT NOT NULL,
	sessions    INTEGER NOT NULL DEFAULT 0,
	exp_awarded INTEGER NOT NULL DEFAULT 0,
	imported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

// StateDB remembers which export files were imported, keyed by path and
// content hash, so a re-run only sends new or changed exports.
type StateDB struct {
	db *sql.DB
}

// OpenStateDB opens (or creates) dir/state.db.
func OpenStateDB(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, "state.db"))
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}
	if _, err := db.Exec(stateSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state table: %w", err)
	}
	return &StateDB{db: db}, nil
}

// IsImported reports whether relPath was imported with this exact content.
func (s *StateDB) IsImported(relPath, hash string) (bool, error) {
	var stored string
	err := s.db.QueryRow(`SELECT hash FROM imported_exports WHERE path = ?`, relPath).Scan(&stored)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", relPath, err)
	}
	return stored == hash, nil
}

// MarkImported records a successful import. A changed file replaces its
// earlier row.
func (s *StateDB) MarkImported(relPath, hash string, sessions, exp int) error {
	_, err := s.db.Exec(`
		INSERT INTO imported_exports (path, hash, sessions, exp_awarded) VALUES (?, ?, ?, ?)
		ON CONFLICT (path) DO UPDATE SET
			hash = excluded.hash,
			sessions = excluded.sessions,
			exp_awarded = excluded.exp_awarded,
			imported_at = CURRENT_TIMESTAMP`,
		relPath, hash, sessions, exp)
	if err != nil {
		return fmt.Errorf("marking %s: %w", relPath, err)
	}
	return nil
}

// Close closes the state database.
func (s *StateDB) Close() error {
	return s.db.Close()
}

// digest is the hex SHA-256 of an export's content.
func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
