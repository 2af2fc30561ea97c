// Package store is the sqlite-backed persistence layer hinted at by spec §5's
// "process-wide tables": a Backend that survives across CLI invocations,
// storing a compiled module's serialized output (cmd/funxy stores the
// lowered IR JSON) by module path + a content hash of its source. Get
// reads an entry back; the CLI only writes entries and never calls Get.
//
// Grounded on SPEC_FULL.md §2.2's domain-stack wiring for modernc.org/sqlite
// — a pure-Go sqlite driver, used here exactly the way `database/sql`
// expects any driver to be used (register via blank import, open, prepare,
// exec/query).
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Backend wraps a single sqlite database file holding the signature cache.
type Backend struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS signatures (
	module_path  TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	arena        TEXT NOT NULL,
	signature    BLOB NOT NULL,
	PRIMARY KEY (module_path, content_hash)
);
`

// Open creates (if absent) and opens the sqlite database at path, ensuring
// the signature-cache table exists.
func Open(path string) (*Backend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return &Backend{db: db}, nil
}

func (b *Backend) Close() error { return b.db.Close() }

// Put persists sigJSON (whatever bytes the caller serialized for the
// module; cmd/funxy passes its lowered IR) for modulePath+contentHash,
// tagged with the arena of the Supply that compiled it, replacing any
// earlier entry for the same key.
func (b *Backend) Put(modulePath, contentHash, arena string, sigJSON []byte) error {
	_, err := b.db.Exec(
		`INSERT INTO signatures (module_path, content_hash, arena, signature) VALUES (?, ?, ?, ?)
		 ON CONFLICT(module_path, content_hash) DO UPDATE SET arena = excluded.arena, signature = excluded.signature`,
		modulePath, contentHash, arena, sigJSON,
	)
	if err != nil {
		return fmt.Errorf("store: put %s@%s: %w", modulePath, contentHash, err)
	}
	return nil
}

// Get looks up a previously-cached signature. ok is false on a cache miss.
func (b *Backend) Get(modulePath, contentHash string) (sigJSON []byte, arena string, ok bool, err error) {
	row := b.db.QueryRow(
		`SELECT signature, arena FROM signatures WHERE module_path = ? AND content_hash = ?`,
		modulePath, contentHash,
	)
	if scanErr := row.Scan(&sigJSON, &arena); scanErr != nil {
		if scanErr == sql.ErrNoRows {
			return nil, "", false, nil
		}
		return nil, "", false, fmt.Errorf("store: get %s@%s: %w", modulePath, contentHash, scanErr)
	}
	return sigJSON, arena, true, nil
}
