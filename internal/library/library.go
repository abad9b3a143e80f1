// Package library maintains a SQLite catalog of score files. The
// catalog records one row per discovered file with its parsed metadata
// and a content fingerprint, so hosts can list scores and detect source
// changes without re-parsing anything.
package library

import (
	"context"
	"database/sql"
	"time"

	"github.com/notefall/lyrebird/core/errors"
	"github.com/notefall/lyrebird/core/sqlite"
)

// Entry is one cataloged score file.
type Entry struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	Title       string    `json:"title"`
	Composer    string    `json:"composer"`
	Fingerprint string    `json:"fingerprint"`
	ModTime     time.Time `json:"mod_time"`
	ConvertedAt time.Time `json:"converted_at"`
}

// Catalog is a handle to the score database.
type Catalog struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS scores (
	id           TEXT PRIMARY KEY,
	path         TEXT NOT NULL UNIQUE,
	title        TEXT NOT NULL DEFAULT '',
	composer     TEXT NOT NULL DEFAULT '',
	fingerprint  TEXT NOT NULL,
	mtime        INTEGER NOT NULL,
	converted_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scores_fingerprint ON scores(fingerprint);
`

// Open opens or creates the catalog database at dbPath and applies the
// schema.
func Open(dbPath string) (*Catalog, error) {
	db, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, errors.NewIO("open", dbPath, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate catalog schema")
	}
	return &Catalog{db: db}, nil
}

// Close releases the underlying database handle.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// List returns all cataloged scores ordered by title, then path.
func (c *Catalog) List(ctx context.Context) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, path, title, composer, fingerprint, mtime, converted_at
		FROM scores
		ORDER BY title COLLATE NOCASE, path`)
	if err != nil {
		return nil, errors.Wrap(err, "list scores")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get returns the cataloged score with the given id.
func (c *Catalog) Get(ctx context.Context, id string) (*Entry, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, path, title, composer, fingerprint, mtime, converted_at
		FROM scores
		WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("score", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get score")
	}
	return &e, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(r rowScanner) (Entry, error) {
	var e Entry
	var mtime, convertedAt int64
	err := r.Scan(&e.ID, &e.Path, &e.Title, &e.Composer, &e.Fingerprint, &mtime, &convertedAt)
	if err != nil {
		return Entry{}, err
	}
	e.ModTime = time.Unix(mtime, 0).UTC()
	e.ConvertedAt = time.Unix(convertedAt, 0).UTC()
	return e, nil
}
