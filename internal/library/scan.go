package library

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/notefall/lyrebird/core/convert"
	"github.com/notefall/lyrebird/core/errors"
	"github.com/notefall/lyrebird/internal/logging"
)

// scoreFileExtensions are the on-disk file types the scanner catalogs.
var scoreFileExtensions = []string{".mscz", ".mscx"}

// ScanStats summarizes one catalog scan.
type ScanStats struct {
	Added     int `json:"added"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Removed   int `json:"removed"`
	Failed    int `json:"failed"`
}

// Changed reports whether the scan altered the catalog.
func (s ScanStats) Changed() bool {
	return s.Added+s.Updated+s.Removed > 0
}

// knownRow is the catalog state consulted during a scan.
type knownRow struct {
	id          string
	fingerprint string
}

// knownRows returns the catalog keyed by path for scan reconciliation.
func (c *Catalog) knownRows(ctx context.Context) (map[string]knownRow, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id, path, fingerprint FROM scores`)
	if err != nil {
		return nil, errors.Wrap(err, "load catalog state")
	}
	defer rows.Close()

	known := make(map[string]knownRow)
	for rows.Next() {
		var r knownRow
		var path string
		if err := rows.Scan(&r.id, &path, &r.fingerprint); err != nil {
			return nil, errors.Wrap(err, "scan catalog row")
		}
		known[path] = r
	}
	return known, rows.Err()
}

// Scan walks root for score files and reconciles the catalog with what
// it finds. Files whose fingerprint is unchanged are skipped without
// re-parsing; rows whose file has disappeared are removed.
func (c *Catalog) Scan(ctx context.Context, root string) (*ScanStats, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.NewIO("resolve", root, err)
	}

	known, err := c.knownRows(ctx)
	if err != nil {
		return nil, err
	}

	stats := &ScanStats{}
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != absRoot && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !isScoreFile(path) {
			return nil
		}
		c.scanFile(ctx, path, d, known, stats)
		return nil
	})
	if err != nil {
		return stats, errors.NewIO("walk", absRoot, err)
	}

	removed, err := c.removeMissing(ctx)
	if err != nil {
		return stats, err
	}
	stats.Removed = removed

	logging.LibraryEvent("scan_complete", "",
		"root", absRoot,
		"added", stats.Added,
		"updated", stats.Updated,
		"unchanged", stats.Unchanged,
		"removed", stats.Removed,
		"failed", stats.Failed)
	return stats, nil
}

// scanFile reconciles one discovered file with the catalog.
func (c *Catalog) scanFile(ctx context.Context, path string, d fs.DirEntry, known map[string]knownRow, stats *ScanStats) {
	raw, err := os.ReadFile(path)
	if err != nil {
		stats.Failed++
		logging.Error("read score file", "path", path, "error", err)
		return
	}

	fp := convert.Fingerprint(raw)
	prev, exists := known[path]
	if exists && prev.fingerprint == fp {
		stats.Unchanged++
		return
	}

	s, err := convert.ParseScore(raw)
	if err != nil {
		// Unparseable files stay out of the catalog. A stale row for a
		// file that used to parse is kept until the file parses again.
		stats.Failed++
		logging.ConversionError("scan", path, err)
		return
	}

	var mtime time.Time
	if info, err := d.Info(); err == nil {
		mtime = info.ModTime()
	}
	now := time.Now().UTC()

	if exists {
		_, err = c.db.ExecContext(ctx, `
			UPDATE scores
			SET title = ?, composer = ?, fingerprint = ?, mtime = ?, converted_at = ?
			WHERE path = ?`,
			s.Title, s.Composer, fp, mtime.Unix(), now.Unix(), path)
		if err != nil {
			stats.Failed++
			logging.Error("update catalog row", "path", path, "error", err)
			return
		}
		stats.Updated++
		logging.LibraryEvent("score_updated", prev.id, "path", path, "title", s.Title)
		return
	}

	id := uuid.New().String()
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO scores (id, path, title, composer, fingerprint, mtime, converted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, path, s.Title, s.Composer, fp, mtime.Unix(), now.Unix())
	if err != nil {
		stats.Failed++
		logging.Error("insert catalog row", "path", path, "error", err)
		return
	}
	stats.Added++
	logging.LibraryEvent("score_added", id, "path", path, "title", s.Title)
}

// removeMissing deletes rows whose file no longer exists on disk and
// returns how many were removed.
func (c *Catalog) removeMissing(ctx context.Context) (int, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id, path FROM scores`)
	if err != nil {
		return 0, errors.Wrap(err, "list catalog paths")
	}

	type gone struct{ id, path string }
	var missing []gone
	for rows.Next() {
		var g gone
		if err := rows.Scan(&g.id, &g.path); err != nil {
			rows.Close()
			return 0, errors.Wrap(err, "scan catalog row")
		}
		if _, err := os.Stat(g.path); os.IsNotExist(err) {
			missing = append(missing, g)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	for _, g := range missing {
		if _, err := c.db.ExecContext(ctx, `DELETE FROM scores WHERE id = ?`, g.id); err != nil {
			return 0, errors.Wrap(err, "delete catalog row")
		}
		logging.LibraryEvent("score_removed", g.id, "path", g.path)
	}
	return len(missing), nil
}

func isScoreFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range scoreFileExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
