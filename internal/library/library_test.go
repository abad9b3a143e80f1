package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/notefall/lyrebird/core/errors"
)

const scoreTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<museScore version="3.02">
  <Score>
    <metaTag name="workTitle">%s</metaTag>
    <metaTag name="composer">%s</metaTag>
    <Part>
      <Staff id="1"><defaultClef>G</defaultClef></Staff>
      <trackName>Piano</trackName>
      <Instrument><longName>Piano</longName></Instrument>
    </Part>
    <Staff id="1">
      <Measure>
        <voice>
          <TimeSig><sigN>4</sigN><sigD>4</sigD></TimeSig>
          <Rest><durationType>measure</durationType></Rest>
        </voice>
      </Measure>
    </Staff>
  </Score>
</museScore>`

func writeScore(t *testing.T, dir, name, title, composer string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	doc := fmt.Sprintf(scoreTemplate, title, composer)
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write score file: %v", err)
	}
	return path
}

func openCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestScanAddsScores(t *testing.T) {
	root := t.TempDir()
	writeScore(t, root, "beta.mscx", "Beta Song", "B. Composer")
	writeScore(t, root, "alpha.mscx", "Alpha Song", "A. Composer")
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("not a score"), 0o644); err != nil {
		t.Fatalf("write decoy: %v", err)
	}

	c := openCatalog(t)
	ctx := context.Background()

	stats, err := c.Scan(ctx, root)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if stats.Added != 2 {
		t.Errorf("Added = %d, want 2", stats.Added)
	}
	if !stats.Changed() {
		t.Error("Changed() = false after adding scores")
	}

	entries, err := c.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("List() returned %d entries, want 2", len(entries))
	}
	if entries[0].Title != "Alpha Song" || entries[1].Title != "Beta Song" {
		t.Errorf("List() order = [%s, %s], want title order", entries[0].Title, entries[1].Title)
	}
	for _, e := range entries {
		if len(e.ID) != 36 {
			t.Errorf("entry %s: ID %q is not a UUID", e.Path, e.ID)
		}
		if len(e.Fingerprint) != 64 {
			t.Errorf("entry %s: fingerprint length = %d, want 64", e.Path, len(e.Fingerprint))
		}
		if e.Composer == "" {
			t.Errorf("entry %s: composer not recorded", e.Path)
		}
	}
}

func TestScanUnchangedSkipsReparse(t *testing.T) {
	root := t.TempDir()
	writeScore(t, root, "song.mscx", "Song", "Trad.")

	c := openCatalog(t)
	ctx := context.Background()

	if _, err := c.Scan(ctx, root); err != nil {
		t.Fatalf("first Scan() error = %v", err)
	}
	stats, err := c.Scan(ctx, root)
	if err != nil {
		t.Fatalf("second Scan() error = %v", err)
	}
	if stats.Unchanged != 1 || stats.Added != 0 || stats.Updated != 0 {
		t.Errorf("second scan stats = %+v, want 1 unchanged", *stats)
	}
	if stats.Changed() {
		t.Error("Changed() = true for a no-op rescan")
	}
}

func TestScanDetectsContentChange(t *testing.T) {
	root := t.TempDir()
	writeScore(t, root, "song.mscx", "First Title", "Trad.")

	c := openCatalog(t)
	ctx := context.Background()

	if _, err := c.Scan(ctx, root); err != nil {
		t.Fatalf("first Scan() error = %v", err)
	}
	before, err := c.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	writeScore(t, root, "song.mscx", "Second Title", "Trad.")
	stats, err := c.Scan(ctx, root)
	if err != nil {
		t.Fatalf("second Scan() error = %v", err)
	}
	if stats.Updated != 1 {
		t.Errorf("Updated = %d, want 1", stats.Updated)
	}

	after, err := c.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(after) != 1 {
		t.Fatalf("List() returned %d entries, want 1", len(after))
	}
	if after[0].ID != before[0].ID {
		t.Error("rescan changed the entry ID for an updated file")
	}
	if after[0].Title != "Second Title" {
		t.Errorf("title = %q, want %q", after[0].Title, "Second Title")
	}
	if after[0].Fingerprint == before[0].Fingerprint {
		t.Error("fingerprint unchanged after content change")
	}
}

func TestScanRemovesMissing(t *testing.T) {
	root := t.TempDir()
	keep := writeScore(t, root, "keep.mscx", "Keeper", "Trad.")
	gone := writeScore(t, root, "gone.mscx", "Goner", "Trad.")

	c := openCatalog(t)
	ctx := context.Background()

	if _, err := c.Scan(ctx, root); err != nil {
		t.Fatalf("first Scan() error = %v", err)
	}
	if err := os.Remove(gone); err != nil {
		t.Fatalf("remove score: %v", err)
	}

	stats, err := c.Scan(ctx, root)
	if err != nil {
		t.Fatalf("second Scan() error = %v", err)
	}
	if stats.Removed != 1 {
		t.Errorf("Removed = %d, want 1", stats.Removed)
	}

	entries, err := c.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Path != keep {
		t.Errorf("List() = %+v, want only %s", entries, keep)
	}
}

func TestScanSkipsUnparseable(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "broken.mscx"), []byte("<html/>"), 0o644); err != nil {
		t.Fatalf("write broken file: %v", err)
	}

	c := openCatalog(t)
	ctx := context.Background()

	stats, err := c.Scan(ctx, root)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if stats.Failed != 1 || stats.Added != 0 {
		t.Errorf("stats = %+v, want 1 failed, 0 added", *stats)
	}

	entries, err := c.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("List() returned %d entries, want none", len(entries))
	}
}

func TestScanSkipsHiddenDirs(t *testing.T) {
	root := t.TempDir()
	hidden := filepath.Join(root, ".backup")
	if err := os.MkdirAll(hidden, 0o755); err != nil {
		t.Fatalf("mkdir hidden: %v", err)
	}
	writeScore(t, hidden, "old.mscx", "Old Copy", "Trad.")
	writeScore(t, root, "current.mscx", "Current", "Trad.")

	c := openCatalog(t)
	stats, err := c.Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if stats.Added != 1 {
		t.Errorf("Added = %d, want 1 (hidden dir skipped)", stats.Added)
	}
}

func TestGet(t *testing.T) {
	root := t.TempDir()
	writeScore(t, root, "song.mscx", "Song", "Trad.")

	c := openCatalog(t)
	ctx := context.Background()

	if _, err := c.Scan(ctx, root); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	entries, err := c.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	got, err := c.Get(ctx, entries[0].ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "Song" {
		t.Errorf("Get() title = %q, want %q", got.Title, "Song")
	}

	_, err = c.Get(ctx, "no-such-id")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Get() unknown id error = %v, want ErrNotFound", err)
	}
}
