package importer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// CatalogEntry is one of the bundled schedules.
type CatalogEntry struct {
	Index int
	Label string
	File  string
}

var catalogLabels = []string{"Section A", "Section B", "Section C", "Section D", "DBM", "HHM"}

// Catalog maps schedule indices 1 to 6 to files named schedule<N>.csv in a
// directory.
type Catalog struct {
	dir  string
	stat func(name string) (fs.FileInfo, error)
}

// NewCatalog creates a catalog of schedules stored in dir.
func NewCatalog(dir string) *Catalog {
	return &Catalog{dir: dir, stat: os.Stat}
}

// Entries lists the catalog in index order.
func (c *Catalog) Entries() []CatalogEntry {
	entries := make([]CatalogEntry, len(catalogLabels))
	for i, label := range catalogLabels {
		entries[i] = CatalogEntry{
			Index: i + 1,
			Label: label,
			File:  fmt.Sprintf("schedule%d.csv", i+1),
		}
	}
	return entries
}

// Entry returns the catalog entry for index without touching the filesystem.
func (c *Catalog) Entry(index int) (CatalogEntry, error) {
	if index < 1 || index > len(catalogLabels) {
		return CatalogEntry{}, fmt.Errorf("%w: %d", ErrInvalidSchedule, index)
	}
	return c.Entries()[index-1], nil
}

// Path returns the file path for index without checking that it exists.
func (c *Catalog) Path(index int) (string, error) {
	entry, err := c.Entry(index)
	if err != nil {
		return "", err
	}
	return filepath.Join(c.dir, entry.File), nil
}

// Resolve returns the path for index and checks that the file exists.
func (c *Catalog) Resolve(index int) (string, error) {
	path, err := c.Path(index)
	if err != nil {
		return "", err
	}
	if _, err := c.stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrScheduleNotFound, filepath.Base(path))
		}
		return "", fmt.Errorf("failed to check schedule %s: %w", filepath.Base(path), err)
	}
	return path, nil
}
