package indexing

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"
)

// VersionPath returns the version file location for the index at dir
func VersionPath(dir string) string {
	return filepath.Join(filepath.Dir(dir), VersionFile)
}

// LockPath returns the lock file location for the index at dir
func LockPath(dir string) string {
	return filepath.Join(filepath.Dir(dir), LockFile)
}

// BuildPersisted replaces the index at dir with one holding records and
// records the schema version beside it. The build holds the index lock.
func BuildPersisted(dir, analyzer string, records []Record, progress func()) error {
	if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	lock := NewLock(LockPath(dir))
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.Printf("Warning: Failed to release index lock: %v", err)
		}
	}()

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove old index: %w", err)
	}
	// Stale version must not vouch for a half-built index
	os.Remove(VersionPath(dir))

	idx, err := bleve.New(dir, NewIndexMapping(analyzer))
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	if err := IndexRecords(idx, records, progress); err != nil {
		idx.Close()
		return err
	}
	if err := idx.Close(); err != nil {
		return fmt.Errorf("failed to close index: %w", err)
	}

	if err := WriteVersion(VersionPath(dir)); err != nil {
		return fmt.Errorf("failed to write version file: %w", err)
	}
	return nil
}
