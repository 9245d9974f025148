package indexing

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	lockTimeout   = 5 * time.Second // Max time to wait for lock
	lockRetryWait = 500 * time.Millisecond
)

// isProcessRunning is implemented in platform-specific files:
// - lock_unix.go for Unix/Linux/macOS
// - lock_windows.go for Windows

// Lock is a PID lock file guarding a persisted index directory, so the
// indexer and a running server never rebuild the same index concurrently.
type Lock struct {
	Path    string
	Timeout time.Duration
}

// NewLock returns a lock stored at path with the default timeout
func NewLock(path string) *Lock {
	return &Lock{Path: path, Timeout: lockTimeout}
}

// cleanStale removes the lock file if the owning process is dead
func (l *Lock) cleanStale() error {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // No lock file, nothing to clean
		}
		return fmt.Errorf("failed to read lock file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		log.Printf("Warning: Corrupted lock file (invalid PID), removing...")
		return os.Remove(l.Path)
	}

	if pid == os.Getpid() {
		return nil
	}
	if isProcessRunning(pid) {
		return fmt.Errorf("lock held by running process %d", pid)
	}

	log.Printf("Stale lock detected (PID %d not running), cleaning...", pid)
	return os.Remove(l.Path)
}

// Acquire takes the lock, waiting up to Timeout for another live process to
// release it. Re-acquiring a lock this process already holds is a no-op.
func (l *Lock) Acquire() error {
	ourPID := os.Getpid()
	startTime := time.Now()

	for {
		if err := l.cleanStale(); err != nil {
			elapsed := time.Since(startTime)
			if elapsed >= l.Timeout {
				return fmt.Errorf("timeout waiting for index lock after %v: %w", elapsed, err)
			}

			log.Printf("Index locked by another process, waiting... (%v elapsed)", elapsed.Round(100*time.Millisecond))
			time.Sleep(lockRetryWait)
			continue
		}

		if err := os.WriteFile(l.Path, []byte(strconv.Itoa(ourPID)), 0644); err != nil {
			return fmt.Errorf("failed to create lock file: %w", err)
		}

		log.Printf("✓ Index lock acquired (PID %d)", ourPID)
		return nil
	}
}

// Release removes the lock file if this process owns it
func (l *Lock) Release() error {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read lock file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err == nil && pid != os.Getpid() {
		log.Printf("Warning: Lock file contains different PID (%d vs %d), not removing", pid, os.Getpid())
		return nil
	}

	if err := os.Remove(l.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

// ReadVersion returns the schema version recorded next to a persisted index,
// or 0 when none was written.
func ReadVersion(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	version, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return version
}

// WriteVersion records IndexSchemaVersion at path
func WriteVersion(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(IndexSchemaVersion)), 0644)
}
