package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// legacyBlobDir is where the file backend keeps its blobs, relative to the
// database directory.
const legacyBlobDir = "blobs"

// ensureSecureFile creates a file with secure permissions if it doesn't exist,
// or verifies/fixes permissions if it does exist. This prevents a TOCTOU race
// condition where the file could be created with insecure default permissions.
func ensureSecureFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, secureFileMode)
		if err != nil {
			return fmt.Errorf("failed to create secure file: %w", err)
		}
		f.Close()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	if info.Mode().Perm() != secureFileMode {
		if err := os.Chmod(path, secureFileMode); err != nil {
			return fmt.Errorf("failed to set secure permissions: %w", err)
		}
	}
	return nil
}

// SQLiteStorage handles SQLite database persistence
type SQLiteStorage struct {
	db      *sql.DB
	dataDir string
}

// openSQLite opens (and if needed creates) the database at dbPath
func openSQLite(dbPath string) (*SQLiteStorage, error) {
	dataDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dataDir, secureDirMode); err != nil {
		return nil, err
	}

	// Create database file with secure permissions if it doesn't exist
	if err := ensureSecureFile(dbPath); err != nil {
		return nil, err
	}

	// Concurrent CLI runs wait for the lock instead of failing with SQLITE_BUSY
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	// A single connection serializes writers and keeps the sqlite lock simple.
	db.SetMaxOpenConns(1)

	s := &SQLiteStorage{db: db, dataDir: dataDir}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	// Migration errors shouldn't prevent startup
	_ = s.migrateFromFiles()

	return s, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// initSchema creates the blob table if it doesn't exist
func (s *SQLiteStorage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS blobs (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Get returns the blob stored under key
func (s *SQLiteStorage) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM blobs WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set inserts or replaces the blob stored under key
func (s *SQLiteStorage) Set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
	return err
}

// Delete removes the blob stored under key
func (s *SQLiteStorage) Delete(key string) error {
	_, err := s.db.Exec("DELETE FROM blobs WHERE key = ?", key)
	return err
}

// =============================================================================
// Migration from the file backend
// =============================================================================

// migrateFromFiles imports blobs written by the file backend into an empty
// database, renaming each imported file so it is not picked up twice.
func (s *SQLiteStorage) migrateFromFiles() error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM blobs").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	dir := filepath.Join(s.dataDir, legacyBlobDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	legacy := &FileStore{dataDir: dir}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, blobFileExt) || strings.HasPrefix(name, "x-") {
			continue
		}
		key := strings.TrimSuffix(name, blobFileExt)
		value, ok, err := legacy.Get(key)
		if err != nil || !ok {
			continue
		}
		if err := s.Set(key, value); err != nil {
			return err
		}
		path := legacy.keyPath(key)
		os.Rename(path, path+".migrated")
	}
	return nil
}
