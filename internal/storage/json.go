package storage

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const blobFileExt = ".json"

// FileStore keeps one file per key inside a directory
type FileStore struct {
	dataDir string
}

// openFileStore creates the directory if needed and returns a file store
func openFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, secureDirMode); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &FileStore{dataDir: dir}, nil
}

// keyPath maps a key onto a file name. Keys made of [A-Za-z0-9._-] are used
// as-is, anything else is hex encoded so it cannot escape the directory.
func (s *FileStore) keyPath(key string) string {
	name := key
	if !safeFileName(key) {
		name = "x-" + hex.EncodeToString([]byte(key))
	}
	return filepath.Join(s.dataDir, name+blobFileExt)
}

func safeFileName(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return false
		}
	}
	return !strings.HasPrefix(key, "x-")
}

// Get reads the blob for key from disk
func (s *FileStore) Get(key string) (string, bool, error) {
	data, err := os.ReadFile(s.keyPath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

// Set writes the blob through a temp file and rename
func (s *FileStore) Set(key, value string) error {
	path := s.keyPath(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), secureFileMode); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// Delete removes the blob file; a missing file is not an error
func (s *FileStore) Delete(key string) error {
	err := os.Remove(s.keyPath(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Close is a no-op for the file store
func (s *FileStore) Close() error { return nil }
