package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore mirrors JSON documents to fixed filesystem paths for recovery.
// Directories are created as needed. Errors are returned for the caller to
// log at WARN; filesystem failures are never fatal.
type FileStore struct {
	baseDir string
}

// NewFileStore creates a file store rooted at baseDir
func NewFileStore(baseDir string) *FileStore {
	return &FileStore{baseDir: baseDir}
}

// Path resolves a relative document path under the base directory
func (f *FileStore) Path(rel string) string {
	return filepath.Join(f.baseDir, rel)
}

// SaveJSON pretty-prints doc to the given relative path
func (f *FileStore) SaveJSON(rel string, doc interface{}) error {
	path := f.Path(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return os.Rename(tmp, path)
}

// LoadJSON reads a JSON document from the given relative path.
// Returns ErrNotFound when the file does not exist.
func (f *FileStore) LoadJSON(rel string, out interface{}) error {
	data, err := os.ReadFile(f.Path(rel))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("read document: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}
