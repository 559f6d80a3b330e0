// internal/session/file.go
package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore writes one file per session key under a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if it can. A directory that cannot be created
// only surfaces as errors on Put.
func NewFileStore(dir string) *FileStore {
	_ = os.MkdirAll(dir, 0o755)
	return &FileStore{dir: dir}
}

func (s *FileStore) Name() string { return "file" }

func (s *FileStore) path(id, key string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", id, key))
}

func (s *FileStore) Get(_ context.Context, id, key string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.path(id, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read session file: %w", err)
	}
	return string(data), nil
}

func (s *FileStore) Put(_ context.Context, id, key, value string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(s.path(id, key), []byte(value), 0o644); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}
