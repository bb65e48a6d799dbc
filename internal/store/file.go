package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mrz1836/lockgate/internal/fileutil"
)

const (
	stateFilePerm = 0o600
	stateDirPerm  = 0o700
)

// FileBackend keeps each record in its own file under a state directory.
type FileBackend struct {
	dir string
	now func() time.Time
}

// NewFileBackend creates the state directory if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if dir == "" {
		return nil, fileutil.ErrEmptyPath
	}
	if err := os.MkdirAll(dir, stateDirPerm); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}
	return &FileBackend{dir: dir, now: time.Now}, nil
}

// Name returns "file".
func (b *FileBackend) Name() string { return "file" }

// Dir returns the state directory.
func (b *FileBackend) Dir() string { return b.dir }

func (b *FileBackend) path(key string) string {
	if key == KeySettings {
		return filepath.Join(b.dir, key+".json")
	}
	return filepath.Join(b.dir, key)
}

// Get reads a record file.
func (b *FileBackend) Get(key string) ([]byte, bool, error) {
	return fileutil.ReadOptional(b.path(key))
}

// Put replaces a record file atomically.
func (b *FileBackend) Put(key string, value []byte) error {
	return fileutil.WriteAtomic(b.path(key), value, stateFilePerm)
}

// Delete removes a record file. Missing files are not an error.
func (b *FileBackend) Delete(key string) error {
	err := os.Remove(b.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Quarantine moves an unreadable record file aside.
func (b *FileBackend) Quarantine(key string) (string, error) {
	return fileutil.Quarantine(b.path(key), b.now())
}

// Close is a no-op.
func (b *FileBackend) Close() error { return nil }
