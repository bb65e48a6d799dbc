// Package fileutil provides filesystem helpers for durable state files.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrEmptyPath indicates an empty file path was provided.
var ErrEmptyPath = errors.New("path is empty")

// stateDirPerm is used when WriteAtomic has to create the parent directory.
const stateDirPerm = 0o700

// WriteAtomic replaces path with data so readers see either the old or the
// new content, never a partial write. The parent directory is created if
// needed. Data goes to a sibling temp file which is fsynced and renamed.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	if path == "" {
		return ErrEmptyPath
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, stateDirPerm); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := writeAndSync(tmp, data, perm); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil { //nolint:gosec // G703: path comes from configuration, not user input
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	syncDir(dir)
	return nil
}

func writeAndSync(f *os.File, data []byte, perm os.FileMode) error {
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Chmod(perm); err != nil {
		return fmt.Errorf("setting temp file permissions: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	return nil
}

// syncDir makes a completed rename durable. Failure is ignored.
func syncDir(dir string) {
	d, err := os.Open(dir) //nolint:gosec // G304: dir is derived from a configured path
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

// ReadOptional reads path, reporting found=false instead of an error when
// the file does not exist.
func ReadOptional(path string) (data []byte, found bool, err error) {
	if path == "" {
		return nil, false, ErrEmptyPath
	}
	data, err = os.ReadFile(path) //nolint:gosec // G304: path comes from configuration
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Quarantine moves an unreadable file aside as <path>.corrupt.<unixnano>
// and returns the new location.
func Quarantine(path string, now time.Time) (string, error) {
	moved := fmt.Sprintf("%s.corrupt.%d", path, now.UTC().UnixNano())
	if err := os.Rename(path, moved); err != nil {
		return "", fmt.Errorf("moving %s aside: %w", path, err)
	}
	return moved, nil
}
