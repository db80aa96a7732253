package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// BlobStore persists attachment bytes keyed by a generated filename. The
// entity rows only carry the metadata.
type BlobStore interface {
	Store(r io.Reader, suggestedName string) (string, error)
	Path(storedName string) (string, error)
	Delete(storedName string) error
}

// DiskStore writes blobs into a flat directory, prefixing each stored name
// with the upload timestamp to keep names unique.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) Store(r io.Reader, suggestedName string) (string, error) {
	storedName := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), sanitizeName(suggestedName))

	f, err := os.OpenFile(filepath.Join(s.dir, storedName), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create blob file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	return storedName, nil
}

func (s *DiskStore) Path(storedName string) (string, error) {
	path := filepath.Join(s.dir, filepath.Base(storedName))
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("blob %s not found: %w", storedName, err)
	}
	return path, nil
}

func (s *DiskStore) Delete(storedName string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(storedName)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// sanitizeName strips any path components and whitespace from a client
// supplied filename.
func sanitizeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "file"
	}
	return name
}
