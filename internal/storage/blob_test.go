package storage_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kevinbrinsly07/projectmanager/internal/storage"
)

func TestDiskStore_RoundTrip(t *testing.T) {
	store, err := storage.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	content := "attachment payload"
	name, err := store.Store(strings.NewReader(content), "report.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(name, "-report.pdf") {
		t.Errorf("expected timestamp-prefixed name, got %q", name)
	}

	path, err := store.Path(name)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read blob: %v", err)
	}
	if string(data) != content {
		t.Errorf("expected %q, got %q", content, string(data))
	}

	if err := store.Delete(name); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Path(name); err == nil {
		t.Error("expected missing blob after delete")
	}

	// Deleting twice is not an error.
	if err := store.Delete(name); err != nil {
		t.Errorf("expected idempotent delete, got %v", err)
	}
}

func TestDiskStore_SanitizesNames(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewDiskStore(dir)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		wantPart string
	}{
		{"path traversal stripped", "../../etc/passwd", "passwd"},
		{"spaces replaced", "my report.txt", "my_report.txt"},
		{"empty name gets placeholder", "   ", "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stored, err := store.Store(strings.NewReader("x"), tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.HasSuffix(stored, "-"+tt.wantPart) {
				t.Errorf("expected stored name ending in %q, got %q", tt.wantPart, stored)
			}
			if strings.Contains(stored, string(filepath.Separator)) {
				t.Errorf("expected flat name, got %q", stored)
			}
		})
	}
}
