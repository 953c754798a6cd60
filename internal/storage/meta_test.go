package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMeta_NoFile(t *testing.T) {
	meta, err := LoadMeta(t.TempDir())
	if err != nil {
		t.Fatalf("LoadMeta() error = %v", err)
	}
	if meta != nil {
		t.Fatal("expected nil meta when file doesn't exist")
	}
}

func TestSaveAndLoadMeta(t *testing.T) {
	dir := t.TempDir()
	original := &SearchMeta{
		CreatedAt:   time.Now().Truncate(time.Second),
		Revision:    "4f9a0c",
		SymbolCount: 42,
		Duration:    "12ms",
	}
	if err := original.Save(dir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadMeta(dir)
	if err != nil {
		t.Fatalf("LoadMeta() error = %v", err)
	}
	if loaded == nil {
		t.Fatal("LoadMeta() = nil")
	}
	if loaded.Revision != original.Revision || loaded.SymbolCount != 42 {
		t.Errorf("loaded = %+v, want %+v", loaded, original)
	}
	if !loaded.CreatedAt.Equal(original.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", loaded.CreatedAt, original.CreatedAt)
	}
}

func TestLoadMeta_VersionMismatch(t *testing.T) {
	dir := t.TempDir()
	data := []byte(`{"version": 99, "revision": "abc"}`)
	if err := os.WriteFile(filepath.Join(dir, metadataFile), data, 0644); err != nil {
		t.Fatal(err)
	}
	meta, err := LoadMeta(dir)
	if err != nil {
		t.Fatalf("LoadMeta() error = %v", err)
	}
	if meta != nil {
		t.Error("expected nil meta for a different version")
	}
}

func TestLoadMeta_Corrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, metadataFile), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadMeta(dir); err == nil {
		t.Error("expected error for corrupt metadata")
	}
}

func TestSearchMeta_Fresh(t *testing.T) {
	tests := []struct {
		name     string
		meta     *SearchMeta
		revision string
		want     bool
	}{
		{"nil meta", nil, "abc", false},
		{"same revision", &SearchMeta{Revision: "abc"}, "abc", true},
		{"other revision", &SearchMeta{Revision: "abc"}, "def", false},
		{"unknown revision", &SearchMeta{Revision: ""}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.meta.Fresh(tt.revision); got != tt.want {
				t.Errorf("Fresh(%q) = %v, want %v", tt.revision, got, tt.want)
			}
		})
	}
}
