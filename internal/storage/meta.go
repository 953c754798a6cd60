package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// MetadataVersion is the current version of the metadata format.
	MetadataVersion = 1

	metadataFile = "search-meta.json"
)

// SearchMeta records which project revision a search cache was built from.
type SearchMeta struct {
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"createdAt"`
	Revision    string    `json:"revision"`
	SymbolCount int       `json:"symbolCount"`
	Duration    string    `json:"duration"`
}

// LoadMeta loads the metadata stored in dir.
// Returns nil without error if no metadata file exists.
func LoadMeta(dir string) (*SearchMeta, error) {
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading search metadata: %w", err)
	}

	var meta SearchMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing search metadata: %w", err)
	}

	// Version mismatch - treat as no metadata
	if meta.Version != MetadataVersion {
		return nil, nil
	}
	return &meta, nil
}

// Save writes the metadata to dir.
func (m *SearchMeta) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating search cache directory: %w", err)
	}

	m.Version = MetadataVersion
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling search metadata: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, metadataFile), data, 0644); err != nil {
		return fmt.Errorf("writing search metadata: %w", err)
	}
	return nil
}

// Fresh reports whether the cache was built from revision. An empty revision
// is never fresh.
func (m *SearchMeta) Fresh(revision string) bool {
	return m != nil && revision != "" && m.Revision == revision
}
