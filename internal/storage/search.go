package storage

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"lukechampine.com/blake3"
)

// SearchIndex is the search cache of one project.
type SearchIndex struct {
	db     *DB
	fts    *FTSManager
	dir    string
	logger *slog.Logger
}

// ProjectKey names the cache directory of a project.
func ProjectKey(projectPath string) string {
	if abs, err := filepath.Abs(projectPath); err == nil {
		projectPath = abs
	}
	sum := blake3.Sum256([]byte(filepath.ToSlash(projectPath)))
	return hex.EncodeToString(sum[:8])
}

// OpenSearchIndex opens the cache of projectPath under cacheDir.
func OpenSearchIndex(cacheDir, projectPath string, logger *slog.Logger) (*SearchIndex, error) {
	dir := filepath.Join(cacheDir, ProjectKey(projectPath))
	db, err := Open(dir, logger)
	if err != nil {
		return nil, err
	}
	return &SearchIndex{
		db:     db,
		fts:    NewFTSManager(db.Conn()),
		dir:    dir,
		logger: logger,
	}, nil
}

// Dir returns the cache directory.
func (s *SearchIndex) Dir() string {
	return s.dir
}

// Sync makes the cache reflect records. It is a no-op when the cache was
// already built from revision.
func (s *SearchIndex) Sync(ctx context.Context, revision string, records []SymbolRecord) error {
	meta, err := LoadMeta(s.dir)
	if err != nil {
		s.logger.Warn("Ignoring unreadable search metadata", "error", err.Error())
	}
	if meta.Fresh(revision) {
		s.logger.Debug("Search cache is fresh", "revision", revision)
		return nil
	}

	lock, err := AcquireLock(s.dir)
	if err != nil {
		return err
	}
	defer lock.Release()

	start := time.Now()
	if err := s.fts.Replace(ctx, records); err != nil {
		return fmt.Errorf("indexing symbols: %w", err)
	}

	meta = &SearchMeta{
		CreatedAt:   time.Now(),
		Revision:    revision,
		SymbolCount: len(records),
		Duration:    time.Since(start).Round(time.Millisecond).String(),
	}
	if err := meta.Save(s.dir); err != nil {
		return err
	}

	s.logger.Info("Search cache rebuilt",
		"symbols", len(records),
		"revision", revision,
		"duration", meta.Duration,
	)
	return nil
}

// Search queries the cache.
func (s *SearchIndex) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	return s.fts.Search(ctx, query, limit)
}

// Count returns the number of cached symbols.
func (s *SearchIndex) Count(ctx context.Context) (int, error) {
	return s.fts.Count(ctx)
}

// Close closes the database.
func (s *SearchIndex) Close() error {
	return s.db.Close()
}
