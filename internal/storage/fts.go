package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SymbolRecord is one searchable symbol.
type SymbolRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	FilePath string `json:"filePath,omitempty"`
}

// SearchResult is a ranked match.
type SearchResult struct {
	SymbolRecord
	Rank      float64 `json:"rank"`
	MatchType string  `json:"matchType"` // "exact", "prefix", "substring"
}

// FTSManager manages FTS5 operations for symbol search
type FTSManager struct {
	db *sql.DB
}

// NewFTSManager creates a new FTS manager
func NewFTSManager(db *sql.DB) *FTSManager {
	return &FTSManager{db: db}
}

// Replace swaps the indexed symbols for records in one transaction.
func (m *FTSManager) Replace(ctx context.Context, records []SymbolRecord) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM symbols"); err != nil {
		return fmt.Errorf("failed to clear symbols: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO symbols (id, name, kind, file_path)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.ID, r.Name, r.Kind, r.FilePath); err != nil {
			return fmt.Errorf("failed to insert symbol %s: %w", r.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO symbols_fts(symbols_fts) VALUES('rebuild')"); err != nil {
		return fmt.Errorf("failed to rebuild FTS: %w", err)
	}

	return tx.Commit()
}

// Search tries an exact phrase match, then a prefix match, then a substring
// match, until limit results are collected.
func (m *FTSManager) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	var results []SearchResult
	seen := make(map[string]bool)
	collect := func(batch []SearchResult) {
		for _, r := range batch {
			if len(results) >= limit {
				return
			}
			if !seen[r.ID] {
				seen[r.ID] = true
				results = append(results, r)
			}
		}
	}

	phrase := `"` + escapeFTS5Query(query) + `"`
	exact, err := m.match(ctx, phrase, limit, "exact", 1.0)
	if err != nil {
		return nil, err
	}
	collect(exact)

	if len(results) < limit {
		prefix, err := m.match(ctx, phrase+"*", limit, "prefix", 0.8)
		if err != nil {
			return nil, err
		}
		collect(prefix)
	}

	if len(results) < limit {
		like, err := m.like(ctx, query, limit)
		if err != nil {
			return nil, err
		}
		collect(like)
	}

	return results, nil
}

func (m *FTSManager) match(ctx context.Context, ftsQuery string, limit int, matchType string, rank float64) ([]SearchResult, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.kind, c.file_path
		FROM symbols_fts f
		JOIN symbols c ON f.rowid = c.rowid
		WHERE symbols_fts MATCH ?
		ORDER BY bm25(symbols_fts, 1.0, 0.3), c.id
		LIMIT ?
	`, ftsQuery, limit)
	if err != nil {
		return nil, err
	}
	return scanResults(rows, matchType, rank)
}

func (m *FTSManager) like(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	pattern := "%" + query + "%"
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, kind, file_path
		FROM symbols
		WHERE name LIKE ? OR file_path LIKE ?
		ORDER BY id
		LIMIT ?
	`, pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	return scanResults(rows, "substring", 0.5)
}

func scanResults(rows *sql.Rows, matchType string, rank float64) ([]SearchResult, error) {
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var filePath sql.NullString
		if err := rows.Scan(&r.ID, &r.Name, &r.Kind, &filePath); err != nil {
			return nil, err
		}
		r.FilePath = filePath.String
		r.MatchType = matchType
		r.Rank = rank
		results = append(results, r)
	}
	return results, rows.Err()
}

// Count returns the number of indexed symbols.
func (m *FTSManager) Count(ctx context.Context) (int, error) {
	var count int
	err := m.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM symbols").Scan(&count)
	return count, err
}

// escapeFTS5Query escapes a string for use inside an FTS5 phrase.
func escapeFTS5Query(query string) string {
	return strings.ReplaceAll(query, `"`, `""`)
}
