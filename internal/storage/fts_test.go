package storage

import (
	"context"
	"testing"

	"ngrev/internal/slogutil"
)

func records() []SymbolRecord {
	return []SymbolRecord{
		{ID: "src/app/app.module.ts#AppModule", Name: "AppModule", Kind: "module-tree", FilePath: "src/app/app.module.ts"},
		{ID: "src/app/hero.component.ts#HeroComponent", Name: "HeroComponent", Kind: "directive", FilePath: "src/app/hero.component.ts"},
		{ID: "src/app/hero.service.ts#HeroService", Name: "HeroService", Kind: "provider", FilePath: "src/app/hero.service.ts"},
		{ID: "src/app/title.pipe.ts#TitlePipe", Name: "TitlePipe", Kind: "pipe", FilePath: "src/app/title.pipe.ts"},
		{ID: "API_URL", Name: "API_URL", Kind: "provider"},
	}
}

func openTestIndex(t *testing.T) *SearchIndex {
	t.Helper()
	idx, err := OpenSearchIndex(t.TempDir(), "/work/heroes", slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("OpenSearchIndex() error = %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestOpen_InitializesSchema(t *testing.T) {
	db, err := Open(t.TempDir(), slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	for _, table := range []string{"schema_version", "symbols", "symbols_fts"} {
		var count int
		err := db.Conn().QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE name = ?", table).Scan(&count)
		if err != nil || count != 1 {
			t.Errorf("table %s missing (count=%d, err=%v)", table, count, err)
		}
	}
	version, err := db.getSchemaVersion()
	if err != nil || version != currentSchemaVersion {
		t.Errorf("getSchemaVersion() = (%d, %v), want %d", version, err, currentSchemaVersion)
	}
}

func TestOpen_Reopen(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	db.Close()

	db, err = Open(dir, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	db.Close()
}

func TestSearchIndex_Search(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	if err := idx.Sync(ctx, "rev-1", records()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	tests := []struct {
		name      string
		query     string
		wantFirst string
		wantType  string
	}{
		{"exact", "HeroService", "src/app/hero.service.ts#HeroService", "exact"},
		{"prefix", "Tit", "src/app/title.pipe.ts#TitlePipe", "prefix"},
		{"substring", "eroComp", "src/app/hero.component.ts#HeroComponent", "substring"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := idx.Search(ctx, tt.query, 10)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(results) == 0 {
				t.Fatal("Search() returned nothing")
			}
			if results[0].ID != tt.wantFirst {
				t.Errorf("first result = %q, want %q", results[0].ID, tt.wantFirst)
			}
			if results[0].MatchType != tt.wantType {
				t.Errorf("MatchType = %q, want %q", results[0].MatchType, tt.wantType)
			}
		})
	}

	results, err := idx.Search(ctx, "Hero", 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Errorf("len(results) = %d, want limit 1", len(results))
	}

	if results, _ := idx.Search(ctx, "  ", 10); len(results) != 0 {
		t.Errorf("blank query returned %d results", len(results))
	}
	if _, err := idx.Search(ctx, `we"ird*(`, 10); err != nil {
		t.Errorf("Search() with special characters error = %v", err)
	}
}

func TestSearchIndex_SyncSkipsFreshRevision(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	if err := idx.Sync(ctx, "rev-1", records()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if err := idx.Sync(ctx, "rev-1", records()[:1]); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if n, _ := idx.Count(ctx); n != len(records()) {
		t.Errorf("Count() = %d, want %d (fresh revision must not rebuild)", n, len(records()))
	}

	if err := idx.Sync(ctx, "rev-2", records()[:2]); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if n, _ := idx.Count(ctx); n != 2 {
		t.Errorf("Count() = %d, want 2 after new revision", n)
	}
}

func TestProjectKey(t *testing.T) {
	a := ProjectKey("/work/heroes")
	if a != ProjectKey("/work/heroes") {
		t.Error("ProjectKey() not deterministic")
	}
	if a == ProjectKey("/work/villains") {
		t.Error("ProjectKey() collides for different projects")
	}
	if len(a) != 16 {
		t.Errorf("len(ProjectKey()) = %d, want 16", len(a))
	}
}
