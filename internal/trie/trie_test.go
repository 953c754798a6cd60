package trie

import (
	"reflect"
	"testing"
)

func TestTrie_InsertGet(t *testing.T) {
	tr := New[int](nil)
	tr.Insert("car", 1)
	tr.Insert("cart", 2)

	tests := []struct {
		key    string
		want   int
		wantOK bool
	}{
		{"car", 1, true},
		{"cart", 2, true},
		{"ca", 0, false},
		{"carts", 0, false},
		{"dog", 0, false},
	}
	for _, tt := range tests {
		got, ok := tr.Get(tt.key)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Get(%q) = (%d, %v), want (%d, %v)", tt.key, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestTrie_Overwrite(t *testing.T) {
	tr := New[string](SplitPath)
	tr.Insert("src/app/app.module#AppModule", "first")
	tr.Insert("src/app/app.module#AppModule", "second")

	if got, _ := tr.Get("src/app/app.module#AppModule"); got != "second" {
		t.Errorf("Get() = %q, want second", got)
	}
	if tr.Size() != 2 {
		t.Errorf("Size() = %d, want 2 (inserts are not de-duplicated)", tr.Size())
	}
}

func TestTrie_PathSplitter(t *testing.T) {
	tr := New[string](SplitPath)
	tr.Insert("/src/admin/admin.module#AdminModule", "admin")

	if _, ok := tr.Get("/src//admin/admin.module#AdminModule"); !ok {
		t.Error("doubled separators should not matter with SplitPath")
	}
	if _, ok := tr.Get("src/admin/admin.module#AdminModule"); ok {
		t.Error("relative key matched an absolute one")
	}
	if _, ok := tr.Get("src/admin"); ok {
		t.Error("prefix of a stored key should miss")
	}
}

func TestTrie_Clear(t *testing.T) {
	tr := New[int](nil)
	tr.Insert("a", 1)
	tr.Clear()

	if _, ok := tr.Get("a"); ok {
		t.Error("Get() after Clear() found a value")
	}
	if tr.Size() != 0 {
		t.Errorf("Size() = %d, want 0", tr.Size())
	}
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		key  string
		want []string
	}{
		{"src/app/lazy.module#LazyModule", []string{"src", "app", "lazy.module", "LazyModule"}},
		{"/abs/a#M", []string{"/", "abs", "a", "M"}},
		{"abs//a#M", []string{"abs", "a", "M"}},
	}
	for _, tt := range tests {
		if got := SplitPath(tt.key); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitPath(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
