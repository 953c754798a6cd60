package project

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"lukechampine.com/blake3"
)

// Revision digests the manifest bytes, every templateUrl file and every file
// matched by the manifest's source globs. Files are hashed in path order
// with their root-relative names, so moving a file changes the revision.
func Revision(root string, manifest []byte, m *Manifest) (string, error) {
	files := make(map[string]bool)
	fsys := os.DirFS(root)
	for _, pattern := range m.Sources {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return "", fmt.Errorf("sources pattern %q: %w", pattern, err)
		}
		for _, match := range matches {
			files[match] = true
		}
	}
	for _, spec := range append(append([]DirectiveSpec{}, m.Components...), m.Directives...) {
		if spec.Template == "" && spec.TemplateURL != "" {
			files[templateFile(spec)] = true
		}
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	hasher := blake3.New(32, nil)
	hasher.Write(manifest)
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(name)))
		if err != nil {
			// missing template files surface as template errors, not load errors
			if os.IsNotExist(err) {
				continue
			}
			return "", err
		}
		hasher.Write([]byte{0})
		hasher.Write([]byte(name))
		hasher.Write([]byte{0})
		hasher.Write(data)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
