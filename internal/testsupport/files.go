package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteSentences writes one sentence per line under the config's base
// directory and returns the path.
func WriteSentences(t testing.TB, dir string, sentences ...string) string {
	t.Helper()

	path := filepath.Join(dir, "book.txt")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(strings.Join(sentences, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
