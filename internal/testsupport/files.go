package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteDocuments creates text documents under <DocumentsDir>/<code>. Keys are
// slash-separated paths relative to the vendor directory.
func WriteDocuments(t testing.TB, documentsDir, code string, docs map[string]string) {
	t.Helper()

	for rel, body := range docs {
		WriteFile(t, filepath.Join(documentsDir, code, filepath.FromSlash(rel)), body)
	}
}
