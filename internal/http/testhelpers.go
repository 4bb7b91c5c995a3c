package httpx

import (
	"io/fs"
	"os"
	"strings"
	"testing"
)

// SkipIfNoTemplates skips tests that render pages when the frontend tree is
// not checked out next to the package (e.g. a module-only test run).
func SkipIfNoTemplates(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(TemplatePathFromTest); os.IsNotExist(err) {
		t.Skip("frontend templates not available")
	}
}

// TemplatesForTest returns the on-disk template tree, skipping when absent.
func TemplatesForTest(t *testing.T) fs.FS {
	t.Helper()
	SkipIfNoTemplates(t)
	return os.DirFS(TemplatePathFromTest)
}

// ContainsAll reports whether s contains every one of subs.
func ContainsAll(s string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
