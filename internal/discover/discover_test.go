package discover

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiscoverJavaScriptFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "main.js", "define(function () {});")
	writeFile(t, dir, "lib/util.js", "require(['a']);")
	// Non-JavaScript file should be ignored
	writeFile(t, dir, "readme.txt", "hello")
	writeFile(t, dir, "types.ts", "export {}")
	// Hidden file should be ignored
	writeFile(t, dir, ".hidden.js", "secret")

	entries, err := Files(dir, nil)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %v", len(entries), paths)
	}

	// Should be sorted
	if entries[0].Path != filepath.Join("lib", "util.js") {
		t.Errorf("entry 0: got %q", entries[0].Path)
	}
	if entries[1].Path != "main.js" {
		t.Errorf("entry 1: got %q", entries[1].Path)
	}

	for _, e := range entries {
		if e.Language != "javascript" {
			t.Errorf("entry %q: language = %q, want javascript", e.Path, e.Language)
		}
	}
}

func TestDiscoverSkipDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "main.js", "")
	writeFile(t, dir, "node_modules/pkg/index.js", "")
	writeFile(t, dir, "bower_components/jquery/jquery.js", "")
	writeFile(t, dir, "dist/bundle.js", "")
	writeFile(t, dir, ".hidden/secret.js", "")

	entries, err := Files(dir, nil)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Path != "main.js" {
		t.Errorf("expected main.js, got %q", entries[0].Path)
	}
}

func TestDiscoverGitignore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, ".gitignore", "generated/\n*.min.js\n")
	writeFile(t, dir, "app.js", "")
	writeFile(t, dir, "app.min.js", "")
	writeFile(t, dir, "generated/out.js", "")

	entries, err := Files(dir, nil)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "app.js" {
		t.Fatalf("expected only app.js, got %+v", entries)
	}
}

func TestDiscoverExclude(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "app.js", "")
	writeFile(t, dir, "vendor/lib.js", "")
	writeFile(t, dir, "test/app_spec.js", "")

	entries, err := Files(dir, []string{"vendor/", "*_spec.js"})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "app.js" {
		t.Fatalf("expected only app.js, got %+v", entries)
	}
}

func TestDiscoverSymlinksSkipped(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "real.js", "")

	// Create symlink
	err := os.Symlink(filepath.Join(dir, "real.js"), filepath.Join(dir, "link.js"))
	if err != nil {
		t.Skip("symlinks not supported")
	}

	entries, err := Files(dir, nil)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry (no symlink), got %d", len(entries))
	}
	if entries[0].Path != "real.js" {
		t.Errorf("expected real.js, got %q", entries[0].Path)
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
