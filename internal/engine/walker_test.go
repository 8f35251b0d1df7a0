package engine

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"testing"
)

func buildTree(t *testing.T, root string) {
	t.Helper()
	dirs := []string{"a", "a/b", ".hidden"}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0755); err != nil {
			t.Fatal(err)
		}
	}
	files := map[string]string{
		"top.txt":          "x",
		"a/nested.txt":     "x",
		"a/b/deep.txt":     "x",
		".hidden/file.txt": "x",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func collectPaths(t *testing.T, cfg *Config) []string {
	t.Helper()
	sig := NewSignalState()
	results := Walk(context.Background(), cfg, sig)
	var got []string
	for res := range results {
		if res.Err != nil {
			t.Fatalf("unexpected walk error: %v", res.Err)
		}
		got = append(got, res.Entry.Path)
	}
	sort.Strings(got)
	return got
}

func TestWalkFindsAllVisibleFiles(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root)

	cfg := &Config{SearchPaths: []string{root}, FileTypes: map[FileType]bool{TypeFile: true}}
	got := collectPaths(t, cfg)

	want := []string{
		filepath.Join(root, "a/b/deep.txt"),
		filepath.Join(root, "a/nested.txt"),
		filepath.Join(root, "top.txt"),
	}
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("got %d paths, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("path[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWalkIncludeHidden(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root)

	cfg := &Config{SearchPaths: []string{root}, IncludeHidden: true, FileTypes: map[FileType]bool{TypeFile: true}}
	got := collectPaths(t, cfg)

	found := false
	for _, p := range got {
		if p == filepath.Join(root, ".hidden/file.txt") {
			found = true
		}
	}
	if !found {
		t.Error("expected .hidden/file.txt to appear when IncludeHidden is true")
	}
}

func TestWalkMaxDepth(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root)

	cfg := &Config{SearchPaths: []string{root}, MaxDepth: 1, FileTypes: map[FileType]bool{TypeFile: true}}
	got := collectPaths(t, cfg)

	for _, p := range got {
		if p == filepath.Join(root, "a/nested.txt") || p == filepath.Join(root, "a/b/deep.txt") {
			t.Errorf("MaxDepth=1 should exclude nested paths, got %q", p)
		}
	}
}

func TestWalkRespectsGitignore(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root)
	writeFile(t, filepath.Join(root, ".gitignore"), "a/\n")

	cfg := &Config{SearchPaths: []string{root}, ReadGitIgnore: true, FileTypes: map[FileType]bool{TypeFile: true}}
	got := collectPaths(t, cfg)

	for _, p := range got {
		if p == filepath.Join(root, "a/nested.txt") {
			t.Errorf("expected a/ to be ignored per .gitignore, but found %q", p)
		}
	}
	foundTop := false
	for _, p := range got {
		if p == filepath.Join(root, "top.txt") {
			foundTop = true
		}
	}
	if !foundTop {
		t.Error("expected top.txt to still be found")
	}
}

func TestWalkMatchesDirectories(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root)

	cfg := &Config{SearchPaths: []string{root}, FileTypes: map[FileType]bool{TypeDir: true}}
	got := collectPaths(t, cfg)

	want := []string{
		filepath.Join(root, "a"),
		filepath.Join(root, "a/b"),
	}
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("got %d dirs, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dir[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWalkPrune(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root)

	cfg := &Config{SearchPaths: []string{root}, Pattern: regexp.MustCompile("^a$"), Prune: true}
	got := collectPaths(t, cfg)

	for _, p := range got {
		if p == filepath.Join(root, "a/b") || p == filepath.Join(root, "a/nested.txt") || p == filepath.Join(root, "a/b/deep.txt") {
			t.Errorf("--prune should stop descent into matched dir %q, got %q", filepath.Join(root, "a"), p)
		}
	}
	foundA := false
	for _, p := range got {
		if p == filepath.Join(root, "a") {
			foundA = true
		}
	}
	if !foundA {
		t.Error("expected the matched directory itself to still be reported")
	}
}

func TestWalkCancellation(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := &Config{SearchPaths: []string{root}, FileTypes: map[FileType]bool{TypeFile: true}}
	sig := NewSignalState()
	results := Walk(ctx, cfg, sig)
	for range results {
		// drain; the channel must still close even though the context was
		// already canceled before the walk started.
	}
}
