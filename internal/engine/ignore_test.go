package engine

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIgnoreMatcherGitignore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".gitignore"), "*.log\nbuild/\n")

	cfg := &Config{ReadGitIgnore: true}
	m := NewIgnoreMatcher(cfg, dir)

	if m.Classify("app.log", false) != Excluded {
		t.Error("expected app.log to be excluded by *.log")
	}
	if m.Classify("build", true) != Excluded {
		t.Error("expected build/ to be excluded")
	}
	if m.Classify("main.go", false) != Included {
		t.Error("expected main.go to be included")
	}
}

func TestIgnoreMatcherHierarchical(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, ".gitignore"), "*.tmp\n")
	writeFile(t, filepath.Join(sub, ".gitignore"), "*.cache\n")

	cfg := &Config{ReadGitIgnore: true}
	root := NewIgnoreMatcher(cfg, dir)

	if root.Classify("sub/a.cache", false) != Included {
		t.Error("a root-level matcher should not see sub/'s own .gitignore")
	}

	subMatcher := root.WithDirectory(sub)
	if subMatcher.Classify("sub/a.cache", false) != Excluded {
		t.Error("expected sub/a.cache to be excluded once sub/.gitignore is layered in")
	}
	if subMatcher.Classify("sub/a.tmp", false) != Excluded {
		t.Error("expected the parent's *.tmp rule to still apply under sub/")
	}
}

func TestIgnoreMatcherOverrideGlob(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{ExcludeGlobs: []string{"*.bak"}}
	m := NewIgnoreMatcher(cfg, dir)

	if m.Classify("notes.bak", false) != Excluded {
		t.Error("expected notes.bak to be excluded by the override glob")
	}
	if m.Classify("notes.txt", false) != Included {
		t.Error("expected notes.txt to be included")
	}
}

func TestIgnoreMatcherFdIgnore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".fdignore"), "secret/\n")

	cfg := &Config{ReadFdIgnore: true}
	m := NewIgnoreMatcher(cfg, dir)
	if m.Classify("secret", true) != Excluded {
		t.Error("expected secret/ to be excluded via .fdignore")
	}
}

func TestIgnoreMatcherNoIgnoreFilesRead(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".gitignore"), "*.log\n")

	cfg := &Config{} // ReadGitIgnore left false
	m := NewIgnoreMatcher(cfg, dir)
	if m.Classify("app.log", false) != Included {
		t.Error("expected .gitignore to be ignored entirely when ReadGitIgnore is false")
	}
}

func TestIgnoreMatcherFdIgnoreWhitelistsOverGitignore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".gitignore"), "*.foo\n")
	writeFile(t, filepath.Join(dir, ".fdignore"), "!keep.foo\n")

	cfg := &Config{ReadGitIgnore: true, ReadFdIgnore: true}
	m := NewIgnoreMatcher(cfg, dir)

	if m.Classify("other.foo", false) != Excluded {
		t.Error("expected other.foo to still be excluded by *.foo")
	}
	if status := m.Classify("keep.foo", false); status == Excluded {
		t.Error("expected .fdignore's !keep.foo to whitelist over .gitignore's *.foo exclusion")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
