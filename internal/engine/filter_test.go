package engine

import (
	"regexp"
	"testing"
	"time"
)

func TestParseSize(t *testing.T) {
	cases := []struct {
		in      string
		wantOp  SizeOp
		wantLen int64
	}{
		{"+10M", SizeMin, 10 * 1000 * 1000},
		{"-1k", SizeMax, 1000},
		{"500b", SizeEqual, 500},
		{"100", SizeEqual, 100},
	}
	for _, c := range cases {
		r, err := ParseSize(c.in)
		if err != nil {
			t.Errorf("ParseSize(%q) error: %v", c.in, err)
			continue
		}
		if r.Op != c.wantOp {
			t.Errorf("ParseSize(%q).Op = %v, want %v", c.in, r.Op, c.wantOp)
		}
		if r.Bytes != c.wantLen {
			t.Errorf("ParseSize(%q).Bytes = %d, want %d", c.in, r.Bytes, c.wantLen)
		}
	}
}

func TestParseSizeInvalid(t *testing.T) {
	if _, err := ParseSize(""); err == nil {
		t.Error("expected error for empty size specifier")
	}
	if _, err := ParseSize("not-a-size"); err == nil {
		t.Error("expected error for garbage size specifier")
	}
}

func TestSizeRangeMatches(t *testing.T) {
	min := SizeRange{Op: SizeMin, Bytes: 100}
	if !min.Matches(100) || !min.Matches(200) || min.Matches(50) {
		t.Error("SizeMin.Matches behaved incorrectly")
	}
	max := SizeRange{Op: SizeMax, Bytes: 100}
	if !max.Matches(100) || !max.Matches(50) || max.Matches(200) {
		t.Error("SizeMax.Matches behaved incorrectly")
	}
	eq := SizeRange{Op: SizeEqual, Bytes: 100}
	if !eq.Matches(100) || eq.Matches(99) {
		t.Error("SizeEqual.Matches behaved incorrectly")
	}
}

func TestParseTimeRelative(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	got, err := ParseTime("2h", now)
	if err != nil {
		t.Fatalf("ParseTime: %v", err)
	}
	want := now.Add(-2 * time.Hour)
	if !got.Equal(want) {
		t.Errorf("ParseTime(2h) = %v, want %v", got, want)
	}
}

func TestParseTimeDaysAndWeeks(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	got, err := ParseTime("2days", now)
	if err != nil {
		t.Fatalf("ParseTime: %v", err)
	}
	want := now.Add(-48 * time.Hour)
	if !got.Equal(want) {
		t.Errorf("ParseTime(2days) = %v, want %v", got, want)
	}

	got, err = ParseTime("1week", now)
	if err != nil {
		t.Fatalf("ParseTime: %v", err)
	}
	want = now.Add(-7 * 24 * time.Hour)
	if !got.Equal(want) {
		t.Errorf("ParseTime(1week) = %v, want %v", got, want)
	}
}

func TestParseTimeAbsolute(t *testing.T) {
	now := time.Now()
	got, err := ParseTime("2020-01-02", now)
	if err != nil {
		t.Fatalf("ParseTime: %v", err)
	}
	want := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseTime(2020-01-02) = %v, want %v", got, want)
	}
}

func TestParseTimeInvalid(t *testing.T) {
	if _, err := ParseTime("not a time", time.Now()); err == nil {
		t.Error("expected error for garbage time specifier")
	}
}

func TestParseOwner(t *testing.T) {
	lookupUID := func(name string) (uint32, bool) {
		if name == "alice" {
			return 501, true
		}
		return 0, false
	}
	lookupGID := func(name string) (uint32, bool) {
		if name == "staff" {
			return 20, true
		}
		return 0, false
	}

	f, err := ParseOwner("alice:staff", lookupUID, lookupGID)
	if err != nil {
		t.Fatalf("ParseOwner: %v", err)
	}
	if f.UID == nil || *f.UID != 501 {
		t.Errorf("UID = %v, want 501", f.UID)
	}
	if f.GID == nil || *f.GID != 20 {
		t.Errorf("GID = %v, want 20", f.GID)
	}

	f, err = ParseOwner("!alice", lookupUID, lookupGID)
	if err != nil {
		t.Fatalf("ParseOwner: %v", err)
	}
	if !f.UIDNegate {
		t.Error("expected UIDNegate to be true for \"!alice\"")
	}
	if f.GID != nil {
		t.Error("expected GID to be nil when only a user is given")
	}
}

func TestParseOwnerNumeric(t *testing.T) {
	f, err := ParseOwner("1000:1000", nil, nil)
	if err != nil {
		t.Fatalf("ParseOwner: %v", err)
	}
	if *f.UID != 1000 || *f.GID != 1000 {
		t.Errorf("got uid=%d gid=%d, want 1000/1000", *f.UID, *f.GID)
	}
}

func TestParseOwnerUnknown(t *testing.T) {
	if _, err := ParseOwner("nosuchuser", func(string) (uint32, bool) { return 0, false }, nil); err == nil {
		t.Error("expected error for unresolvable user name")
	}
}

func TestOwnerFilterMatches(t *testing.T) {
	uid := uint32(42)
	f := &OwnerFilter{UID: &uid}
	if !f.Matches(Metadata{Uid: 42}) {
		t.Error("expected match on equal uid")
	}
	if f.Matches(Metadata{Uid: 43}) {
		t.Error("expected no match on differing uid")
	}

	negated := &OwnerFilter{UID: &uid, UIDNegate: true}
	if negated.Matches(Metadata{Uid: 42}) {
		t.Error("negated filter should reject the matching uid")
	}
	if !negated.Matches(Metadata{Uid: 43}) {
		t.Error("negated filter should accept a differing uid")
	}
}

func TestCompileSmartCase(t *testing.T) {
	re, err := CompileSmartCase("readme", false, false)
	if err != nil {
		t.Fatalf("CompileSmartCase: %v", err)
	}
	if !re.MatchString("README") {
		t.Error("lowercase pattern should match case-insensitively by default")
	}

	re, err = CompileSmartCase("README", false, false)
	if err != nil {
		t.Fatalf("CompileSmartCase: %v", err)
	}
	if re.MatchString("readme") {
		t.Error("pattern with an uppercase letter should be case-sensitive")
	}
	if !re.MatchString("README") {
		t.Error("case-sensitive pattern should still match its exact case")
	}

	re, err = CompileSmartCase("README", false, true)
	if err != nil {
		t.Fatalf("CompileSmartCase: %v", err)
	}
	if !re.MatchString("readme") {
		t.Error("forceIgnoreCase should override smart-case and match lowercase")
	}
}

func TestBuildFilterChainMinDepth(t *testing.T) {
	cfg := &Config{MinDepth: 2}
	chain := BuildFilterChain(cfg)

	shallow := NewEntry("a", 1, TypeFile, false)
	deep := NewEntry("a/b", 2, TypeFile, false)

	if !chain.ShouldSkip(shallow) {
		t.Error("expected entry shallower than MinDepth to be skipped")
	}
	if chain.ShouldSkip(deep) {
		t.Error("expected entry at MinDepth to survive")
	}
}

func TestBuildFilterChainPattern(t *testing.T) {
	cfg := &Config{Pattern: regexp.MustCompile(`\.go$`)}
	chain := BuildFilterChain(cfg)

	if chain.ShouldSkip(NewEntry("main.go", 0, TypeFile, false)) {
		t.Error("expected main.go to survive the pattern filter")
	}
	if !chain.ShouldSkip(NewEntry("main.py", 0, TypeFile, false)) {
		t.Error("expected main.py to be skipped by the pattern filter")
	}
}

func TestBuildFilterChainGlobOverridesPattern(t *testing.T) {
	cfg := &Config{GlobPattern: "*.go", Pattern: regexp.MustCompile(`.*`)}
	chain := BuildFilterChain(cfg)

	if chain.ShouldSkip(NewEntry("main.go", 0, TypeFile, false)) {
		t.Error("expected main.go to match the glob")
	}
	if !chain.ShouldSkip(NewEntry("main.py", 0, TypeFile, false)) {
		t.Error("expected main.py to be rejected by the glob")
	}
}

func TestBuildFilterChainFileTypes(t *testing.T) {
	cfg := &Config{FileTypes: map[FileType]bool{TypeDir: true}}
	chain := BuildFilterChain(cfg)

	if chain.ShouldSkip(NewEntry("dir", 0, TypeDir, false)) {
		t.Error("expected a directory entry to survive the type filter")
	}
	if !chain.ShouldSkip(NewEntry("file", 0, TypeFile, false)) {
		t.Error("expected a file entry to be skipped by the type filter")
	}
}
