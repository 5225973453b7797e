package resolver

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/fehu/internal/apperr"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		raw  string
		kind Kind
	}{
		{"https://example.com/logo.png", KindRemote},
		{"http://example.com", KindRemote},
		{"file:///tmp/x.png", KindRemote},
		{"./rust-logo.png", KindLocal},
		{"reddit.svg", KindLocal},
		{"../images/a.png", KindLocal},
		{"to/nowhere", KindLocal},
		{"not a url at all !!", KindLocal},
		{"//example.com/schemeless", KindLocal},
		{"", KindLocal},
	}
	for _, c := range cases {
		got := Classify(c.raw)
		if got.Kind != c.kind {
			t.Errorf("Classify(%q).Kind = %v, want %v", c.raw, got.Kind, c.kind)
		}
		if got.Raw != c.raw {
			t.Errorf("Classify(%q).Raw = %q, original string must be retained", c.raw, got.Raw)
		}
		if c.kind == KindRemote && got.URL == nil {
			t.Errorf("Classify(%q): remote link missing URL", c.raw)
		}
	}
}

func TestResolveLocal_Deterministic(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "logo.png"), []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	first, err := ResolveLocal("./logo.png", dir)
	if err != nil {
		t.Fatalf("ResolveLocal: %v", err)
	}
	second, err := ResolveLocal("./logo.png", dir)
	if err != nil {
		t.Fatalf("ResolveLocal: %v", err)
	}
	if first != second {
		t.Errorf("paths differ: %q vs %q", first, second)
	}
	if !filepath.IsAbs(first) {
		t.Errorf("resolved path %q is not absolute", first)
	}
}

func TestResolveLocal_ParentTraversal(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "chapters")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "up.png"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ResolveLocal("../up.png", sub)
	if err != nil {
		t.Fatalf("ResolveLocal: %v", err)
	}
	want, _ := Canonicalize(filepath.Join(dir, "up.png"))
	if got != want {
		t.Errorf("resolved = %q, want %q", got, want)
	}
}

func TestResolveLocal_NotFoundNamesPath(t *testing.T) {
	dir := t.TempDir()
	_, err := ResolveLocal("missing.png", dir)
	if err == nil {
		t.Fatal("expected error for missing target")
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), filepath.Join(dir, "missing.png")) {
		t.Errorf("error %q does not name the attempted path", err)
	}
}

func TestEnsureFile_Directory(t *testing.T) {
	dir := t.TempDir()
	err := EnsureFile(dir)
	if !errors.Is(err, apperr.ErrNotAFile) {
		t.Errorf("error = %v, want ErrNotAFile", err)
	}
}

func TestEnsureFile_Regular(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.svg")
	if err := os.WriteFile(p, []byte("<svg/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := EnsureFile(p); err != nil {
		t.Errorf("EnsureFile: %v", err)
	}
}
