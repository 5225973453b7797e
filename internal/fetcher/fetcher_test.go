package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/starford/fehu/internal/apperr"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func TestCachePath_Deterministic(t *testing.T) {
	u := mustParse(t, "https://example.com/images/logo.png?v=2")
	first := CachePath("/cache", u)
	second := CachePath("/cache", mustParse(t, "https://example.com/images/logo.png?v=2"))
	if first != second {
		t.Errorf("cache paths differ for identical URLs: %q vs %q", first, second)
	}
	if !strings.HasSuffix(first, ".png") {
		t.Errorf("cache path %q missing extension from last segment", first)
	}
}

func TestCachePath_QueryChangesKey(t *testing.T) {
	a := CachePath("/cache", mustParse(t, "https://example.com/logo.png?v=1"))
	b := CachePath("/cache", mustParse(t, "https://example.com/logo.png?v=2"))
	if a == b {
		t.Error("distinct URLs mapped to the same cache path")
	}
}

func TestCachePath_NoExtension(t *testing.T) {
	for _, raw := range []string{
		"https://example.com/logo",
		"https://example.com/logo.",
		"https://example.com/",
		"https://example.com",
	} {
		p := CachePath("/cache", mustParse(t, raw))
		base := filepath.Base(p)
		if strings.Contains(base, ".") {
			t.Errorf("CachePath(%q) = %q, want bare hash with no extension", raw, p)
		}
		if len(base) != 64 {
			t.Errorf("CachePath(%q) basename length = %d, want 64 hex chars", raw, len(base))
		}
	}
}

func TestFetchOrCache_FetchesExactlyOnce(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	f := New(srv.Client())
	cacheDir := filepath.Join(t.TempDir(), "cache")
	u := mustParse(t, srv.URL+"/logo.png")

	first, err := f.FetchOrCache(context.Background(), u, cacheDir)
	if err != nil {
		t.Fatalf("first FetchOrCache: %v", err)
	}
	second, err := f.FetchOrCache(context.Background(), u, cacheDir)
	if err != nil {
		t.Fatalf("second FetchOrCache: %v", err)
	}
	if first != second {
		t.Errorf("paths differ: %q vs %q", first, second)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server hit %d times, want exactly 1", n)
	}
	data, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("read cached file: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("cached content = %q", data)
	}
}

func TestFetchOrCache_FileScheme(t *testing.T) {
	srcDir := t.TempDir()
	srcFile := filepath.Join(srcDir, "rust-logo.png")
	if err := os.WriteFile(srcFile, []byte("local-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := New(nil)
	cacheDir := filepath.Join(t.TempDir(), "cache")
	u := mustParse(t, "file://"+srcFile)

	got, err := f.FetchOrCache(context.Background(), u, cacheDir)
	if err != nil {
		t.Fatalf("FetchOrCache: %v", err)
	}
	if filepath.Dir(got) != cacheDir {
		t.Errorf("cached file %q not in cache dir %q", got, cacheDir)
	}
	data, err := os.ReadFile(got)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "local-bytes" {
		t.Errorf("content = %q", data)
	}
}

func TestFetchOrCache_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := New(srv.Client())
	cacheDir := filepath.Join(t.TempDir(), "cache")
	_, err := f.FetchOrCache(context.Background(), mustParse(t, srv.URL+"/gone.png"), cacheDir)
	if !errors.Is(err, apperr.ErrFetch) {
		t.Errorf("error = %v, want ErrFetch", err)
	}
	// A failed fetch must not leave a file behind that a later run would
	// mistake for a hit.
	entries, readErr := os.ReadDir(cacheDir)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if len(entries) != 0 {
		t.Errorf("cache dir not empty after failed fetch: %v", entries)
	}
}

func TestFetchOrCache_MissingLocalFile(t *testing.T) {
	f := New(nil)
	cacheDir := filepath.Join(t.TempDir(), "cache")
	u := mustParse(t, "file:///nonexistent/asset.png")
	_, err := f.FetchOrCache(context.Background(), u, cacheDir)
	if !errors.Is(err, apperr.ErrFetch) {
		t.Errorf("error = %v, want ErrFetch", err)
	}
}

func TestFetchOrCache_DirectoryAtCachePath(t *testing.T) {
	f := New(nil)
	cacheDir := t.TempDir()
	u := mustParse(t, "https://example.com/logo.png")

	// A directory squatting on the cache path is not a hit.
	if err := os.Mkdir(CachePath(cacheDir, u), 0o755); err != nil {
		t.Fatal(err)
	}
	_, err := f.FetchOrCache(context.Background(), u, cacheDir)
	if !errors.Is(err, apperr.ErrCacheWrite) {
		t.Errorf("error = %v, want ErrCacheWrite", err)
	}
}

func TestFetchOrCache_CreatesCacheDir(t *testing.T) {
	srcDir := t.TempDir()
	srcFile := filepath.Join(srcDir, "a.svg")
	if err := os.WriteFile(srcFile, []byte("<svg/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := New(nil)
	cacheDir := filepath.Join(t.TempDir(), "deep", "nested", "cache")
	if _, err := f.FetchOrCache(context.Background(), mustParse(t, "file://"+srcFile), cacheDir); err != nil {
		t.Fatalf("FetchOrCache: %v", err)
	}
}
