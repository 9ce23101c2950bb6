package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLLMCache_SaveGet(t *testing.T) {
	c := &LLMCache{Dir: t.TempDir()}
	key := KeyFrom("model", "Please summarize the following text:\n\nA b c.")
	data := []byte(`{"text":"summary"}`)
	if err := c.Save(context.Background(), key, data); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := c.Get(context.Background(), key)
	if err != nil || !ok {
		t.Fatalf("get: %v ok=%v", err, ok)
	}
	if string(got) != string(data) {
		t.Fatalf("mismatch: %q", got)
	}
	if _, ok, _ := c.Get(context.Background(), KeyFrom("model", "other")); ok {
		t.Fatal("expected miss for unknown key")
	}
}

func TestKeyFrom_DependsOnModelAndPrompt(t *testing.T) {
	if KeyFrom("a", "p") == KeyFrom("b", "p") {
		t.Fatal("model must change the key")
	}
	if KeyFrom("a", "p") == KeyFrom("a", "q") {
		t.Fatal("prompt must change the key")
	}
	if KeyFrom("a", "p") != KeyFrom("a", "p") {
		t.Fatal("key must be deterministic")
	}
}

func TestLLMCache_NoDir(t *testing.T) {
	c := &LLMCache{}
	if _, _, err := c.Get(context.Background(), "k"); err == nil {
		t.Fatal("expected error without dir")
	}
}

func TestHTTPCache_SaveLoad(t *testing.T) {
	c := &HTTPCache{Dir: t.TempDir()}
	url := "https://example.com/article"
	if err := c.Save(context.Background(), url, "text/html", `"v1"`, "Mon, 02 Jan 2006 15:04:05 GMT", []byte("<p>hi</p>")); err != nil {
		t.Fatalf("save: %v", err)
	}
	meta, err := c.LoadMeta(context.Background(), url)
	if err != nil {
		t.Fatalf("meta: %v", err)
	}
	if meta.ETag != `"v1"` || meta.URL != url || meta.SavedAt.IsZero() {
		t.Fatalf("unexpected meta %+v", meta)
	}
	body, err := c.LoadBody(context.Background(), url)
	if err != nil || string(body) != "<p>hi</p>" {
		t.Fatalf("body %q err %v", body, err)
	}
	if _, err := c.LoadMeta(context.Background(), "https://example.com/missing"); err == nil {
		t.Fatal("expected error for missing entry")
	}
}

func TestStrictPerms(t *testing.T) {
	base := t.TempDir()
	llmDir := filepath.Join(base, "llm")
	lc := &LLMCache{Dir: llmDir, StrictPerms: true}
	key := KeyFrom("m", "p")
	if err := lc.Save(context.Background(), key, []byte("{}")); err != nil {
		t.Fatalf("save: %v", err)
	}
	assertMode(t, llmDir, 0o700)
	assertMode(t, filepath.Join(llmDir, key+".json"), 0o600)

	httpDir := filepath.Join(base, "http")
	hc := &HTTPCache{Dir: httpDir, StrictPerms: true}
	if err := hc.Save(context.Background(), "https://x.test/", "text/html", "", "", []byte("x")); err != nil {
		t.Fatalf("save: %v", err)
	}
	assertMode(t, httpDir, 0o700)
	entries, _ := os.ReadDir(httpDir)
	if len(entries) != 2 {
		t.Fatalf("expected meta and body, got %d files", len(entries))
	}
	for _, e := range entries {
		assertMode(t, filepath.Join(httpDir, e.Name()), 0o600)
	}
}

func assertMode(t *testing.T, path string, want os.FileMode) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	if got := info.Mode().Perm(); got != want {
		t.Fatalf("%s mode = %o, want %o", path, got, want)
	}
}

func TestPurgeByAge(t *testing.T) {
	dir := t.TempDir()
	hc := &HTTPCache{Dir: dir}
	lc := &LLMCache{Dir: dir}
	if err := hc.Save(context.Background(), "https://old.test/", "text/html", "", "", []byte("old")); err != nil {
		t.Fatal(err)
	}
	oldKey := KeyFrom("m", "old")
	newKey := KeyFrom("m", "new")
	_ = lc.Save(context.Background(), oldKey, []byte("{}"))
	_ = lc.Save(context.Background(), newKey, []byte("{}"))

	// Age the page entry by rewriting its SavedAt and the old response by mtime.
	metaPath, _ := hc.paths("https://old.test/")
	stale := []byte(`{"url":"https://old.test/","saved_at":"2000-01-01T00:00:00Z"}`)
	if err := os.WriteFile(metaPath, stale, 0o644); err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(lc.pathFor(oldKey), past, past); err != nil {
		t.Fatal(err)
	}

	removed, err := PurgeByAge(dir, 24*time.Hour)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removals, got %d", removed)
	}
	if _, err := hc.LoadBody(context.Background(), "https://old.test/"); err == nil {
		t.Fatal("expected old body removed")
	}
	if _, ok, _ := lc.Get(context.Background(), newKey); !ok {
		t.Fatal("fresh entry should survive")
	}
	if n, err := PurgeByAge(filepath.Join(dir, "absent"), time.Hour); n != 0 || err != nil {
		t.Fatalf("missing dir: n=%d err=%v", n, err)
	}
}

func TestClearDir(t *testing.T) {
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "x.json"), []byte("{}"), 0o644)
	if err := ClearDir(dir); err != nil {
		t.Fatalf("clear: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected empty dir, got %d entries err=%v", len(entries), err)
	}
	if err := ClearDir("  "); err == nil {
		t.Fatal("expected error for blank dir")
	}
}
