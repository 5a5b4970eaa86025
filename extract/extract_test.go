package extract

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPageKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"index.astro", "index"},
		{"services.astro", "services"},
		{"services/index.astro", "services"},
		{"services/liver-transplantation.astro", "services/liver-transplantation"},
		{"about/about-us.astro", "about/about-us"},
		{filepath.Join("locations", "hyderabad.astro"), "locations/hyderabad"},
	}

	for _, tc := range cases {
		if got := PageKey(tc.in); got != tc.want {
			t.Errorf("PageKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func writePage(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func testExtractor(t *testing.T) *Extractor {
	t.Helper()
	root := t.TempDir()
	return &Extractor{
		PagesDir: filepath.Join(root, "pages"),
		CacheDir: filepath.Join(root, ".cache"),
	}
}

func TestExtractAll(t *testing.T) {
	e := testExtractor(t)

	writePage(t, e.PagesDir, "index.astro", `---
title: "South Asian Liver Institute"
---
<h1>Welcome to SALi</h1>
<p>We treat liver disease with world-class care.</p>`)
	writePage(t, e.PagesDir, "services/endoscopy.astro", `---
title: "Endoscopy"
---
<h1>Endoscopy Services</h1>`)
	writePage(t, e.PagesDir, "blog/[slug].astro", blogPageSrc)

	snap, err := e.ExtractAll()
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}

	if len(snap.StaticPages) != 2 {
		t.Fatalf("static pages = %d, want 2", len(snap.StaticPages))
	}
	home := snap.StaticPages["index"]
	if home == nil {
		t.Fatal("missing index page")
	}
	if home.Frontmatter["title"] != "South Asian Liver Institute" {
		t.Errorf("frontmatter title = %q", home.Frontmatter["title"])
	}
	if home.Content["heading-0"] != "Welcome to SALi" {
		t.Errorf("heading-0 = %q", home.Content["heading-0"])
	}

	if len(snap.DynamicPages) != 2 {
		t.Fatalf("dynamic pages = %d, want 2", len(snap.DynamicPages))
	}
	if snap.DynamicPages["blog/life-after-liver-transplant"] == nil {
		t.Error("missing blog/life-after-liver-transplant")
	}

	keys := snap.PageKeys()
	if len(keys) != 4 {
		t.Errorf("PageKeys = %#v, want 4 entries", keys)
	}
}

func TestExtractAll_MissingRootIsStructural(t *testing.T) {
	e := &Extractor{PagesDir: filepath.Join(t.TempDir(), "does-not-exist"), CacheDir: t.TempDir()}
	if _, err := e.ExtractAll(); err == nil {
		t.Fatal("expected error for missing pages root")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	e := testExtractor(t)
	writePage(t, e.PagesDir, "index.astro", `<h1>Welcome to SALi</h1>`)

	snap, err := e.ExtractAll()
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}

	loaded := e.LoadSnapshot()
	if loaded == nil {
		t.Fatal("LoadSnapshot returned nil")
	}
	if len(loaded.StaticPages) != len(snap.StaticPages) {
		t.Errorf("loaded %d pages, want %d", len(loaded.StaticPages), len(snap.StaticPages))
	}
	if loaded.StaticPages["index"].Content["heading-0"] != "Welcome to SALi" {
		t.Errorf("round-trip content mismatch: %#v", loaded.StaticPages["index"])
	}
}

func TestNeedsReExtraction(t *testing.T) {
	e := testExtractor(t)
	writePage(t, e.PagesDir, "index.astro", `<h1>Welcome to SALi</h1>`)

	if !e.NeedsReExtraction() {
		t.Fatal("fresh tree with no snapshot should need extraction")
	}
	if _, err := e.ExtractAll(); err != nil {
		t.Fatal(err)
	}
	if e.NeedsReExtraction() {
		t.Fatal("just-extracted tree should not need extraction")
	}
}
