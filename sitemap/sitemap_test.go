package sitemap

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/southasianliver/sitetrans/config"
)

func testGenerator(t *testing.T) *Generator {
	t.Helper()
	cfg := config.Default(t.TempDir())
	g := New(cfg)
	g.now = func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return g
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"index", ""},
		{"about", "about"},
		{"blog/liver-health", "blog/liver-health"},
		{"services/index", "services"},
	}
	for _, tc := range tests {
		if got := NormalizePage(tc.in); got != tc.want {
			t.Errorf("NormalizePage(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLocalizedURL(t *testing.T) {
	g := testGenerator(t)
	base := "https://southasianliverinstitute.netlify.app"

	if got := g.LocalizedURL("about", "en"); got != base+"/about" {
		t.Errorf("default language URL = %q", got)
	}
	if got := g.LocalizedURL("about", "hi"); got != base+"/hi/about" {
		t.Errorf("hi URL = %q", got)
	}
	if got := g.LocalizedURL("", "te"); got != base+"/te/" {
		t.Errorf("te home URL = %q", got)
	}
}

func TestChangeFreq(t *testing.T) {
	tests := []struct {
		page, want string
	}{
		{"blog/fatty-liver", "weekly"},
		{"media/press-release", "weekly"},
		{"services/liver-transplantation", "monthly"},
		{"locations/hyderabad", "monthly"},
		{"", "weekly"},
		{"contact", "weekly"},
	}
	for _, tc := range tests {
		if got := ChangeFreq(tc.page); got != tc.want {
			t.Errorf("ChangeFreq(%q) = %q, want %q", tc.page, got, tc.want)
		}
	}
}

func TestPriority(t *testing.T) {
	tests := []struct {
		page, want string
	}{
		{"", "1.0"},
		{"services/endoscopy", "0.9"},
		{"about/founder", "0.9"},
		{"blog/liver-health", "0.8"},
		{"media/milestone", "0.8"},
		{"contact", "0.7"},
	}
	for _, tc := range tests {
		if got := Priority(tc.page); got != tc.want {
			t.Errorf("Priority(%q) = %q, want %q", tc.page, got, tc.want)
		}
	}
}

// The home page entry must carry an alternate for every enabled language
// plus x-default, with the default language unprefixed.
func TestBuildSitemapXML_HomeHreflang(t *testing.T) {
	g := testGenerator(t)
	xml := g.BuildSitemapXML([]string{""}, "en")
	base := "https://southasianliverinstitute.netlify.app"

	wantLines := []string{
		"<loc>" + base + "/</loc>",
		"<priority>1.0</priority>",
		`hreflang="en" href="` + base + `/"`,
		`hreflang="hi" href="` + base + `/hi/"`,
		`hreflang="te" href="` + base + `/te/"`,
		`hreflang="ta" href="` + base + `/ta/"`,
		`hreflang="bn" href="` + base + `/bn/"`,
		`hreflang="mr" href="` + base + `/mr/"`,
		`hreflang="x-default" href="` + base + `/"`,
	}
	for _, want := range wantLines {
		if !strings.Contains(xml, want) {
			t.Errorf("sitemap missing %q", want)
		}
	}
}

func TestBuildIndexXML(t *testing.T) {
	g := testGenerator(t)
	xml := g.BuildIndexXML()
	base := "https://southasianliverinstitute.netlify.app"

	if !strings.Contains(xml, "<loc>"+base+"/sitemap.xml</loc>") {
		t.Error("index missing main sitemap")
	}
	for _, code := range []string{"hi", "te", "ta", "bn", "mr"} {
		if !strings.Contains(xml, "<loc>"+base+"/sitemap-"+code+".xml</loc>") {
			t.Errorf("index missing sitemap-%s.xml", code)
		}
	}
	if strings.Contains(xml, "sitemap-en.xml") {
		t.Error("default language must not get its own sitemap")
	}
}

func TestGenerateWritesAllFiles(t *testing.T) {
	g := testGenerator(t)
	if err := g.Generate([]string{"index", "about", "blog/liver-health"}); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"sitemap.xml",
		"sitemap-hi.xml",
		"sitemap-te.xml",
		"sitemap-ta.xml",
		"sitemap-bn.xml",
		"sitemap-mr.xml",
		"sitemap-index.xml",
	}
	for _, name := range want {
		if _, err := os.Stat(filepath.Join(g.OutputDir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(g.OutputDir, "sitemap-hi.xml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "/hi/about") {
		t.Error("hi sitemap missing localized about URL")
	}
}
