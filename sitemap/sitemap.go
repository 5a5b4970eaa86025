// Package sitemap generates the multi-language sitemap set: the default
// language sitemap, one sitemap per enabled target language, and the
// sitemap index, all carrying hreflang alternates.
package sitemap

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/southasianliver/sitetrans/config"
)

// Generator builds and writes the sitemap files.
type Generator struct {
	// BaseURL is the canonical site URL, without trailing slash.
	BaseURL string
	// DefaultLanguage is the source language code.
	DefaultLanguage string
	// Languages is the enabled language set, default included.
	Languages []config.Language
	// OutputDir receives the generated XML files.
	OutputDir string
	// OnLog emits progress messages.
	OnLog func(format string, args ...any)

	// now allows tests to control lastmod timestamps.
	now func() time.Time
}

// New wires a Generator from the resolved configuration.
func New(cfg *config.Config) *Generator {
	return &Generator{
		BaseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		DefaultLanguage: cfg.DefaultLanguage,
		Languages:       cfg.EnabledLanguages(),
		OutputDir:       cfg.OutputRoot(),
	}
}

func (g *Generator) log(format string, args ...any) {
	if g.OnLog != nil {
		g.OnLog(format, args...)
	}
}

func (g *Generator) clock() time.Time {
	if g.now != nil {
		return g.now()
	}
	return time.Now()
}

// NormalizePage maps a page key to its URL path segment. The root page
// key becomes the empty path (site home).
func NormalizePage(pageKey string) string {
	if pageKey == "index" {
		return ""
	}
	return strings.TrimSuffix(pageKey, "/index")
}

// LocalizedURL returns the absolute URL for a page in a language. The
// default language carries no prefix; every other language is prefixed
// with its code.
func (g *Generator) LocalizedURL(page, lang string) string {
	if lang == g.DefaultLanguage {
		return g.BaseURL + "/" + page
	}
	return g.BaseURL + "/" + lang + "/" + page
}

// ChangeFreq classifies a page's update cadence: article sections weekly,
// service and location pages monthly, everything else weekly.
func ChangeFreq(page string) string {
	switch {
	case strings.Contains(page, "blog/") || strings.Contains(page, "media/"):
		return "weekly"
	case strings.Contains(page, "services/") || strings.Contains(page, "locations/"):
		return "monthly"
	default:
		return "weekly"
	}
}

// Priority ranks a page for crawlers: home highest, core service and
// about pages next, articles after that.
func Priority(page string) string {
	switch {
	case page == "":
		return "1.0"
	case strings.Contains(page, "services/") || strings.Contains(page, "about/"):
		return "0.9"
	case strings.Contains(page, "blog/") || strings.Contains(page, "media/"):
		return "0.8"
	default:
		return "0.7"
	}
}

type hreflangLink struct {
	lang string
	href string
}

// hreflangLinks lists alternates for every enabled language plus the
// x-default pointing at the default language URL.
func (g *Generator) hreflangLinks(page string) []hreflangLink {
	links := make([]hreflangLink, 0, len(g.Languages)+1)
	for _, lang := range g.Languages {
		links = append(links, hreflangLink{lang: lang.Code, href: g.LocalizedURL(page, lang.Code)})
	}
	links = append(links, hreflangLink{lang: "x-default", href: g.LocalizedURL(page, g.DefaultLanguage)})
	return links
}

// BuildSitemapXML renders one language's sitemap for the given pages.
func (g *Generator) BuildSitemapXML(pages []string, lang string) string {
	lastmod := g.clock().UTC().Format(time.RFC3339)

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9" `)
	b.WriteString(`xmlns:xhtml="http://www.w3.org/1999/xhtml">` + "\n")

	for _, page := range pages {
		b.WriteString("  <url>\n")
		fmt.Fprintf(&b, "    <loc>%s</loc>\n", g.LocalizedURL(page, lang))
		fmt.Fprintf(&b, "    <lastmod>%s</lastmod>\n", lastmod)
		fmt.Fprintf(&b, "    <changefreq>%s</changefreq>\n", ChangeFreq(page))
		fmt.Fprintf(&b, "    <priority>%s</priority>\n", Priority(page))
		for _, link := range g.hreflangLinks(page) {
			fmt.Fprintf(&b, "    <xhtml:link rel=\"alternate\" hreflang=\"%s\" href=\"%s\" />\n", link.lang, link.href)
		}
		b.WriteString("  </url>\n")
	}

	b.WriteString("</urlset>")
	return b.String()
}

// BuildIndexXML renders the sitemap index covering the main sitemap and
// the per-language sitemaps.
func (g *Generator) BuildIndexXML() string {
	lastmod := g.clock().UTC().Format(time.RFC3339)

	locs := []string{g.BaseURL + "/sitemap.xml"}
	for _, lang := range g.Languages {
		if lang.Code != g.DefaultLanguage {
			locs = append(locs, fmt.Sprintf("%s/sitemap-%s.xml", g.BaseURL, lang.Code))
		}
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	for _, loc := range locs {
		b.WriteString("  <sitemap>\n")
		fmt.Fprintf(&b, "    <loc>%s</loc>\n", loc)
		fmt.Fprintf(&b, "    <lastmod>%s</lastmod>\n", lastmod)
		b.WriteString("  </sitemap>\n")
	}
	b.WriteString("</sitemapindex>")
	return b.String()
}

// Generate writes sitemap.xml, one sitemap per target language, and
// sitemap-index.xml for the given page keys.
func (g *Generator) Generate(pageKeys []string) error {
	pages := make([]string, 0, len(pageKeys))
	for _, key := range pageKeys {
		pages = append(pages, NormalizePage(key))
	}
	sort.Strings(pages)

	if err := os.MkdirAll(g.OutputDir, 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	write := func(name, content string) error {
		path := filepath.Join(g.OutputDir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		return nil
	}

	if err := write("sitemap.xml", g.BuildSitemapXML(pages, g.DefaultLanguage)); err != nil {
		return err
	}
	g.log("generated main sitemap with %d URLs", len(pages))

	for _, lang := range g.Languages {
		if lang.Code == g.DefaultLanguage {
			continue
		}
		if err := write(fmt.Sprintf("sitemap-%s.xml", lang.Code), g.BuildSitemapXML(pages, lang.Code)); err != nil {
			return err
		}
		g.log("generated %s sitemap with %d URLs", lang.Code, len(pages))
	}

	if err := write("sitemap-index.xml", g.BuildIndexXML()); err != nil {
		return err
	}
	g.log("generated sitemap index")

	return nil
}
