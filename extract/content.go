// Package extract parses page sources into translatable content mappings.
//
// Pages are Astro-style: an optional --- frontmatter block of key: value
// lines followed by an HTML body. The body is scanned with goquery for
// text-bearing elements in a fixed category order, and each candidate
// string is filtered through the translatability predicate before keying.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Content categories, in extraction order. Headings always contribute the
// lowest indices, buttons the highest.
const (
	CategoryHeading   = "heading"
	CategoryParagraph = "paragraph"
	CategoryText      = "text"
	CategoryListItem  = "list-item"
	CategoryButton    = "button"
)

// minSpanLength is the minimum text length for span elements to be extracted.
const minSpanLength = 10

// PageContent is one page's extractable state.
type PageContent struct {
	PageKey     string            `json:"pageKey"`
	FilePath    string            `json:"filePath,omitempty"`
	Frontmatter map[string]string `json:"frontmatter"`
	Meta        map[string]string `json:"meta"`
	Content     map[string]string `json:"content"`

	// ContentKeys preserves extraction order for index-stable batching.
	ContentKeys []string `json:"contentKeys,omitempty"`
}

var (
	scriptRe      = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	frontmatterRe = regexp.MustCompile(`(?m)^(\w+):\s*(.+)$`)
	numericRe     = regexp.MustCompile(`^[\d\s\-_./:+()]+$`)
	constantRe    = regexp.MustCompile(`^[A-Z_]+$`)
	alphaRe       = regexp.MustCompile(`[a-zA-Z]`)
	spaceRe       = regexp.MustCompile(`\s+`)
)

// ParsePage splits a page source into frontmatter and HTML body.
// Frontmatter is a leading ---…--- block of key: value lines with quotes
// stripped. Script blocks are removed from the body before extraction.
func ParsePage(src string) (frontmatter map[string]string, body string) {
	frontmatter = make(map[string]string)
	body = src

	trimmed := strings.TrimLeft(src, "\n\r")
	if strings.HasPrefix(trimmed, "---") {
		rest := trimmed[3:]
		if idx := strings.Index(rest, "\n---"); idx >= 0 {
			block := rest[:idx]
			body = rest[idx+4:]
			for _, m := range frontmatterRe.FindAllStringSubmatch(block, -1) {
				frontmatter[m[1]] = stripQuotes(m[2])
			}
		}
	}

	body = StripScripts(strings.TrimSpace(body))
	return frontmatter, body
}

// StripScripts removes embedded <script> blocks, which are never translatable.
func StripScripts(html string) string {
	return scriptRe.ReplaceAllString(html, "")
}

func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// Translatable is the translatability predicate: it reports whether a text
// fragment is worth sending to the translation provider.
func Translatable(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	// Mostly numbers, punctuation, or separators (dates, phone numbers).
	if numericRe.MatchString(trimmed) {
		return false
	}
	// URLs and email addresses.
	if strings.Contains(trimmed, "http") || strings.Contains(trimmed, "@") || strings.Contains(trimmed, "www.") {
		return false
	}
	// Very short text is navigation chrome, not prose.
	if len(trimmed) < 5 {
		return false
	}
	// Constant-style identifiers.
	if constantRe.MatchString(trimmed) && len(trimmed) > 5 {
		return false
	}
	// Icon and CSS class leakage.
	if strings.Contains(trimmed, "icon-") || strings.Contains(trimmed, "fa-") || strings.Contains(trimmed, "class=") {
		return false
	}
	return alphaRe.MatchString(trimmed)
}

// normalizeText flattens an element's inner text: nested tags are already
// stripped by the DOM text accessor; whitespace runs collapse to one space.
func normalizeText(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// ExtractTranslatable scans an HTML body for translatable strings and keys
// them "{category}-{n}" with a single counter shared across categories.
// Given identical input it produces identical keys and values every run.
func ExtractTranslatable(body string) (map[string]string, []string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("parsing page body: %w", err)
	}
	doc.Find("script, style").Remove()

	content := make(map[string]string)
	var keys []string
	index := 0

	add := func(category, text string) {
		key := fmt.Sprintf("%s-%d", category, index)
		content[key] = text
		keys = append(keys, key)
		index++
	}

	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		if text := normalizeText(s.Text()); Translatable(text) {
			add(CategoryHeading, text)
		}
	})
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if text := normalizeText(s.Text()); Translatable(text) {
			add(CategoryParagraph, text)
		}
	})
	doc.Find("span").Each(func(_ int, s *goquery.Selection) {
		if text := normalizeText(s.Text()); Translatable(text) && len(text) > minSpanLength {
			add(CategoryText, text)
		}
	})
	doc.Find("li").Each(func(_ int, s *goquery.Selection) {
		if text := normalizeText(s.Text()); Translatable(text) {
			add(CategoryListItem, text)
		}
	})
	doc.Find("button, a").Each(func(_ int, s *goquery.Selection) {
		if text := normalizeText(s.Text()); Translatable(text) {
			add(CategoryButton, text)
		}
	})

	return content, keys, nil
}

// ParsePageContent extracts a full PageContent from raw page source.
func ParsePageContent(pageKey, src string) (*PageContent, error) {
	frontmatter, body := ParsePage(src)

	content, keys, err := ExtractTranslatable(body)
	if err != nil {
		return nil, err
	}

	return &PageContent{
		PageKey:     pageKey,
		Frontmatter: frontmatter,
		Meta:        map[string]string{},
		Content:     content,
		ContentKeys: keys,
	}, nil
}
