package extract

import (
	"regexp"
	"strings"
)

// DynamicContent holds the slug table parsed from a dynamic route page
// (blog/[slug] or media/[slug]) whose content lives in an in-source map
// rather than literal markup.
type DynamicContent struct {
	Slugs          []string
	ContentObjects map[string]map[string]string
}

var (
	staticPathsRe = regexp.MustCompile(`(?s)export function getStaticPaths\(\)\s*\{(.*?)\n\}`)
	slugRe        = regexp.MustCompile("slug:\\s*['\"`]([^'\"`]+)['\"`]")
	objectTableRe = regexp.MustCompile(`(?s)const\s+\w+[Aa]rticles?\s*=\s*\{(.*?)\};`)
	objectEntryRe = regexp.MustCompile(`(?s)'([^']+)':\s*\{(.*?)\}`)
	fieldRe       = regexp.MustCompile(`(?m)^\s*(\w+):\s*(.+?),?\s*$`)
)

// ExtractDynamic parses a dynamic route page source into its slug list and
// per-slug flat content records. Only direct key: value pairs are parsed;
// nested structures are not supported.
func ExtractDynamic(src string) *DynamicContent {
	pathsMatch := staticPathsRe.FindStringSubmatch(src)
	if pathsMatch == nil {
		return nil
	}

	var slugs []string
	for _, m := range slugRe.FindAllStringSubmatch(pathsMatch[1], -1) {
		slugs = append(slugs, m[1])
	}

	tableMatch := objectTableRe.FindStringSubmatch(src)
	if tableMatch == nil {
		return nil
	}

	objects := make(map[string]map[string]string)
	for _, m := range objectEntryRe.FindAllStringSubmatch(tableMatch[1], -1) {
		objects[m[1]] = parseObjectFields(m[2])
	}

	return &DynamicContent{Slugs: slugs, ContentObjects: objects}
}

// parseObjectFields reads direct key: value lines from an object literal body.
func parseObjectFields(body string) map[string]string {
	fields := make(map[string]string)
	for _, m := range fieldRe.FindAllStringSubmatch(body, -1) {
		fields[m[1]] = stripLiteralQuotes(m[2])
	}
	return fields
}

func stripLiteralQuotes(s string) string {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ","))
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '\'' || first == '"' || first == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// dynamicMetaFields are the object fields carried into a page's meta mapping.
var dynamicMetaFields = []string{"title", "excerpt", "category", "author", "date"}

// PageContents converts the slug table into per-slug PageContent records
// keyed "{section}/{slug}".
func (d *DynamicContent) PageContents(section string) []*PageContent {
	var pages []*PageContent
	for _, slug := range d.Slugs {
		obj, ok := d.ContentObjects[slug]
		if !ok {
			continue
		}

		meta := make(map[string]string)
		for _, field := range dynamicMetaFields {
			if v := obj[field]; v != "" {
				meta[field] = v
			}
		}

		content := make(map[string]string)
		var keys []string
		if body := obj["content"]; body != "" {
			content["main-content"] = body
			keys = append(keys, "main-content")
		}

		pages = append(pages, &PageContent{
			PageKey:     section + "/" + slug,
			Frontmatter: map[string]string{},
			Meta:        meta,
			Content:     content,
			ContentKeys: keys,
		})
	}
	return pages
}
