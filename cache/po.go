package cache

import (
	"fmt"
	"time"

	"github.com/leonelquinteros/gotext"

	"github.com/southasianliver/sitetrans/extract"
)

// ImportPO converts a gettext PO catalog into an override record for one
// page. Catalog msgids are matched against the page's extracted source
// strings; each translated entry fills the corresponding meta or content
// key. Entries with an empty msgstr and msgids not present on the page are
// ignored. Returns an error when nothing in the catalog matches the page.
//
// PO catalogs are the format translators actually hand back, so this is
// the bridge from human translation workflows into the overrides dir.
func ImportPO(data []byte, page *extract.PageContent, sourceLang, targetLang string) (*TranslationRecord, error) {
	po := gotext.NewPo()
	po.Parse(data)

	// Reverse index: source string -> keys that carry it. Duplicate
	// strings on a page legitimately share one translation.
	type slot struct {
		meta bool
		key  string
	}
	index := make(map[string][]slot)
	for k, v := range page.Frontmatter {
		index[v] = append(index[v], slot{meta: true, key: k})
	}
	for k, v := range page.Meta {
		index[v] = append(index[v], slot{meta: true, key: k})
	}
	for k, v := range page.Content {
		index[v] = append(index[v], slot{meta: false, key: k})
	}

	rec := &TranslationRecord{
		Meta:           map[string]string{},
		Content:        map[string]string{},
		TranslatedAt:   time.Now(),
		SourceLanguage: sourceLang,
		TargetLanguage: targetLang,
	}

	matched := 0
	for _, t := range po.GetDomain().GetTranslations() {
		msgstr := t.Get()
		if msgstr == "" || msgstr == t.ID {
			continue
		}
		for _, sl := range index[t.ID] {
			if sl.meta {
				rec.Meta[sl.key] = msgstr
			} else {
				rec.Content[sl.key] = msgstr
			}
			matched++
		}
	}

	if matched == 0 {
		return nil, fmt.Errorf("no catalog entries match page %s", page.PageKey)
	}
	return rec, nil
}
