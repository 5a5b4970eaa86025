// Package ledger implements sitetrans.lock — a ledger that tracks the
// content hash of every page last translated per language. status reads
// it to report which pages are fresh, stale, or never translated without
// touching the provider or the cache tree.
//
// The ledger is stored alongside sitetrans.yaml as sitetrans.lock.
package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileName is the ledger file name.
const FileName = "sitetrans.lock"

// Version is the ledger format version.
const Version = 1

// Ledger maps language -> page key -> content hash of the source page
// at the time it was last translated.
type Ledger struct {
	Version int                          `yaml:"version"`
	Pages   map[string]map[string]string `yaml:"pages"`

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// Load reads the ledger from the given directory. A missing file yields
// an empty ledger.
func Load(dir string) (*Ledger, error) {
	path := filepath.Join(dir, FileName)
	l := &Ledger{
		Version: Version,
		Pages:   make(map[string]map[string]string),
		path:    path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, l); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	l.path = path
	if l.Pages == nil {
		l.Pages = make(map[string]map[string]string)
	}

	return l, nil
}

// Save writes the ledger to disk.
func (l *Ledger) Save() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.path == "" {
		return fmt.Errorf("ledger path not set")
	}

	data, err := yaml.Marshal(l)
	if err != nil {
		return fmt.Errorf("marshaling ledger: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", l.path, err)
	}
	return nil
}

// Record stores the hash of a page after a successful translation.
func (l *Ledger) Record(lang, pageKey, hash string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.Pages[lang] == nil {
		l.Pages[lang] = make(map[string]string)
	}
	l.Pages[lang][pageKey] = hash
}

// Hash returns the recorded hash for a page, or empty when the page was
// never translated into the language.
func (l *Ledger) Hash(lang, pageKey string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Pages[lang][pageKey]
}

// IsStale reports whether a page needs retranslation: never recorded, or
// recorded against different source content.
func (l *Ledger) IsStale(lang, pageKey, hash string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	pages, ok := l.Pages[lang]
	if !ok {
		return true
	}
	recorded, ok := pages[pageKey]
	if !ok {
		return true
	}
	return recorded != hash
}

// Clean drops entries for pages no longer present in the site.
func (l *Ledger) Clean(lang string, currentPages []string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	recorded := l.Pages[lang]
	if recorded == nil {
		return
	}
	valid := make(map[string]bool, len(currentPages))
	for _, p := range currentPages {
		valid[p] = true
	}
	for p := range recorded {
		if !valid[p] {
			delete(recorded, p)
		}
	}
}

// RemoveLanguage drops all entries for a language.
func (l *Ledger) RemoveLanguage(lang string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.Pages, lang)
}

// Stats returns the number of languages and total recorded pages.
func (l *Ledger) Stats() (langs, pages int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	langs = len(l.Pages)
	for _, m := range l.Pages {
		pages += len(m)
	}
	return
}

// Languages returns the recorded language codes, sorted.
func (l *Ledger) Languages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, 0, len(l.Pages))
	for lang := range l.Pages {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}
