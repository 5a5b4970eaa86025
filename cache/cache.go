// Package cache implements the persisted translation store: content-hash
// keyed cache entries with a TTL, never-expiring manual overrides, and the
// per-language output files consumed by the site build.
//
// Cache entries are keyed {source}-{target}-{md5(content)} where the digest
// is computed over the canonical JSON form of the page content. Go's JSON
// encoder writes map keys in sorted order, so equal content always hashes
// equal regardless of insertion order.
package cache

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultMaxAge is the cache entry TTL: 7 days.
const DefaultMaxAge = 7 * 24 * time.Hour

// CombinedFileName is the per-language combined output file.
const CombinedFileName = "all-translations.json"

// TranslationRecord is the result of translating one page into one language.
type TranslationRecord struct {
	Meta           map[string]string `json:"meta"`
	Content        map[string]string `json:"content"`
	TranslatedAt   time.Time         `json:"translatedAt"`
	SourceLanguage string            `json:"sourceLanguage"`
	TargetLanguage string            `json:"targetLanguage"`
}

// entry is the persisted cache wrapper.
type entry struct {
	SourceLanguage string             `json:"sourceLanguage"`
	TargetLanguage string             `json:"targetLanguage"`
	Content        json.RawMessage    `json:"content"`
	Translation    *TranslationRecord `json:"translation"`
	Timestamp      time.Time          `json:"timestamp"`
}

// Store persists cache entries, overrides, and per-language outputs.
type Store struct {
	// Dir is the cache root (entries live directly under it, outputs
	// under Dir/{lang}/).
	Dir string
	// OverridesDir holds manual overrides: {OverridesDir}/{lang}/{pageKey}.json.
	OverridesDir string
	// MaxAge is the entry TTL; zero means DefaultMaxAge.
	MaxAge time.Duration
	// OnLog emits log messages. Nil disables logging.
	OnLog func(format string, args ...any)

	// now allows tests to control the clock.
	now func() time.Time
}

// New returns a Store rooted at dir with overrides in overridesDir.
func New(dir, overridesDir string) *Store {
	return &Store{
		Dir:          dir,
		OverridesDir: overridesDir,
		MaxAge:       DefaultMaxAge,
	}
}

func (s *Store) log(format string, args ...any) {
	if s.OnLog != nil {
		s.OnLog(format, args...)
	}
}

func (s *Store) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *Store) maxAge() time.Duration {
	if s.MaxAge > 0 {
		return s.MaxAge
	}
	return DefaultMaxAge
}

// ContentHash returns the md5 digest of the canonical JSON form of content.
func ContentHash(content any) (string, error) {
	data, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("hashing content: %w", err)
	}
	return fmt.Sprintf("%x", md5.Sum(data)), nil
}

// Key builds the cache key for a content/language pair.
func Key(content any, sourceLang, targetLang string) (string, error) {
	hash, err := ContentHash(content)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%s", sourceLang, targetLang, hash), nil
}

func (s *Store) entryPath(key string) string {
	return filepath.Join(s.Dir, key+".json")
}

// Get returns the cached translation for content, or nil on miss.
// Expired entries are deleted on read. Read or parse failures are treated
// as misses and logged, never propagated.
func (s *Store) Get(content any, sourceLang, targetLang string) *TranslationRecord {
	key, err := Key(content, sourceLang, targetLang)
	if err != nil {
		s.log("cache key for %s->%s: %v", sourceLang, targetLang, err)
		return nil
	}
	path := s.entryPath(key)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		s.log("corrupt cache entry %s: %v", path, err)
		return nil
	}

	if s.clock().Sub(e.Timestamp) >= s.maxAge() {
		s.log("cache expired for %s -> %s, removing", sourceLang, targetLang)
		if err := os.Remove(path); err != nil {
			s.log("removing expired entry %s: %v", path, err)
		}
		return nil
	}

	return e.Translation
}

// Put writes a cache entry unconditionally, overwriting any existing one.
func (s *Store) Put(content any, sourceLang, targetLang string, translation *TranslationRecord) error {
	key, err := Key(content, sourceLang, targetLang)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("marshaling content: %w", err)
	}

	e := entry{
		SourceLanguage: sourceLang,
		TargetLanguage: targetLang,
		Content:        raw,
		Translation:    translation,
		Timestamp:      s.clock(),
	}

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	if err := os.WriteFile(s.entryPath(key), data, 0644); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

func (s *Store) overridePath(pageKey, lang string) string {
	key := pageKey
	if key == "" {
		key = "index"
	}
	return filepath.Join(s.OverridesDir, lang, filepath.FromSlash(key)+".json")
}

// GetOverride returns the manual override for a page and language, or nil.
// Overrides never expire.
func (s *Store) GetOverride(pageKey, lang string) *TranslationRecord {
	path := s.overridePath(pageKey, lang)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var rec TranslationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		s.log("corrupt override %s: %v", path, err)
		return nil
	}
	s.log("using manual override for %s in %s", pageKey, lang)
	return &rec
}

// PutOverride writes a manual override.
func (s *Store) PutOverride(pageKey, lang string, rec *TranslationRecord) error {
	path := s.overridePath(pageKey, lang)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating override dir: %w", err)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling override: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing override: %w", err)
	}
	return nil
}

// HasOverride reports whether a manual override exists.
func (s *Store) HasOverride(pageKey, lang string) bool {
	_, err := os.Stat(s.overridePath(pageKey, lang))
	return err == nil
}

// langDir returns the per-language output directory.
func (s *Store) langDir(lang string) string {
	return filepath.Join(s.Dir, lang)
}

// PutPageOutput writes the per-page output file for one translated page.
// Slashes in the page key become dashes in the file name.
func (s *Store) PutPageOutput(lang, pageKey string, rec *TranslationRecord) error {
	dir := s.langDir(lang)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	name := strings.ReplaceAll(pageKey, "/", "-") + ".json"
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling page output: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		return fmt.Errorf("writing page output: %w", err)
	}
	return nil
}

// PutCombined writes the per-language combined output file.
func (s *Store) PutCombined(lang string, translations map[string]*TranslationRecord) error {
	dir := s.langDir(lang)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	data, err := json.MarshalIndent(translations, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling combined output: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, CombinedFileName), data, 0644); err != nil {
		return fmt.Errorf("writing combined output: %w", err)
	}
	return nil
}

// LoadCombined reads the per-language combined output file.
func (s *Store) LoadCombined(lang string) (map[string]*TranslationRecord, error) {
	data, err := os.ReadFile(filepath.Join(s.langDir(lang), CombinedFileName))
	if err != nil {
		return nil, err
	}
	var out map[string]*TranslationRecord
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parsing combined output for %s: %w", lang, err)
	}
	return out, nil
}

// PurgeExpired recursively removes cache files older than maxAge and
// returns the number removed. Individual delete failures are logged and
// skipped, never fatal.
func (s *Store) PurgeExpired(maxAge time.Duration) int {
	cutoff := s.clock().Add(-maxAge)
	removed := 0

	_ = filepath.WalkDir(s.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				s.log("removing expired cache file %s: %v", path, err)
				return nil
			}
			removed++
		}
		return nil
	})

	return removed
}

// Clear deletes cache entries. With an empty lang it removes the whole
// cache tree; otherwise only entries and outputs for that language.
func (s *Store) Clear(lang string) error {
	if lang == "" {
		if err := os.RemoveAll(s.Dir); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		return os.MkdirAll(s.Dir, 0755)
	}

	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading cache dir: %w", err)
	}
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		// Hash entries are named {src}-{lang}-{hash}.json.
		parts := strings.SplitN(de.Name(), "-", 3)
		if len(parts) == 3 && parts[1] == lang {
			if err := os.Remove(filepath.Join(s.Dir, de.Name())); err != nil {
				s.log("removing %s: %v", de.Name(), err)
			}
		}
	}
	if err := os.RemoveAll(s.langDir(lang)); err != nil {
		return fmt.Errorf("clearing outputs for %s: %w", lang, err)
	}
	return nil
}

// Stats summarizes the cache tree.
type Stats struct {
	TotalFiles int
	TotalSize  int64
	Oldest     time.Time
	Newest     time.Time
}

// CollectStats walks the cache tree and returns summary statistics.
func (s *Store) CollectStats() Stats {
	var st Stats
	_ = filepath.WalkDir(s.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		st.TotalFiles++
		st.TotalSize += info.Size()
		mt := info.ModTime()
		if st.Oldest.IsZero() || mt.Before(st.Oldest) {
			st.Oldest = mt
		}
		if mt.After(st.Newest) {
			st.Newest = mt
		}
		return nil
	})
	return st
}
