package extract

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// SnapshotFileName is the extraction snapshot written under the cache dir.
const SnapshotFileName = "extracted-content.json"

// skipDirs contains directory names excluded from the page walk.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"dist":         true,
	".cache":       true,
}

// dynamicSections are the page sections whose content comes from an
// in-source slug table instead of literal markup.
var dynamicSections = []string{"blog", "media"}

// Snapshot is the result of one extraction pass over the pages tree.
type Snapshot struct {
	StaticPages  map[string]*PageContent `json:"staticPages"`
	DynamicPages map[string]*PageContent `json:"dynamicPages"`
	ExtractedAt  time.Time               `json:"extractedAt"`
}

// AllPages returns every extracted page keyed by page key.
func (s *Snapshot) AllPages() map[string]*PageContent {
	all := make(map[string]*PageContent, len(s.StaticPages)+len(s.DynamicPages))
	for k, v := range s.StaticPages {
		all[k] = v
	}
	for k, v := range s.DynamicPages {
		all[k] = v
	}
	return all
}

// PageKeys returns all page keys in sorted order.
func (s *Snapshot) PageKeys() []string {
	all := s.AllPages()
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Extractor walks a pages directory and produces a Snapshot.
type Extractor struct {
	// PagesDir is the directory containing page sources.
	PagesDir string
	// CacheDir receives the extraction snapshot.
	CacheDir string
	// OnLog emits progress messages. Nil disables logging.
	OnLog func(format string, args ...any)
	// OnError emits per-page error messages. Nil falls back to OnLog.
	OnError func(format string, args ...any)
}

func (e *Extractor) log(format string, args ...any) {
	if e.OnLog != nil {
		e.OnLog(format, args...)
	}
}

func (e *Extractor) logError(format string, args ...any) {
	if e.OnError != nil {
		e.OnError(format, args...)
	} else if e.OnLog != nil {
		e.OnLog(format, args...)
	}
}

// PageKey derives the stable page key from a path relative to the pages
// root: extension stripped, path separators normalized, trailing /index
// collapsed to the parent. The root index page keys as "index".
func PageKey(relPath string) string {
	key := strings.TrimSuffix(filepath.ToSlash(relPath), ".astro")
	key = strings.TrimSuffix(key, "/index")
	if key == "index" || key == "" {
		return "index"
	}
	return key
}

// FindPages returns all static page source files under the pages root,
// skipping dynamic route files (names starting with "[").
func (e *Extractor) FindPages() ([]string, error) {
	var pages []string
	err := filepath.WalkDir(e.PagesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		name := d.Name()
		if strings.HasSuffix(name, ".astro") && !strings.HasPrefix(name, "[") {
			pages = append(pages, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning pages root %s: %w", e.PagesDir, err)
	}
	sort.Strings(pages)
	return pages, nil
}

// ExtractAll extracts every static and dynamic page and writes the snapshot.
// Individual page failures are logged and skipped; only a missing pages root
// is a structural error.
func (e *Extractor) ExtractAll() (*Snapshot, error) {
	pages, err := e.FindPages()
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		StaticPages:  make(map[string]*PageContent),
		DynamicPages: make(map[string]*PageContent),
		ExtractedAt:  time.Now(),
	}

	for _, path := range pages {
		rel, err := filepath.Rel(e.PagesDir, path)
		if err != nil {
			rel = path
		}
		key := PageKey(rel)

		data, err := os.ReadFile(path)
		if err != nil {
			e.logError("reading %s: %v", rel, err)
			continue
		}

		pc, err := ParsePageContent(key, string(data))
		if err != nil {
			e.logError("extracting %s: %v", rel, err)
			continue
		}
		pc.FilePath = rel
		snap.StaticPages[key] = pc
		e.log("extracted %s (%d strings)", key, len(pc.Content))
	}

	for _, section := range dynamicSections {
		path := filepath.Join(e.PagesDir, section, "[slug].astro")
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				e.logError("reading %s/[slug].astro: %v", section, err)
			}
			continue
		}

		dc := ExtractDynamic(string(data))
		if dc == nil {
			e.logError("no slug table found in %s/[slug].astro", section)
			continue
		}
		for _, pc := range dc.PageContents(section) {
			pc.FilePath = filepath.ToSlash(filepath.Join(section, "[slug].astro"))
			snap.DynamicPages[pc.PageKey] = pc
		}
		e.log("extracted %d %s entries", len(dc.Slugs), section)
	}

	if err := e.SaveSnapshot(snap); err != nil {
		e.logError("saving snapshot: %v", err)
	}

	return snap, nil
}

func (e *Extractor) snapshotPath() string {
	return filepath.Join(e.CacheDir, SnapshotFileName)
}

// SaveSnapshot writes the extraction snapshot to the cache dir.
func (e *Extractor) SaveSnapshot(snap *Snapshot) error {
	if err := os.MkdirAll(e.CacheDir, 0755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	if err := os.WriteFile(e.snapshotPath(), data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a previously saved snapshot. Returns nil when no
// snapshot exists or it cannot be parsed.
func (e *Extractor) LoadSnapshot() *Snapshot {
	data, err := os.ReadFile(e.snapshotPath())
	if err != nil {
		return nil
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		e.logError("corrupt snapshot %s: %v", e.snapshotPath(), err)
		return nil
	}
	return &snap
}

// NeedsReExtraction reports whether any page source is newer than the
// saved snapshot.
func (e *Extractor) NeedsReExtraction() bool {
	info, err := os.Stat(e.snapshotPath())
	if err != nil {
		return true
	}
	snapTime := info.ModTime()

	pages, err := e.FindPages()
	if err != nil {
		return true
	}
	for _, section := range dynamicSections {
		pages = append(pages, filepath.Join(e.PagesDir, section, "[slug].astro"))
	}

	for _, path := range pages {
		if fi, err := os.Stat(path); err == nil && fi.ModTime().After(snapTime) {
			return true
		}
	}
	return false
}

// EnsureExtracted loads the cached snapshot when it is current, otherwise
// runs a fresh extraction pass.
func (e *Extractor) EnsureExtracted() (*Snapshot, error) {
	if !e.NeedsReExtraction() {
		if snap := e.LoadSnapshot(); snap != nil {
			e.log("using cached extraction snapshot")
			return snap, nil
		}
	}
	return e.ExtractAll()
}
