// Package pipeline drives the full translation run: extraction, per-page
// translation with override and cache precedence, and persistence of the
// per-language output files.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/southasianliver/sitetrans/cache"
	"github.com/southasianliver/sitetrans/config"
	"github.com/southasianliver/sitetrans/extract"
	"github.com/southasianliver/sitetrans/ledger"
	"github.com/southasianliver/sitetrans/translate"
)

// Orchestrator coordinates the extractor, cache store, and translator.
type Orchestrator struct {
	Config     *config.Config
	Extractor  *extract.Extractor
	Store      *cache.Store
	Translator *translate.Translator

	// OnLog emits progress messages. Nil disables logging.
	OnLog func(format string, args ...any)
	// OnError emits per-page failure messages.
	OnError func(format string, args ...any)
}

// New wires an Orchestrator from the resolved configuration.
func New(cfg *config.Config) *Orchestrator {
	o := &Orchestrator{Config: cfg}

	o.Extractor = &extract.Extractor{
		PagesDir: cfg.PagesRoot(),
		CacheDir: cfg.CacheRoot(),
	}

	o.Store = cache.New(filepath.Join(cfg.CacheRoot(), "translations"), cfg.OverridesRoot())
	o.Store.MaxAge = cfg.CacheMaxAge()

	o.Translator = &translate.Translator{
		Provider: translate.Provider{
			BaseURL: cfg.ProviderURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
		},
		Limiter:    translate.NewRateLimiter(cfg.RateLimitDelay()),
		BatchSize:  cfg.BatchSize,
		MaxRetries: cfg.RetryAttempts,
		RetryDelay: cfg.RetryDelay(),
		BatchDelay: cfg.BatchDelay(),
	}

	return o
}

func (o *Orchestrator) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Orchestrator) logError(format string, args ...any) {
	if o.OnError != nil {
		o.OnError(format, args...)
	} else if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

// Run translates every page into every target language. Page-level
// failures are logged and skipped; only structural failures (unreadable
// pages root, unwritable outputs) abort the run.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.hookSubsystems()

	snap, err := o.Extractor.EnsureExtracted()
	if err != nil {
		return fmt.Errorf("extracting content: %w", err)
	}

	pageKeys := snap.PageKeys()
	o.log("found %d pages to translate", len(pageKeys))

	led, err := ledger.Load(o.Config.Root)
	if err != nil {
		return err
	}

	pages := snap.AllPages()
	source := o.sourceLanguage()
	for _, lang := range o.Config.TargetLanguages() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		o.log("translating to %s (%s)...", lang.Name, lang.Code)
		translations := o.translateLanguage(ctx, snap, source, lang)

		if err := o.saveLanguage(lang.Code, translations); err != nil {
			return err
		}
		o.log("saved %d translations for %s", len(translations), lang.Code)

		for pageKey := range translations {
			if hash, err := cache.ContentHash(pages[pageKey]); err == nil {
				led.Record(lang.Code, pageKey, hash)
			}
		}
		led.Clean(lang.Code, pageKeys)
	}

	if err := led.Save(); err != nil {
		o.logError("saving translation ledger: %v", err)
	}
	return nil
}

// hookSubsystems forwards subsystem logging to the orchestrator hooks.
func (o *Orchestrator) hookSubsystems() {
	o.Extractor.OnLog = o.OnLog
	o.Extractor.OnError = o.OnError
	o.Store.OnLog = o.OnLog
	o.Translator.OnLog = o.OnLog
	o.Translator.OnError = o.OnError
}

func (o *Orchestrator) sourceLanguage() config.Language {
	for _, lang := range o.Config.Languages {
		if lang.Code == o.Config.DefaultLanguage {
			return lang
		}
	}
	return config.Language{Code: o.Config.DefaultLanguage}
}

// translateLanguage runs the per-page state machine for one target
// language: manual override, then cache, then a fresh provider run.
func (o *Orchestrator) translateLanguage(ctx context.Context, snap *extract.Snapshot, source, target config.Language) map[string]*cache.TranslationRecord {
	translations := make(map[string]*cache.TranslationRecord)
	pages := snap.AllPages()

	for _, pageKey := range snap.PageKeys() {
		if ctx.Err() != nil {
			return translations
		}

		page := pages[pageKey]
		if page == nil {
			o.log("no content found for page: %s", pageKey)
			continue
		}

		if override := o.Store.GetOverride(pageKey, target.Code); override != nil {
			translations[pageKey] = override
			continue
		}

		if cached := o.Store.Get(page, source.Code, target.Code); cached != nil {
			translations[pageKey] = cached
			continue
		}

		o.log("translating page: %s", pageKey)
		rec := o.translatePage(ctx, page, source, target)
		if rec == nil {
			continue
		}

		if err := o.Store.Put(page, source.Code, target.Code, rec); err != nil {
			o.logError("caching translation for %s: %v", pageKey, err)
		}
		translations[pageKey] = rec
	}

	return translations
}

// flatItem addresses one translatable string within a page.
type flatItem struct {
	meta bool
	key  string
	text string
}

// flatten lists a page's translatable strings in a stable order: sorted
// frontmatter and meta fields first, then content in extraction order.
// Results are reassembled by index, so this order is the contract.
func flatten(page *extract.PageContent) []flatItem {
	var items []flatItem

	metaKeys := make(map[string]string)
	for k, v := range page.Frontmatter {
		metaKeys[k] = v
	}
	for k, v := range page.Meta {
		metaKeys[k] = v
	}
	sorted := make([]string, 0, len(metaKeys))
	for k := range metaKeys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)
	for _, k := range sorted {
		if strings.TrimSpace(metaKeys[k]) != "" {
			items = append(items, flatItem{meta: true, key: k, text: metaKeys[k]})
		}
	}

	contentKeys := page.ContentKeys
	if len(contentKeys) == 0 {
		for k := range page.Content {
			contentKeys = append(contentKeys, k)
		}
		sort.Strings(contentKeys)
	}
	for _, k := range contentKeys {
		if v, ok := page.Content[k]; ok && strings.TrimSpace(v) != "" {
			items = append(items, flatItem{key: k, text: v})
		}
	}

	return items
}

// translatePage translates one page's strings in batches and reassembles
// the results into a record. Returns nil when the page has nothing to
// translate.
func (o *Orchestrator) translatePage(ctx context.Context, page *extract.PageContent, source, target config.Language) *cache.TranslationRecord {
	items := flatten(page)
	if len(items) == 0 {
		o.log("no translatable content found for %s", page.PageKey)
		return nil
	}

	requests := make([]translate.Request, len(items))
	for i, item := range items {
		requests[i] = translate.Request{
			Text:           item.text,
			SourceLang:     source.Code,
			SourceLangName: source.Name,
			TargetLang:     target.Code,
			TargetLangName: target.Name,
		}
	}

	results := o.Translator.TranslateBatch(ctx, requests)

	rec := &cache.TranslationRecord{
		Meta:           make(map[string]string),
		Content:        make(map[string]string),
		TranslatedAt:   time.Now(),
		SourceLanguage: source.Code,
		TargetLanguage: target.Code,
	}
	for i, item := range items {
		translated := results[i].TranslatedText
		if translated == "" {
			continue
		}
		if item.meta {
			rec.Meta[item.key] = translated
		} else {
			rec.Content[item.key] = translated
		}
	}

	return rec
}

// saveLanguage persists per-page output files and the combined file.
// Per-page write failures are logged; a failing combined write is
// structural and aborts the run.
func (o *Orchestrator) saveLanguage(lang string, translations map[string]*cache.TranslationRecord) error {
	for pageKey, rec := range translations {
		if err := o.Store.PutPageOutput(lang, pageKey, rec); err != nil {
			o.logError("saving translation for %s: %v", pageKey, err)
		}
	}
	if err := o.Store.PutCombined(lang, translations); err != nil {
		return fmt.Errorf("saving combined translations for %s: %w", lang, err)
	}
	return nil
}

// WriteArtifacts copies each target language's persisted translations
// into the output tree ({output}/locales/{lang}.json) so the site build
// can hydrate localized routes. Languages without translations yet are
// skipped.
func (o *Orchestrator) WriteArtifacts() error {
	dir := filepath.Join(o.Config.OutputRoot(), "locales")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating locales dir: %w", err)
	}

	for _, lang := range o.Config.TargetLanguages() {
		translations, err := o.Store.LoadCombined(lang.Code)
		if err != nil {
			if os.IsNotExist(err) {
				o.log("no translations yet for %s, skipping artifact", lang.Code)
				continue
			}
			return fmt.Errorf("loading translations for %s: %w", lang.Code, err)
		}

		data, err := json.MarshalIndent(translations, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling artifact for %s: %w", lang.Code, err)
		}
		path := filepath.Join(dir, lang.Code+".json")
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("writing artifact for %s: %w", lang.Code, err)
		}
		o.log("wrote locale artifact %s (%d pages)", path, len(translations))
	}

	return nil
}

// LoadTranslations returns a language's persisted translations.
func (o *Orchestrator) LoadTranslations(lang string) (map[string]*cache.TranslationRecord, error) {
	return o.Store.LoadCombined(lang)
}

// Cleanup removes expired cache entries and returns how many were purged.
func (o *Orchestrator) Cleanup() int {
	o.Store.OnLog = o.OnLog
	return o.Store.PurgeExpired(o.Config.CacheMaxAge())
}
