// Package audit inspects persisted translations for quality problems:
// records that failed heuristic validation, empty records, and strings
// that are still in the source language (untranslated leaks), detected
// with statistical language detection.
package audit

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pemistahl/lingua-go"

	"github.com/southasianliver/sitetrans/cache"
	"github.com/southasianliver/sitetrans/config"
	"github.com/southasianliver/sitetrans/extract"
	"github.com/southasianliver/sitetrans/translate"
)

// minLeakLength is the minimum rune count for language detection;
// shorter strings give unreliable detections.
const minLeakLength = 20

// Issue kinds.
const (
	KindEmpty      = "empty"
	KindValidation = "validation"
	KindSourceLeak = "source-leak"
)

// Issue is one finding against a translated page.
type Issue struct {
	Lang   string
	Page   string
	Key    string
	Kind   string
	Detail string
}

func (i Issue) String() string {
	if i.Key == "" {
		return fmt.Sprintf("[%s] %s: %s (%s)", i.Lang, i.Page, i.Detail, i.Kind)
	}
	return fmt.Sprintf("[%s] %s %s: %s (%s)", i.Lang, i.Page, i.Key, i.Detail, i.Kind)
}

// Auditor checks translated output against the extracted source content.
type Auditor struct {
	Config *config.Config
	Store  *cache.Store
	// Snapshot provides the source strings for validation ratios.
	Snapshot *extract.Snapshot
	// OnLog emits progress messages.
	OnLog func(format string, args ...any)

	detector   lingua.LanguageDetector
	sourceLang lingua.Language
	hasSource  bool
}

// New wires an Auditor. The language detector covers every configured
// language lingua supports; unsupported codes simply skip leak detection.
func New(cfg *config.Config, store *cache.Store, snap *extract.Snapshot) *Auditor {
	a := &Auditor{Config: cfg, Store: store, Snapshot: snap}

	byISO := make(map[string]lingua.Language)
	for _, l := range lingua.AllLanguages() {
		byISO[strings.ToLower(l.IsoCode639_1().String())] = l
	}

	var detectable []lingua.Language
	for _, lang := range cfg.EnabledLanguages() {
		if l, ok := byISO[lang.Code]; ok {
			detectable = append(detectable, l)
			if lang.Code == cfg.DefaultLanguage {
				a.sourceLang = l
				a.hasSource = true
			}
		}
	}
	if len(detectable) >= 2 && a.hasSource {
		a.detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(detectable...).
			Build()
	}

	return a
}

func (a *Auditor) log(format string, args ...any) {
	if a.OnLog != nil {
		a.OnLog(format, args...)
	}
}

// Run audits every target language that has persisted translations and
// returns all findings. Missing translation files are skipped, not
// errors; unreadable ones abort.
func (a *Auditor) Run() ([]Issue, error) {
	var issues []Issue

	for _, lang := range a.Config.TargetLanguages() {
		translations, err := a.Store.LoadCombined(lang.Code)
		if err != nil {
			if os.IsNotExist(err) {
				a.log("no translations for %s yet, skipping", lang.Code)
				continue
			}
			return nil, err
		}
		found := a.AuditLanguage(lang.Code, translations)
		a.log("%s: %d pages audited, %d issues", lang.Code, len(translations), len(found))
		issues = append(issues, found...)
	}

	sort.Slice(issues, func(i, j int) bool {
		if issues[i].Lang != issues[j].Lang {
			return issues[i].Lang < issues[j].Lang
		}
		if issues[i].Page != issues[j].Page {
			return issues[i].Page < issues[j].Page
		}
		return issues[i].Key < issues[j].Key
	})
	return issues, nil
}

// AuditLanguage checks one language's records.
func (a *Auditor) AuditLanguage(lang string, translations map[string]*cache.TranslationRecord) []Issue {
	var issues []Issue

	var pages map[string]*extract.PageContent
	if a.Snapshot != nil {
		pages = a.Snapshot.AllPages()
	}

	for pageKey, rec := range translations {
		if rec == nil || (len(rec.Meta) == 0 && len(rec.Content) == 0) {
			issues = append(issues, Issue{
				Lang: lang, Page: pageKey, Kind: KindEmpty,
				Detail: "record has no translated strings",
			})
			continue
		}

		var source *extract.PageContent
		if pages != nil {
			source = pages[pageKey]
		}

		for key, translated := range rec.Content {
			orig := ""
			if source != nil {
				orig = source.Content[key]
			}
			issues = append(issues, a.checkString(lang, pageKey, key, orig, translated)...)
		}
		for key, translated := range rec.Meta {
			orig := ""
			if source != nil {
				// Meta wins over Frontmatter, matching the
				// precedence the translation source uses.
				orig = source.Meta[key]
				if orig == "" {
					orig = source.Frontmatter[key]
				}
			}
			issues = append(issues, a.checkString(lang, pageKey, "meta."+key, orig, translated)...)
		}
	}

	return issues
}

func (a *Auditor) checkString(lang, page, key, orig, translated string) []Issue {
	var issues []Issue

	if orig != "" && !translate.Validate(orig, translated) {
		issues = append(issues, Issue{
			Lang: lang, Page: page, Key: key, Kind: KindValidation,
			Detail: fmt.Sprintf("failed validation against source %q", truncate(orig, 60)),
		})
	}

	if leak := a.detectLeak(translated); leak {
		issues = append(issues, Issue{
			Lang: lang, Page: page, Key: key, Kind: KindSourceLeak,
			Detail: fmt.Sprintf("still in source language: %q", truncate(translated, 60)),
		})
	}

	return issues
}

// detectLeak reports whether the text is confidently in the source
// language, meaning it was never translated.
func (a *Auditor) detectLeak(text string) bool {
	if a.detector == nil || utf8.RuneCountInString(text) < minLeakLength {
		return false
	}
	detected, ok := a.detector.DetectLanguageOf(text)
	return ok && detected == a.sourceLang
}

func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen]) + "..."
}
