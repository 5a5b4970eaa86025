// sitetrans — static site translation pipeline for the South Asian Liver
// Institute website: content extraction, AI translation with caching and
// manual overrides, and multi-language sitemap generation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/southasianliver/sitetrans/audit"
	"github.com/southasianliver/sitetrans/cache"
	"github.com/southasianliver/sitetrans/config"
	"github.com/southasianliver/sitetrans/extract"
	"github.com/southasianliver/sitetrans/ledger"
	"github.com/southasianliver/sitetrans/pipeline"
	"github.com/southasianliver/sitetrans/sitemap"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flag
// ---------------------------------------------------------------------------

var rootDir string

func loadConfig() (*config.Config, error) {
	return config.Load(rootDir)
}

func newOrchestrator() (*pipeline.Orchestrator, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	o := pipeline.New(cfg)
	o.OnLog = logInfo
	o.OnError = logError
	return o, nil
}

// signalContext returns a context cancelled on the first interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		logWarning("Interrupted, stopping...")
		cancel()
	}()
	return ctx, cancel
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sitetrans",
		Short: "Translation pipeline for the SALi website",
		Long: `sitetrans — translation pipeline for the South Asian Liver Institute website.

Extracts translatable content from page sources, translates it with an
AI provider under a content-hash cache with manual override support, and
generates the multi-language sitemap set.

Running without a subcommand performs the full pipeline: extract,
translate, write localized artifacts, and generate sitemaps.

Commands:
  extract     Extract translatable content from page sources
  translate   Translate extracted content into all target languages
  build       Run translation and write localized artifacts
  sitemap     Generate multi-language sitemaps
  validate    Audit persisted translations for quality problems
  cleanup     Remove expired cache entries
  status      Show configuration and cache statistics
  overrides   Manage manual translation overrides`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFull()
		},
	}

	// Global persistent flag — inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")

	root.AddCommand(
		newExtractCmd(),
		newTranslateCmd(),
		newBuildCmd(),
		newSitemapCmd(),
		newValidateCmd(),
		newCleanupCmd(),
		newStatusCmd(),
		newOverridesCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// runFull is the default pipeline: extract, translate, artifacts, sitemap.
func runFull() error {
	o, err := newOrchestrator()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	logInfo("Starting translation pipeline...")
	if err := o.Run(ctx); err != nil {
		return err
	}
	if err := o.WriteArtifacts(); err != nil {
		return err
	}

	snap, err := o.Extractor.EnsureExtracted()
	if err != nil {
		return err
	}
	gen := sitemap.New(o.Config)
	gen.OnLog = logInfo
	if err := gen.Generate(snap.PageKeys()); err != nil {
		return err
	}

	logSuccess("Pipeline completed")
	return nil
}

// ---------------------------------------------------------------------------
// extract
// ---------------------------------------------------------------------------

func newExtractCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract translatable content from page sources",
		Long: `Walk the pages directory, extract translatable strings from static
pages and in-source article tables, and save the extraction snapshot.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := newOrchestrator()
			if err != nil {
				return err
			}
			var snap *extract.Snapshot
			if force {
				snap, err = o.Extractor.ExtractAll()
				if err == nil {
					err = o.Extractor.SaveSnapshot(snap)
				}
			} else {
				snap, err = o.Extractor.EnsureExtracted()
			}
			if err != nil {
				return err
			}
			logSuccess("Extracted %d pages", len(snap.PageKeys()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Re-extract even when sources are unchanged")
	return cmd
}

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

func newTranslateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "translate",
		Short: "Translate extracted content into all target languages",
		Long: `Translate every extracted page into every enabled target language.
Manual overrides win over cached translations; cache entries are reused
for seven days. Without OPENAI_API_KEY pages keep their source text.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := newOrchestrator()
			if err != nil {
				return err
			}
			if !o.Translator.Enabled() {
				logWarning("OPENAI_API_KEY not set; untranslated text will pass through")
			}
			ctx, cancel := signalContext()
			defer cancel()
			if err := o.Run(ctx); err != nil {
				return err
			}
			logSuccess("Translation completed")
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// build
// ---------------------------------------------------------------------------

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Run translation and write localized artifacts",
		Long: `Run the translation step and copy each language's translations into
the output tree for the site build to consume.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := newOrchestrator()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			if err := o.Run(ctx); err != nil {
				return err
			}
			if err := o.WriteArtifacts(); err != nil {
				return err
			}
			logSuccess("Build completed")
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// sitemap
// ---------------------------------------------------------------------------

func newSitemapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sitemap",
		Short: "Generate multi-language sitemaps",
		Long: `Generate sitemap.xml, a sitemap per enabled target language, and the
sitemap index, with hreflang alternates on every URL.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := newOrchestrator()
			if err != nil {
				return err
			}
			snap, err := o.Extractor.EnsureExtracted()
			if err != nil {
				return err
			}
			gen := sitemap.New(o.Config)
			gen.OnLog = logInfo
			if err := gen.Generate(snap.PageKeys()); err != nil {
				return err
			}
			logSuccess("Sitemaps written to %s", gen.OutputDir)
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// validate
// ---------------------------------------------------------------------------

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Audit persisted translations for quality problems",
		Long: `Check every language's persisted translations for empty records,
strings that fail heuristic validation against the source, and strings
still in the source language. Findings are advisory; the exit code is
non-zero only on I/O failure.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := newOrchestrator()
			if err != nil {
				return err
			}
			snap, err := o.Extractor.EnsureExtracted()
			if err != nil {
				return err
			}

			a := audit.New(o.Config, o.Store, snap)
			a.OnLog = logInfo
			issues, err := a.Run()
			if err != nil {
				return err
			}

			if len(issues) == 0 {
				logSuccess("No issues found")
				return nil
			}
			for _, issue := range issues {
				logWarning("%s", issue)
			}
			logInfo("%d issues found", len(issues))
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// cleanup
// ---------------------------------------------------------------------------

func newCleanupCmd() *cobra.Command {
	var lang string
	var all bool
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove expired cache entries",
		Long: `Remove cache files older than the configured TTL. With --lang, clear
one language's entries and outputs entirely; with --all, clear the whole
cache.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := newOrchestrator()
			if err != nil {
				return err
			}
			switch {
			case all:
				if err := o.Store.Clear(""); err != nil {
					return err
				}
				if err := os.Remove(filepath.Join(o.Config.Root, ledger.FileName)); err != nil && !os.IsNotExist(err) {
					return err
				}
				logSuccess("Cache cleared")
			case lang != "":
				if !o.Config.IsSupported(lang) {
					return fmt.Errorf("unknown language %q", lang)
				}
				if err := o.Store.Clear(lang); err != nil {
					return err
				}
				if led, err := ledger.Load(o.Config.Root); err == nil {
					led.RemoveLanguage(lang)
					if err := led.Save(); err != nil {
						logWarning("updating ledger: %v", err)
					}
				}
				logSuccess("Cleared cache for %s", lang)
			default:
				n := o.Cleanup()
				logSuccess("Cleaned up %d expired cache files", n)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "Clear all entries for one language")
	cmd.Flags().BoolVar(&all, "all", false, "Clear the entire cache")
	return cmd
}

// ---------------------------------------------------------------------------
// status
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration and cache statistics",
		Long: `Show the resolved configuration, enabled languages, and translation
cache statistics. Does not modify any files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := newOrchestrator()
			if err != nil {
				return err
			}
			runStatus(o)
			return nil
		},
	}
}

func runStatus(o *pipeline.Orchestrator) {
	cfg := o.Config
	absRoot, _ := filepath.Abs(cfg.Root)

	fmt.Fprintf(os.Stderr, "\n%sProject%s\n", colorBlue, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "  Root:       %s\n", absRoot)
	fmt.Fprintf(os.Stderr, "  Base URL:   %s\n", cfg.BaseURL)
	fmt.Fprintf(os.Stderr, "  Pages:      %s\n", cfg.PagesDir)
	fmt.Fprintf(os.Stderr, "  Cache:      %s\n", cfg.CacheDir)
	fmt.Fprintf(os.Stderr, "  Overrides:  %s\n", cfg.OverridesDir)
	fmt.Fprintf(os.Stderr, "  Output:     %s\n", cfg.OutputDir)
	fmt.Fprintf(os.Stderr, "  Model:      %s\n", cfg.Model)

	if o.Translator.Enabled() {
		fmt.Fprintf(os.Stderr, "  API key:    set\n")
	} else {
		fmt.Fprintf(os.Stderr, "  API key:    %snot set%s\n", colorYellow, colorReset)
	}
	fmt.Fprintln(os.Stderr)

	var langs []string
	for _, lang := range cfg.EnabledLanguages() {
		label := lang.Code
		if lang.Code == cfg.DefaultLanguage {
			label += " (source)"
		}
		langs = append(langs, label)
	}
	fmt.Fprintf(os.Stderr, "  Languages:  %s\n", strings.Join(langs, ", "))
	fmt.Fprintln(os.Stderr)

	st := o.Store.CollectStats()
	fmt.Fprintf(os.Stderr, "%sCache%s\n", colorBlue, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "  Files:      %d\n", st.TotalFiles)
	fmt.Fprintf(os.Stderr, "  Size:       %.1f KiB\n", float64(st.TotalSize)/1024)
	if !st.Oldest.IsZero() {
		fmt.Fprintf(os.Stderr, "  Oldest:     %s\n", st.Oldest.Format("2006-01-02 15:04"))
		fmt.Fprintf(os.Stderr, "  Newest:     %s\n", st.Newest.Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(os.Stderr)

	showTranslationProgress(o)
}

// showTranslationProgress reports per-language freshness from the ledger
// against the current extraction snapshot. Skipped when no extraction has
// been run yet.
func showTranslationProgress(o *pipeline.Orchestrator) {
	snap := o.Extractor.LoadSnapshot()
	if snap == nil {
		logInfo("No extraction snapshot yet. Run 'sitetrans extract' first.")
		return
	}
	led, err := ledger.Load(o.Config.Root)
	if err != nil {
		logWarning("reading translation ledger: %v", err)
		return
	}

	hashes := make(map[string]string)
	for key, page := range snap.AllPages() {
		if h, err := cache.ContentHash(page); err == nil {
			hashes[key] = h
		}
	}
	total := len(hashes)

	fmt.Fprintf(os.Stderr, "%sTranslations%s\n", colorBlue, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	for _, lang := range o.Config.TargetLanguages() {
		fresh := 0
		for key, hash := range hashes {
			if !led.IsStale(lang.Code, key, hash) {
				fresh++
			}
		}
		marker := colorGreen
		if fresh < total {
			marker = colorYellow
		}
		fmt.Fprintf(os.Stderr, "  %-4s %s%3d/%d pages up to date%s\n",
			lang.Code, marker, fresh, total, colorReset)
	}
	fmt.Fprintln(os.Stderr)
}

// ---------------------------------------------------------------------------
// overrides
// ---------------------------------------------------------------------------

func newOverridesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overrides",
		Short: "Manage manual translation overrides",
		Long: `Manual overrides live under the overrides directory as
{lang}/{page}.json and always win over cached and fresh translations.`,
	}
	cmd.AddCommand(newOverridesImportCmd())
	return cmd
}

func newOverridesImportCmd() *cobra.Command {
	var lang, page string
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a gettext PO catalog as a page override",
		Long: `Import a PO catalog produced by a human translator. Catalog msgids
are matched against the page's extracted source strings; translated
entries become the override for the page and language.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := newOrchestrator()
			if err != nil {
				return err
			}
			if !o.Config.IsSupported(lang) {
				return fmt.Errorf("unknown language %q", lang)
			}

			snap, err := o.Extractor.EnsureExtracted()
			if err != nil {
				return err
			}
			pageContent := snap.AllPages()[page]
			if pageContent == nil {
				return fmt.Errorf("unknown page %q", page)
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading catalog: %w", err)
			}

			rec, err := cache.ImportPO(data, pageContent, o.Config.DefaultLanguage, lang)
			if err != nil {
				return err
			}
			if err := o.Store.PutOverride(page, lang, rec); err != nil {
				return err
			}
			logSuccess("Imported override for %s in %s (%d meta, %d content)",
				page, lang, len(rec.Meta), len(rec.Content))
			return nil
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "Target language code (required)")
	cmd.Flags().StringVar(&page, "page", "", "Page key the catalog belongs to (required)")
	cmd.MarkFlagRequired("lang")
	cmd.MarkFlagRequired("page")
	return cmd
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sitetrans version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}
