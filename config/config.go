// Package config — sitetrans.yaml configuration file support.
//
// When a sitetrans.yaml file exists in the project root, sitetrans uses it
// as the source of truth for the language set, directories, and translation
// tuning. Without one, the built-in site defaults apply.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/southasianliver/sitetrans/langmeta"
)

// FileName is the default config file name.
const FileName = "sitetrans.yaml"

// Language describes one supported site language.
type Language struct {
	Code       string `yaml:"code"`
	Name       string `yaml:"name,omitempty"`
	NativeName string `yaml:"native_name,omitempty"`
	Flag       string `yaml:"flag,omitempty"`
	RTL        bool   `yaml:"rtl,omitempty"`
	Enabled    bool   `yaml:"enabled"`
}

// Config holds the resolved project configuration.
type Config struct {
	// Root is the project root directory (not serialized).
	Root string `yaml:"-"`

	// BaseURL is the canonical site URL used for sitemap generation.
	BaseURL string `yaml:"base_url,omitempty"`
	// DefaultLanguage is the source language code (default "en").
	DefaultLanguage string `yaml:"default_language,omitempty"`
	// Languages is the closed set of supported languages.
	Languages []Language `yaml:"languages,omitempty"`

	// PagesDir is the directory containing page sources, relative to Root.
	PagesDir string `yaml:"pages_dir,omitempty"`
	// CacheDir holds translation cache entries and per-language outputs.
	CacheDir string `yaml:"cache_dir,omitempty"`
	// OverridesDir holds manual translation overrides.
	OverridesDir string `yaml:"overrides_dir,omitempty"`
	// OutputDir receives sitemaps and localized page artifacts.
	OutputDir string `yaml:"output_dir,omitempty"`

	// BatchSize is how many strings to translate per batch (default 10).
	BatchSize int `yaml:"batch_size,omitempty"`
	// RetryAttempts is the max retry count per string (default 3).
	RetryAttempts int `yaml:"retry_attempts,omitempty"`
	// RetryDelayMS is the linear backoff base in milliseconds (default 1000).
	RetryDelayMS int `yaml:"retry_delay_ms,omitempty"`
	// RateLimitDelayMS is the minimum spacing between provider requests (default 1000).
	RateLimitDelayMS int `yaml:"rate_limit_delay_ms,omitempty"`
	// BatchDelayMS is the pause between batches (default 2000).
	BatchDelayMS int `yaml:"batch_delay_ms,omitempty"`
	// CacheMaxAgeHours is the cache entry TTL in hours (default 168 = 7 days).
	CacheMaxAgeHours int `yaml:"cache_max_age_hours,omitempty"`

	// Model is the provider model identifier (default "gpt-4").
	Model string `yaml:"model,omitempty"`
	// ProviderURL overrides the provider API base URL.
	ProviderURL string `yaml:"provider_url,omitempty"`

	// APIKey is read from the environment, never from the config file.
	APIKey string `yaml:"-"`
}

// defaultLanguages reproduces the site's shipped language set.
func defaultLanguages() []Language {
	codes := []string{"en", "hi", "te", "ta", "bn", "mr"}
	langs := make([]Language, 0, len(codes))
	for _, code := range codes {
		langs = append(langs, Language{Code: code, Enabled: true})
	}
	return langs
}

// Default returns the built-in configuration for the given project root.
func Default(root string) *Config {
	cfg := &Config{
		Root:             root,
		BaseURL:          "https://southasianliverinstitute.netlify.app",
		DefaultLanguage:  "en",
		Languages:        defaultLanguages(),
		PagesDir:         filepath.Join("src", "pages"),
		CacheDir:         ".cache",
		OverridesDir:     "translations",
		OutputDir:        "dist",
		BatchSize:        10,
		RetryAttempts:    3,
		RetryDelayMS:     1000,
		RateLimitDelayMS: 1000,
		BatchDelayMS:     2000,
		CacheMaxAgeHours: 7 * 24,
		Model:            "gpt-4",
	}
	cfg.fillLanguageMeta()
	return cfg
}

// Load reads sitetrans.yaml from root if present, applies defaults for any
// omitted field, loads .env, and picks up OPENAI_API_KEY.
func Load(root string) (*Config, error) {
	cfg := Default(root)

	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		cfg.Root = root
		if len(cfg.Languages) == 0 {
			cfg.Languages = defaultLanguages()
		}
		cfg.applyDefaults()
		cfg.fillLanguageMeta()
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// .env is optional; environment variables win regardless.
	_ = godotenv.Load(filepath.Join(root, ".env"))
	cfg.APIKey = os.Getenv("OPENAI_API_KEY")

	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default(c.Root)
	if c.BaseURL == "" {
		c.BaseURL = d.BaseURL
	}
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = d.DefaultLanguage
	}
	if c.PagesDir == "" {
		c.PagesDir = d.PagesDir
	}
	if c.CacheDir == "" {
		c.CacheDir = d.CacheDir
	}
	if c.OverridesDir == "" {
		c.OverridesDir = d.OverridesDir
	}
	if c.OutputDir == "" {
		c.OutputDir = d.OutputDir
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = d.RetryAttempts
	}
	if c.RetryDelayMS <= 0 {
		c.RetryDelayMS = d.RetryDelayMS
	}
	if c.RateLimitDelayMS <= 0 {
		c.RateLimitDelayMS = d.RateLimitDelayMS
	}
	if c.BatchDelayMS <= 0 {
		c.BatchDelayMS = d.BatchDelayMS
	}
	if c.CacheMaxAgeHours <= 0 {
		c.CacheMaxAgeHours = d.CacheMaxAgeHours
	}
	if c.Model == "" {
		c.Model = d.Model
	}
}

// fillLanguageMeta completes name/native name/flag/RTL from the registry
// for languages the config file declares by code only.
func (c *Config) fillLanguageMeta() {
	for i := range c.Languages {
		lang := &c.Languages[i]
		meta := langmeta.Resolve(lang.Code)
		if lang.Name == "" {
			lang.Name = meta.Name
		}
		if lang.NativeName == "" {
			lang.NativeName = meta.NativeName
		}
		if lang.Flag == "" {
			lang.Flag = meta.Flag
		}
		if !lang.RTL {
			lang.RTL = meta.RTL
		}
	}
}

// Validate checks structural invariants of the language set.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Languages))
	var defaultFound bool
	for _, lang := range c.Languages {
		if lang.Code == "" {
			return fmt.Errorf("language with empty code in %s", FileName)
		}
		if seen[lang.Code] {
			return fmt.Errorf("duplicate language code %q", lang.Code)
		}
		seen[lang.Code] = true
		if lang.Code == c.DefaultLanguage {
			defaultFound = true
			if !lang.Enabled {
				return fmt.Errorf("default language %q must be enabled", lang.Code)
			}
		}
	}
	if !defaultFound {
		return fmt.Errorf("default language %q not in language set", c.DefaultLanguage)
	}
	return nil
}

// EnabledLanguages returns all enabled languages, default included.
func (c *Config) EnabledLanguages() []Language {
	var out []Language
	for _, lang := range c.Languages {
		if lang.Enabled {
			out = append(out, lang)
		}
	}
	return out
}

// TargetLanguages returns enabled languages excluding the default.
// These are the translation targets.
func (c *Config) TargetLanguages() []Language {
	var out []Language
	for _, lang := range c.Languages {
		if lang.Enabled && lang.Code != c.DefaultLanguage {
			out = append(out, lang)
		}
	}
	return out
}

// IsSupported reports whether code belongs to the configured language set.
func (c *Config) IsSupported(code string) bool {
	for _, lang := range c.Languages {
		if lang.Code == code {
			return true
		}
	}
	return false
}

// CacheMaxAge returns the cache TTL as a duration.
func (c *Config) CacheMaxAge() time.Duration {
	return time.Duration(c.CacheMaxAgeHours) * time.Hour
}

// RetryDelay returns the linear backoff base as a duration.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMS) * time.Millisecond
}

// RateLimitDelay returns the minimum inter-request spacing as a duration.
func (c *Config) RateLimitDelay() time.Duration {
	return time.Duration(c.RateLimitDelayMS) * time.Millisecond
}

// BatchDelay returns the inter-batch pause as a duration.
func (c *Config) BatchDelay() time.Duration {
	return time.Duration(c.BatchDelayMS) * time.Millisecond
}

// PagesRoot returns the absolute pages directory.
func (c *Config) PagesRoot() string {
	return filepath.Join(c.Root, c.PagesDir)
}

// CacheRoot returns the absolute cache directory.
func (c *Config) CacheRoot() string {
	return filepath.Join(c.Root, c.CacheDir)
}

// OverridesRoot returns the absolute overrides directory.
func (c *Config) OverridesRoot() string {
	return filepath.Join(c.Root, c.OverridesDir)
}

// OutputRoot returns the absolute output directory.
func (c *Config) OutputRoot() string {
	return filepath.Join(c.Root, c.OutputDir)
}
