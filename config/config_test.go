package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default(".")

	if cfg.DefaultLanguage != "en" {
		t.Errorf("DefaultLanguage = %q, want en", cfg.DefaultLanguage)
	}
	if len(cfg.Languages) != 6 {
		t.Fatalf("got %d languages, want 6", len(cfg.Languages))
	}
	if cfg.BatchSize != 10 || cfg.RetryAttempts != 3 {
		t.Errorf("unexpected tuning: batch=%d retries=%d", cfg.BatchSize, cfg.RetryAttempts)
	}
	if cfg.CacheMaxAge().Hours() != 7*24 {
		t.Errorf("CacheMaxAge = %v, want 168h", cfg.CacheMaxAge())
	}

	// Registry metadata must be filled in for code-only defaults.
	for _, lang := range cfg.Languages {
		if lang.Name == "" || lang.NativeName == "" {
			t.Errorf("language %q missing display metadata: %#v", lang.Code, lang)
		}
	}
}

func TestTargetLanguages(t *testing.T) {
	cfg := Default(".")
	targets := cfg.TargetLanguages()
	if len(targets) != 5 {
		t.Fatalf("got %d targets, want 5", len(targets))
	}
	for _, lang := range targets {
		if lang.Code == "en" {
			t.Error("default language must not be a translation target")
		}
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultLanguage != "en" || len(cfg.Languages) != 6 {
		t.Errorf("defaults not applied: %#v", cfg)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `base_url: https://example.org
default_language: en
languages:
  - code: en
    enabled: true
  - code: hi
    enabled: true
  - code: ta
    enabled: false
batch_size: 5
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "https://example.org" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.BatchSize != 5 {
		t.Errorf("BatchSize = %d, want 5", cfg.BatchSize)
	}
	// Omitted fields fall back to defaults.
	if cfg.RetryAttempts != 3 {
		t.Errorf("RetryAttempts = %d, want default 3", cfg.RetryAttempts)
	}

	targets := cfg.TargetLanguages()
	if len(targets) != 1 || targets[0].Code != "hi" {
		t.Errorf("targets = %#v, want just hi", targets)
	}
	if targets[0].NativeName != "हिंदी" {
		t.Errorf("registry metadata not filled: %#v", targets[0])
	}
}

func TestLoad_InvalidDefaultLanguage(t *testing.T) {
	dir := t.TempDir()
	yaml := `default_language: fr
languages:
  - code: en
    enabled: true
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for default language missing from language set")
	}
}

func TestValidate_DuplicateCode(t *testing.T) {
	cfg := Default(".")
	cfg.Languages = append(cfg.Languages, Language{Code: "hi", Enabled: true})
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected duplicate code error")
	}
}

func TestValidate_DisabledDefault(t *testing.T) {
	cfg := Default(".")
	for i := range cfg.Languages {
		if cfg.Languages[i].Code == "en" {
			cfg.Languages[i].Enabled = false
		}
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected disabled default language error")
	}
}
