// Package langmeta provides a shared language metadata registry
// (English names, native names, emoji flags, text direction) used to
// fill in display metadata for configured site languages.
package langmeta

import "strings"

// Meta describes language display metadata.
type Meta struct {
	Name       string
	NativeName string
	Flag       string
	RTL        bool
}

// Registry contains canonical language metadata.
// Locale variants are resolved in Resolve() via normalization and base fallback.
var Registry = map[string]Meta{
	"ar":    {Name: "Arabic", NativeName: "العربية", Flag: "🇸🇦", RTL: true},
	"as":    {Name: "Assamese", NativeName: "অসমীয়া", Flag: "🇮🇳"},
	"bn":    {Name: "Bengali", NativeName: "বাংলা", Flag: "🇮🇳"},
	"de":    {Name: "German", NativeName: "Deutsch", Flag: "🇩🇪"},
	"en":    {Name: "English", NativeName: "English", Flag: "🇺🇸"},
	"en-GB": {Name: "English (UK)", NativeName: "English (UK)", Flag: "🇬🇧"},
	"en-IN": {Name: "English (India)", NativeName: "English (India)", Flag: "🇮🇳"},
	"es":    {Name: "Spanish", NativeName: "Español", Flag: "🇪🇸"},
	"fa":    {Name: "Persian", NativeName: "فارسی", Flag: "🇮🇷", RTL: true},
	"fr":    {Name: "French", NativeName: "Français", Flag: "🇫🇷"},
	"gu":    {Name: "Gujarati", NativeName: "ગુજરાતી", Flag: "🇮🇳"},
	"he":    {Name: "Hebrew", NativeName: "עברית", Flag: "🇮🇱", RTL: true},
	"hi":    {Name: "Hindi", NativeName: "हिंदी", Flag: "🇮🇳"},
	"kn":    {Name: "Kannada", NativeName: "ಕನ್ನಡ", Flag: "🇮🇳"},
	"ml":    {Name: "Malayalam", NativeName: "മലയാളം", Flag: "🇮🇳"},
	"mr":    {Name: "Marathi", NativeName: "मराठी", Flag: "🇮🇳"},
	"ne":    {Name: "Nepali", NativeName: "नेपाली", Flag: "🇳🇵"},
	"or":    {Name: "Odia", NativeName: "ଓଡ଼ିଆ", Flag: "🇮🇳"},
	"pa":    {Name: "Punjabi", NativeName: "ਪੰਜਾਬੀ", Flag: "🇮🇳"},
	"pt":    {Name: "Portuguese", NativeName: "Português", Flag: "🇵🇹"},
	"ru":    {Name: "Russian", NativeName: "Русский", Flag: "🇷🇺"},
	"si":    {Name: "Sinhala", NativeName: "සිංහල", Flag: "🇱🇰"},
	"ta":    {Name: "Tamil", NativeName: "தமிழ்", Flag: "🇮🇳"},
	"te":    {Name: "Telugu", NativeName: "తెలుగు", Flag: "🇮🇳"},
	"ur":    {Name: "Urdu", NativeName: "اردو", Flag: "🇵🇰", RTL: true},
	"zh":    {Name: "Chinese", NativeName: "中文", Flag: "🇨🇳"},
}

func canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 {
		parts[1] = strings.ToUpper(parts[1])
	}
	return strings.Join(parts, "-")
}

// Resolve returns best-effort language metadata for language codes,
// supporting variants like hi_IN, hi-IN, and locale fallbacks.
func Resolve(lang string) Meta {
	if m, ok := Registry[lang]; ok {
		return m
	}
	normalized := canonicalize(lang)
	if m, ok := Registry[normalized]; ok {
		return m
	}
	if parts := strings.SplitN(normalized, "-", 2); len(parts) == 2 {
		if m, ok := Registry[parts[0]]; ok {
			return m
		}
	}
	return Meta{Name: lang, NativeName: lang}
}

// Name returns the English display name for a language code.
func Name(lang string) string {
	return Resolve(lang).Name
}

// NativeName returns the native display name for a language code.
func NativeName(lang string) string {
	return Resolve(lang).NativeName
}
