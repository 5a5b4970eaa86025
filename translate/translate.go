// Package translate implements AI-powered translation of extracted page
// content through the OpenAI chat completions API, with rate limiting,
// retries, and batch processing tuned for medical content.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	// DefaultBaseURL is the OpenAI API base.
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultModel for medical translations.
	DefaultModel = "gpt-4"
	// DefaultTemperature keeps medical translations consistent.
	DefaultTemperature = 0.1
	// DefaultMaxTokens bounds the completion size.
	DefaultMaxTokens = 4000
)

const (
	defaultRateLimitDelay = 1 * time.Second
	defaultRetryDelay     = 1 * time.Second
	defaultBatchDelay     = 2 * time.Second
	defaultMaxRetries     = 3
	defaultBatchSize      = 10
	defaultTimeout        = 60 * time.Second
)

// MedicalSystemPrompt is the system prompt for hepatology content.
// {{source}} and {{target}} are replaced with language names.
const MedicalSystemPrompt = `You are a medical translator specializing in hepatology and liver care. Your task is to translate medical content from {{source}} to {{target}} while maintaining:

1. MEDICAL ACCURACY: Preserve all medical terminology, drug names, procedure names, and anatomical terms exactly as they are in the source language when they are internationally recognized (e.g., "liver transplantation", "hepatitis", "cirrhosis", "FibroScan", "TACE", "TIPS").

2. CONTEXT AWARENESS: This content is for a liver care institute (South Asian Liver Institute - SALi) providing liver transplantation, cirrhosis treatment, and hepatology services.

3. CULTURAL SENSITIVITY: Adapt content appropriately for the target language audience while maintaining medical accuracy.

4. FORMATTING: Preserve HTML tags, structure, and formatting exactly as provided.

5. BRAND CONSISTENCY: Maintain "South Asian Liver Institute" and "SALi" as proper nouns.

IMPORTANT RULES:
- Do NOT translate medical terms that are internationally standardized
- Do NOT translate proper nouns (doctor names, institute names, location names)
- Do NOT translate HTML attributes, class names, or technical elements
- Preserve all numbers, dates, phone numbers, and URLs exactly
- Maintain the same tone and formality level as the source

Translate only the text content while preserving all HTML structure and medical terminology.`

// Provider holds the configuration for the translation API.
type Provider struct {
	// BaseURL is the API base URL. Empty means DefaultBaseURL.
	BaseURL string
	// APIKey is the bearer token. Empty disables translation entirely.
	APIKey string
	// Model is the model identifier. Empty means DefaultModel.
	Model string
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string
	// Timeout is the per-request timeout.
	Timeout time.Duration
}

func (p Provider) baseURL() string {
	if p.BaseURL != "" {
		return strings.TrimRight(p.BaseURL, "/")
	}
	return DefaultBaseURL
}

func (p Provider) model() string {
	if p.Model != "" {
		return p.Model
	}
	return DefaultModel
}

func (p Provider) timeout() time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return defaultTimeout
}

// Request is a single string to translate.
type Request struct {
	Text           string
	SourceLang     string
	SourceLangName string
	TargetLang     string
	TargetLangName string
}

// Result carries a translation outcome. Confidence 0 means the provider
// call failed and TranslatedText is the untouched source text.
type Result struct {
	TranslatedText string
	SourceLang     string
	TargetLang     string
	Confidence     float64
}

// RateLimiter serializes provider calls so consecutive requests are at
// least Delay apart, regardless of which goroutine issues them.
type RateLimiter struct {
	mu    sync.Mutex
	last  time.Time
	Delay time.Duration
}

// NewRateLimiter returns a limiter enforcing the given minimum spacing.
// A non-positive delay falls back to one second.
func NewRateLimiter(delay time.Duration) *RateLimiter {
	if delay <= 0 {
		delay = defaultRateLimitDelay
	}
	return &RateLimiter{Delay: delay}
}

// Acquire blocks until the caller may issue the next request. The mutex is
// held across the wait so concurrent callers line up one behind another.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	wait := r.Delay - time.Since(r.last)
	if wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	r.last = time.Now()
	return nil
}

// Translator issues translation requests against a Provider.
type Translator struct {
	// Provider is the API configuration.
	Provider Provider
	// Limiter spaces out provider calls. Nil creates a default limiter.
	Limiter *RateLimiter
	// BatchSize is the number of items per batch (0 = 10).
	BatchSize int
	// MaxRetries for TranslateWithRetry (0 = 3).
	MaxRetries int
	// RetryDelay is the base backoff; attempt N waits N * RetryDelay.
	RetryDelay time.Duration
	// BatchDelay is the pause between batches (0 = 2s).
	BatchDelay time.Duration
	// OnLog emits log messages during translation.
	OnLog func(format string, args ...any)
	// OnError emits error messages during translation.
	OnError func(format string, args ...any)
	// Verbose enables detailed request logging.
	Verbose bool

	clientOnce  sync.Once
	client      *http.Client
	limiterOnce sync.Once
}

func (t *Translator) log(format string, args ...any) {
	if t.OnLog != nil {
		t.OnLog(format, args...)
	}
}

func (t *Translator) logError(format string, args ...any) {
	if t.OnError != nil {
		t.OnError(format, args...)
	} else if t.OnLog != nil {
		t.OnLog(format, args...)
	}
}

func (t *Translator) effectiveBatchSize() int {
	if t.BatchSize > 0 {
		return t.BatchSize
	}
	return defaultBatchSize
}

func (t *Translator) effectiveMaxRetries() int {
	if t.MaxRetries > 0 {
		return t.MaxRetries
	}
	return defaultMaxRetries
}

func (t *Translator) effectiveRetryDelay() time.Duration {
	if t.RetryDelay > 0 {
		return t.RetryDelay
	}
	return defaultRetryDelay
}

func (t *Translator) effectiveBatchDelay() time.Duration {
	if t.BatchDelay > 0 {
		return t.BatchDelay
	}
	return defaultBatchDelay
}

func (t *Translator) limiter() *RateLimiter {
	// Batch goroutines all reach here; the Once keeps them on one
	// shared limiter instead of racing to install their own.
	t.limiterOnce.Do(func() {
		if t.Limiter == nil {
			t.Limiter = NewRateLimiter(defaultRateLimitDelay)
		}
	})
	return t.Limiter
}

// Enabled reports whether the translator can issue provider calls.
func (t *Translator) Enabled() bool {
	return t.Provider.APIKey != ""
}

func (t *Translator) httpClient() *http.Client {
	t.clientOnce.Do(func() {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if t.Provider.Proxy != "" {
			if parsed, err := url.Parse(t.Provider.Proxy); err == nil {
				transport.Proxy = http.ProxyURL(parsed)
			}
		} else {
			transport.Proxy = http.ProxyFromEnvironment
		}
		t.client = &http.Client{
			Transport: transport,
			Timeout:   t.Provider.timeout(),
		}
	})
	return t.client
}

func systemPrompt(req Request) string {
	p := strings.ReplaceAll(MedicalSystemPrompt, "{{source}}", langLabel(req.SourceLang, req.SourceLangName))
	return strings.ReplaceAll(p, "{{target}}", langLabel(req.TargetLang, req.TargetLangName))
}

func langLabel(code, name string) string {
	if name != "" {
		return name
	}
	return code
}

// degraded returns the fallback result carrying the untranslated text.
func degraded(req Request) Result {
	return Result{
		TranslatedText: req.Text,
		SourceLang:     req.SourceLang,
		TargetLang:     req.TargetLang,
		Confidence:     0,
	}
}

// call issues a single chat completion request. Rate limiting is enforced
// before the request goes out.
func (t *Translator) call(ctx context.Context, req Request) (string, error) {
	if err := t.limiter().Acquire(ctx); err != nil {
		return "", err
	}

	userPrompt := fmt.Sprintf("Translate the following text from %s to %s:\n\n%s",
		langLabel(req.SourceLang, req.SourceLangName),
		langLabel(req.TargetLang, req.TargetLangName),
		req.Text)

	body, err := buildChatRequest(t.Provider.model(), systemPrompt(req), userPrompt)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	endpoint := t.Provider.baseURL() + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+t.Provider.APIKey)

	if t.Verbose {
		log.Printf("[DEBUG] POST %s (%s -> %s, %d chars)", endpoint, req.SourceLang, req.TargetLang, len(req.Text))
	}

	resp, err := t.httpClient().Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("API request failed: %w", err)
	}
	respBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(string(respBody), 500))
	}

	text, err := extractText(respBody)
	if err != nil {
		return "", err
	}
	if text == "" {
		// Empty completion: keep the source text, like a miss.
		return req.Text, nil
	}
	return text, nil
}

func buildChatRequest(model, system, user string) ([]byte, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	req := struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
	}{
		Model: model,
		Messages: []msg{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
	return json.Marshal(req)
}

func extractText(body []byte) (string, error) {
	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parsing API response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// TranslateOne translates a single string. Provider failures never
// propagate: the result carries the original text with confidence 0.
func (t *Translator) TranslateOne(ctx context.Context, req Request) Result {
	if !t.Enabled() {
		return degraded(req)
	}

	text, err := t.call(ctx, req)
	if err != nil {
		t.logError("translation error for %s -> %s: %v", req.SourceLang, req.TargetLang, err)
		return degraded(req)
	}

	return Result{
		TranslatedText: text,
		SourceLang:     req.SourceLang,
		TargetLang:     req.TargetLang,
		Confidence:     0.95,
	}
}

// TranslateWithRetry translates with up to maxRetries attempts and linear
// backoff between them. After exhaustion it degrades to the original text.
// Context cancellation aborts immediately with the degraded result.
func (t *Translator) TranslateWithRetry(ctx context.Context, req Request, maxRetries int) Result {
	if !t.Enabled() {
		return degraded(req)
	}
	if maxRetries <= 0 {
		maxRetries = t.effectiveMaxRetries()
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		text, err := t.call(ctx, req)
		if err == nil {
			return Result{
				TranslatedText: text,
				SourceLang:     req.SourceLang,
				TargetLang:     req.TargetLang,
				Confidence:     0.95,
			}
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		t.log("translation attempt %d/%d failed: %v", attempt, maxRetries, err)

		if attempt < maxRetries {
			wait := time.Duration(attempt) * t.effectiveRetryDelay()
			select {
			case <-ctx.Done():
				return degraded(req)
			case <-time.After(wait):
			}
		}
	}

	t.logError("translation failed after %d attempts: %v", maxRetries, lastErr)
	return degraded(req)
}

// TranslateBatch translates items in batches. Items within a batch run
// concurrently but results keep input order; a pause separates batches.
// Per-item failures degrade individually, so the returned slice always has
// one result per request, index-aligned with items.
func (t *Translator) TranslateBatch(ctx context.Context, items []Request) []Result {
	results := make([]Result, len(items))
	batchSize := t.effectiveBatchSize()

	for start := 0; start < len(items); start += batchSize {
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]

		var wg sync.WaitGroup
		for i, req := range batch {
			wg.Add(1)
			go func(slot int, req Request) {
				defer wg.Done()
				results[slot] = t.TranslateWithRetry(ctx, req, t.effectiveMaxRetries())
			}(start+i, req)
		}
		wg.Wait()

		if ctx.Err() != nil {
			// Fill the untouched tail with degraded results.
			for i := end; i < len(items); i++ {
				results[i] = degraded(items[i])
			}
			return results
		}

		if end < len(items) {
			select {
			case <-ctx.Done():
				for i := end; i < len(items); i++ {
					results[i] = degraded(items[i])
				}
				return results
			case <-time.After(t.effectiveBatchDelay()):
			}
		}
	}

	return results
}

// failurePhrases are substrings that indicate the model responded with an
// apology instead of a translation.
var failurePhrases = []string{
	"translation failed",
	"unable to translate",
	"error occurred",
	"translation error",
}

// Validate applies heuristic quality checks to a translation: non-empty,
// length ratio within [0.3, 3.0], and no failure phrases. A false return
// is diagnostic only; callers still keep the translation.
func Validate(original, translated string) bool {
	if strings.TrimSpace(translated) == "" {
		return false
	}

	// Rune counts, not bytes: Indic scripts take 3 bytes per character
	// and would blow past the ratio ceiling otherwise.
	origLen := utf8.RuneCountInString(original)
	if origLen > 0 {
		ratio := float64(utf8.RuneCountInString(translated)) / float64(origLen)
		if ratio < 0.3 || ratio > 3.0 {
			return false
		}
	}

	lower := strings.ToLower(translated)
	for _, phrase := range failurePhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}
	return true
}

// truncate truncates a string to maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
