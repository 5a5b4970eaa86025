// Package translate contains tests for the translation engine.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// chatHandler decodes a chat completions request and replies with content
// produced by translateFn from the user message's source text.
func chatHandler(t *testing.T, translateFn func(text string) (string, int)) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		var userText string
		for _, m := range req.Messages {
			if m.Role == "user" {
				if idx := strings.Index(m.Content, "\n\n"); idx >= 0 {
					userText = m.Content[idx+2:]
				}
			}
		}

		content, status := translateFn(userText)
		if status != http.StatusOK {
			w.WriteHeader(status)
			fmt.Fprint(w, `{"error":{"message":"boom"}}`)
			return
		}

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}
}

func testTranslator(srvURL string) *Translator {
	return &Translator{
		Provider: Provider{
			BaseURL: srvURL,
			APIKey:  "test-key",
			Model:   "gpt-4",
		},
		Limiter:    NewRateLimiter(time.Millisecond),
		RetryDelay: time.Millisecond,
		BatchDelay: time.Millisecond,
	}
}

func hindiReq(text string) Request {
	return Request{
		Text:           text,
		SourceLang:     "en",
		SourceLangName: "English",
		TargetLang:     "hi",
		TargetLangName: "Hindi",
	}
}

func TestTranslateOne_Success(t *testing.T) {
	srv := httptest.NewServer(chatHandler(t, func(text string) (string, int) {
		return "[hi] " + text, http.StatusOK
	}))
	defer srv.Close()

	tr := testTranslator(srv.URL)
	res := tr.TranslateOne(context.Background(), hindiReq("Liver care starts here"))

	if res.TranslatedText != "[hi] Liver care starts here" {
		t.Errorf("TranslatedText = %q", res.TranslatedText)
	}
	if res.Confidence != 0.95 {
		t.Errorf("Confidence = %v, want 0.95", res.Confidence)
	}
	if res.TargetLang != "hi" {
		t.Errorf("TargetLang = %q", res.TargetLang)
	}
}

func TestTranslateOne_WithoutAPIKey(t *testing.T) {
	calls := int32(0)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	tr := testTranslator(srv.URL)
	tr.Provider.APIKey = ""

	if tr.Enabled() {
		t.Fatal("translator without API key should be disabled")
	}

	res := tr.TranslateOne(context.Background(), hindiReq("Welcome"))
	if res.TranslatedText != "Welcome" || res.Confidence != 0 {
		t.Errorf("expected degraded result, got %+v", res)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Error("disabled translator must not issue HTTP calls")
	}
}

func TestTranslateOne_ServerErrorDegrades(t *testing.T) {
	srv := httptest.NewServer(chatHandler(t, func(string) (string, int) {
		return "", http.StatusInternalServerError
	}))
	defer srv.Close()

	tr := testTranslator(srv.URL)
	res := tr.TranslateOne(context.Background(), hindiReq("Welcome"))

	if res.TranslatedText != "Welcome" {
		t.Errorf("TranslatedText = %q, want original text back", res.TranslatedText)
	}
	if res.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", res.Confidence)
	}
}

func TestTranslateWithRetry_SucceedsAfterFailures(t *testing.T) {
	attempts := int32(0)
	srv := httptest.NewServer(chatHandler(t, func(text string) (string, int) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return "", http.StatusInternalServerError
		}
		return "[hi] " + text, http.StatusOK
	}))
	defer srv.Close()

	tr := testTranslator(srv.URL)
	res := tr.TranslateWithRetry(context.Background(), hindiReq("Welcome"), 3)

	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
	if res.TranslatedText != "[hi] Welcome" || res.Confidence != 0.95 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestTranslateWithRetry_ExhaustionDegrades(t *testing.T) {
	attempts := int32(0)
	srv := httptest.NewServer(chatHandler(t, func(string) (string, int) {
		atomic.AddInt32(&attempts, 1)
		return "", http.StatusInternalServerError
	}))
	defer srv.Close()

	tr := testTranslator(srv.URL)
	res := tr.TranslateWithRetry(context.Background(), hindiReq("Welcome"), 3)

	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("attempts = %d, want exactly 3", got)
	}
	if res.TranslatedText != "Welcome" || res.Confidence != 0 {
		t.Errorf("expected degraded result, got %+v", res)
	}
}

func TestTranslateBatch_PreservesOrder(t *testing.T) {
	srv := httptest.NewServer(chatHandler(t, func(text string) (string, int) {
		if strings.Contains(text, "FAIL") {
			return "", http.StatusInternalServerError
		}
		return "[hi] " + text, http.StatusOK
	}))
	defer srv.Close()

	tr := testTranslator(srv.URL)
	tr.BatchSize = 2
	tr.MaxRetries = 1

	items := []Request{
		hindiReq("one"),
		hindiReq("two"),
		hindiReq("FAIL three"),
		hindiReq("four"),
		hindiReq("five"),
	}
	results := tr.TranslateBatch(context.Background(), items)

	if len(results) != len(items) {
		t.Fatalf("got %d results, want %d", len(results), len(items))
	}
	want := []string{"[hi] one", "[hi] two", "FAIL three", "[hi] four", "[hi] five"}
	for i, w := range want {
		if results[i].TranslatedText != w {
			t.Errorf("results[%d] = %q, want %q", i, results[i].TranslatedText, w)
		}
	}
	if results[2].Confidence != 0 {
		t.Errorf("failed item confidence = %v, want 0", results[2].Confidence)
	}
	if results[3].Confidence != 0.95 {
		t.Errorf("item after failure confidence = %v, want 0.95", results[3].Confidence)
	}
}

func TestRateLimiterSpacing(t *testing.T) {
	rl := NewRateLimiter(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	if err := rl.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	if err := rl.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("second acquire after %v, want >= 50ms", elapsed)
	}
}

func TestRateLimiter_DefaultSharedAcrossGoroutines(t *testing.T) {
	// Batch goroutines hit limiter() concurrently; a nil Limiter must
	// resolve to one shared instance, or batch items stop serializing
	// through a single delay window.
	tr := &Translator{}

	const workers = 8
	got := make([]*RateLimiter, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = tr.limiter()
		}(i)
	}
	wg.Wait()

	if got[0] == nil {
		t.Fatal("limiter() returned nil")
	}
	if got[0].Delay != defaultRateLimitDelay {
		t.Errorf("default limiter delay = %v, want %v", got[0].Delay, defaultRateLimitDelay)
	}
	for i := 1; i < workers; i++ {
		if got[i] != got[0] {
			t.Fatalf("goroutine %d got a distinct limiter instance", i)
		}
	}
}

func TestRateLimiter_ContextCancel(t *testing.T) {
	rl := NewRateLimiter(time.Hour)
	if err := rl.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := rl.Acquire(ctx); err == nil {
		t.Fatal("expected context error from second acquire")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		original   string
		translated string
		want       bool
	}{
		{"good translation", "Welcome to our clinic", "हमारे क्लिनिक में आपका स्वागत है", true},
		{"empty", "Welcome", "", false},
		{"whitespace only", "Welcome", "   ", false},
		{"too short", "A long descriptive sentence about liver care services", "ok", false},
		{"too long", "Hi", strings.Repeat("x", 100), false},
		{"failure phrase", "Welcome to the institute", "Sorry, translation failed here", false},
		{"failure phrase case insensitive", "Welcome to the institute", "Unable To Translate this", false},
		{"identical is fine", "FibroScan", "FibroScan", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Validate(tc.original, tc.translated); got != tc.want {
				t.Errorf("Validate(%q, %q) = %v, want %v", tc.original, tc.translated, got, tc.want)
			}
		})
	}
}

func TestExtractText(t *testing.T) {
	body := []byte(`{"choices":[{"message":{"role":"assistant","content":"  नमस्ते  "}}]}`)
	text, err := extractText(body)
	if err != nil {
		t.Fatal(err)
	}
	if text != "नमस्ते" {
		t.Errorf("text = %q", text)
	}

	if _, err := extractText([]byte(`{"error":{"message":"quota"}}`)); err == nil {
		t.Error("expected error for error payload")
	}
}
