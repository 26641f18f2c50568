package openrouter

import (
	"net/http"
	"testing"
)

func TestChatModelConfig(t *testing.T) {
	t.Parallel()

	maxTokens := 512
	cfg := Config{
		BaseURL:            "https://openrouter.ai/api/v1/",
		APIKey:             "  key  ",
		Model:              " google/gemini-2.0-flash-001 ",
		MaxCompletionToken: &maxTokens,
		Temperature:        0.2,
	}

	got := cfg.ChatModelConfig()
	if got.BaseURL != "https://openrouter.ai/api/v1" {
		t.Fatalf("BaseURL = %q", got.BaseURL)
	}
	if got.APIKey != "key" {
		t.Fatalf("APIKey = %q", got.APIKey)
	}
	if got.Model != "google/gemini-2.0-flash-001" {
		t.Fatalf("Model = %q", got.Model)
	}
	if got.Temperature == nil || *got.Temperature != 0.2 {
		t.Fatalf("Temperature = %v", got.Temperature)
	}
	if got.MaxTokens == nil || *got.MaxTokens != 512 {
		t.Fatalf("MaxTokens = %v", got.MaxTokens)
	}
	if got.ExtraFields != nil {
		t.Fatalf("ExtraFields = %#v, want nil", got.ExtraFields)
	}
	if got.HTTPClient != nil {
		t.Fatal("expected default http client without attribution headers")
	}
}

func TestChatModelConfigAttributionHeaders(t *testing.T) {
	t.Parallel()

	var seen http.Header
	cfg := Config{APIKey: "k", Model: "m", SiteURL: "https://eazybank.example.com", SiteName: "EazyBank"}
	got := cfg.ChatModelConfig()
	if got.HTTPClient == nil {
		t.Fatal("expected http client carrying attribution headers")
	}

	transport, ok := got.HTTPClient.Transport.(*headerTransport)
	if !ok {
		t.Fatalf("unexpected transport %T", got.HTTPClient.Transport)
	}
	transport.next = roundTripFunc(func(req *http.Request) (*http.Response, error) {
		seen = req.Header
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: req}, nil
	})

	req, _ := http.NewRequest(http.MethodPost, "https://openrouter.ai/api/v1/chat/completions", nil)
	if _, err := got.HTTPClient.Do(req); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if seen.Get("HTTP-Referer") != "https://eazybank.example.com" {
		t.Fatalf("HTTP-Referer = %q", seen.Get("HTTP-Referer"))
	}
	if seen.Get("X-Title") != "EazyBank" {
		t.Fatalf("X-Title = %q", seen.Get("X-Title"))
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestChatModelConfigReasoningExcluded(t *testing.T) {
	t.Parallel()

	cfg := Config{APIKey: "k", Model: "x-ai/grok-4.1-fast"}
	got := cfg.ChatModelConfig()
	if _, ok := got.ExtraFields["reasoning"]; !ok {
		t.Fatalf("expected reasoning override, got %#v", got.ExtraFields)
	}
}
