package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/genai"
)

func TestGeminiProvider_Generate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-test:generateContent") {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if _, ok := body["systemInstruction"]; !ok {
			t.Error("Expected systemInstruction in request")
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "[{\"title\":\"Constatations\"}]"}]}}],
			"usageMetadata": {"totalTokenCount": 42}
		}`))
	}))
	defer server.Close()

	provider, err := NewGeminiProvider(context.Background(), Config{APIKey: "test-key", BaseURL: server.URL, Model: "gemini-test"})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Generate(context.Background(), Request{
		Prompt:            "Trame d'enquête",
		SystemInstruction: "Vous êtes OPJ",
		Schema:            testStepSchema,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if resp.Text != `[{"title":"Constatations"}]` {
		t.Errorf("Unexpected text: %s", resp.Text)
	}
	if resp.TokensUsed != 42 {
		t.Errorf("Unexpected token usage: %d", resp.TokensUsed)
	}
}

func TestGeminiProvider_Generate_QuotaPreserved(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"code": 429, "message": "Quota exceeded", "status": "RESOURCE_EXHAUSTED"}}`))
	}))
	defer server.Close()

	provider, err := NewGeminiProvider(context.Background(), Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Generate(context.Background(), Request{Prompt: "x", SystemInstruction: "sys"})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !IsQuotaError(err) {
		t.Errorf("Expected quota error, got %v", err)
	}
}

func TestGeminiProvider_MissingCredential(t *testing.T) {
	provider, err := NewGeminiProvider(context.Background(), Config{})
	if err != nil {
		t.Fatalf("Construction must tolerate a missing key: %v", err)
	}

	_, err = provider.Generate(context.Background(), Request{Prompt: "x", SystemInstruction: "sys"})
	if !errors.Is(err, ErrMissingCredential) {
		t.Errorf("Expected ErrMissingCredential, got %v", err)
	}
	if IsQuotaError(err) {
		t.Error("Missing credential must not look like a quota error")
	}
}

func TestToGenAISchema(t *testing.T) {
	got := toGenAISchema(testStepSchema)
	if got.Type != genai.TypeArray || got.Items == nil || got.Items.Type != genai.TypeObject {
		t.Fatalf("Unexpected schema: %+v", got)
	}
	if p := got.Items.Properties["priority"]; p == nil || len(p.Enum) != 3 {
		t.Errorf("Expected priority enum, got %+v", p)
	}
	if strings.Join(got.Items.PropertyOrdering, ",") != "title,priority" {
		t.Errorf("Unexpected ordering: %v", got.Items.PropertyOrdering)
	}
}
