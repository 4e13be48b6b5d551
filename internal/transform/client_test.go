package transform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tactile/internal/braille"
)

func completionServer(t *testing.T, content string, capture *chatCompletionRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			if err := json.NewDecoder(r.Body).Decode(capture); err != nil {
				t.Fatalf("decode request: %v", err)
			}
		}
		payload := map[string]any{
			"choices": []any{
				map[string]any{"message": map[string]any{"content": content}},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
}

func TestTransformLiteralUsesLiteralPrompt(t *testing.T) {
	var captured chatCompletionRequest
	server := completionServer(t, "⠓⠊", &captured)
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL, Model: "demo"})
	output, err := client.Transform(context.Background(), "hi", braille.ModeLiteral)
	if err != nil {
		t.Fatalf("Transform returned error: %v", err)
	}
	if output != "⠓⠊" {
		t.Fatalf("unexpected output %q", output)
	}
	if len(captured.Messages) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(captured.Messages))
	}
	if !strings.Contains(captured.Messages[0].Content, "braille cells") {
		t.Fatalf("expected literal prompt, got %q", captured.Messages[0].Content)
	}
	if captured.Messages[1].Content != "hi" {
		t.Fatalf("expected user text passthrough, got %q", captured.Messages[1].Content)
	}
}

func TestTransformOptimizedUsesOptimizedPrompt(t *testing.T) {
	var captured chatCompletionRequest
	server := completionServer(t, "short version", &captured)
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL, Model: "demo"})
	output, err := client.Transform(context.Background(), "a long transcript", braille.ModeOptimized)
	if err != nil {
		t.Fatalf("Transform returned error: %v", err)
	}
	if output != "short version" {
		t.Fatalf("unexpected output %q", output)
	}
	if !strings.Contains(captured.Messages[0].Content, "Grade 1") {
		t.Fatalf("expected optimized prompt, got %q", captured.Messages[0].Content)
	}
}

func TestTransformRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{})
	if _, err := client.Transform(context.Background(), "text", braille.ModeLiteral); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestTransformHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL, Model: "demo"})
	if _, err := client.Transform(context.Background(), "text", braille.ModeLiteral); err == nil {
		t.Fatal("expected error for http failure")
	}
}

func TestTransformEmptyCompletion(t *testing.T) {
	server := completionServer(t, "", nil)
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL, Model: "demo"})
	if _, err := client.Transform(context.Background(), "text", braille.ModeLiteral); err == nil {
		t.Fatal("expected error for empty completion")
	}
}

func TestHealthCheck(t *testing.T) {
	server := completionServer(t, "ok", nil)
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL, Model: "demo"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}
