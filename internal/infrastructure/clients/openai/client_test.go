package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/abdliliaai/Rxsentinel/internal/domain/providers"
	"github.com/abdliliaai/Rxsentinel/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(&config.OpenAIConfig{
		APIKey:         "test-key",
		Model:          "gpt-4o",
		BaseURL:        srv.URL,
		RateLimitRPM:   -1,
		RateLimitBurst: 0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return client, srv
}

func chatReply(content string) []byte {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
		"usage": map[string]int{"total_tokens": 100},
	})
	return body
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	if _, err := NewClient(&config.OpenAIConfig{}); err == nil {
		t.Error("expected error for missing api key")
	}
	if _, err := NewClient(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestComplete_ValidJSONResponse(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("wrong auth header: %s", got)
		}
		w.Write(chatReply(`{"status": "ok"}`))
	})

	raw, err := client.Complete(context.Background(), providers.CompletionRequest{
		System: "system prompt",
		User:   "user prompt",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed map[string]string
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("result not valid JSON: %v", err)
	}
	if parsed["status"] != "ok" {
		t.Errorf("wrong payload: %v", parsed)
	}
}

func TestComplete_StripsMarkdownFences(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(chatReply("```json\n{\"status\": \"fenced\"}\n```"))
	})

	raw, err := client.Complete(context.Background(), providers.CompletionRequest{User: "go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed map[string]string
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("result not valid JSON: %v", err)
	}
	if parsed["status"] != "fenced" {
		t.Errorf("wrong payload: %v", parsed)
	}
}

func TestComplete_ExtractsObjectFromProse(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(chatReply(`Here is the analysis you asked for: {"verdict": "fine"} Let me know if you need more.`))
	})

	raw, err := client.Complete(context.Background(), providers.CompletionRequest{User: "go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != `{"verdict": "fine"}` {
		t.Errorf("wrong extraction: %s", raw)
	}
}

func TestComplete_NonJSONResponse_Malformed(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(chatReply("I could not produce structured output, sorry."))
	})

	_, err := client.Complete(context.Background(), providers.CompletionRequest{User: "go"})
	if !errors.Is(err, providers.ErrReasoningMalformed) {
		t.Errorf("expected malformed sentinel, got %v", err)
	}
}

func TestComplete_ServerError_Transport(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Complete(context.Background(), providers.CompletionRequest{User: "go"})
	if !errors.Is(err, providers.ErrReasoningTransport) {
		t.Errorf("expected transport sentinel, got %v", err)
	}
}

func TestComplete_AttachesAllImagesToOneRequest(t *testing.T) {
	var captured struct {
		Messages []struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"messages"`
		Temperature float64 `json:"temperature"`
	}

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write(chatReply(`{}`))
	})

	images := [][]byte{[]byte("page-one"), []byte("page-two"), []byte("page-three")}
	_, err := client.Complete(context.Background(), providers.CompletionRequest{
		System: "extract",
		User:   "all pages",
		Images: images,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if captured.Temperature != 0.1 {
		t.Errorf("expected temperature 0.1, got %v", captured.Temperature)
	}
	if len(captured.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(captured.Messages))
	}

	var parts []contentPart
	if err := json.Unmarshal(captured.Messages[1].Content, &parts); err != nil {
		t.Fatalf("user content not multi-part: %v", err)
	}
	// one text part plus one image part per page
	if len(parts) != 1+len(images) {
		t.Fatalf("expected %d parts, got %d", 1+len(images), len(parts))
	}
	for _, part := range parts[1:] {
		if part.Type != "image_url" || part.ImageURL == nil {
			t.Errorf("expected image_url part, got %+v", part)
			continue
		}
		if !strings.HasPrefix(part.ImageURL.URL, "data:image/png;base64,") {
			t.Errorf("expected data URL, got %s", part.ImageURL.URL)
		}
	}
}

func TestExtractJSON_FencedArray(t *testing.T) {
	raw, err := extractJSON("```\n[1, 2, 3]\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != "[1, 2, 3]" {
		t.Errorf("wrong extraction: %s", raw)
	}
}

func TestFirstObject_RespectsStrings(t *testing.T) {
	got := firstObject(`prefix {"note": "brace } inside string", "n": 1} suffix`)
	want := `{"note": "brace } inside string", "n": 1}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestFirstObject_NoObject(t *testing.T) {
	if got := firstObject("nothing here"); got != "" {
		t.Errorf("expected empty, got %s", got)
	}
}
