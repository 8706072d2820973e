package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/place-archive/internal/core/domain"
	"github.com/kirillkom/place-archive/internal/infrastructure/resilience"
	"github.com/kirillkom/place-archive/internal/infrastructure/vision"
)

func completion(content string) string {
	payload, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": content}}},
	})
	return string(payload)
}

func TestExtractPlacesSendsImageAndParsesFencedJSON(t *testing.T) {
	var captured chatRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(completion("```json\n{\"places\":[{\"name\":\"대림창고\",\"suggestedCategory\":\"카페\",\"suggestedLocation\":\"성수동\",\"confidence\":0.92}]}\n```")))
	}))
	defer server.Close()

	client := New(Options{BaseURL: server.URL, APIKey: "sk-test", Temperature: 0.3, Categories: []string{"카페", "기타"}})
	places, err := client.ExtractPlaces(context.Background(), domain.EncodedImage{MimeType: "image/jpeg", Data: []byte{0xff, 0xd8}})
	if err != nil {
		t.Fatalf("ExtractPlaces() error = %v", err)
	}

	if auth != "Bearer sk-test" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	if captured.Model != DefaultModel || captured.MaxTokens != 1000 || captured.Temperature != 0.3 {
		t.Fatalf("unexpected request settings: %+v", captured)
	}
	parts := captured.Messages[0].Content
	if len(parts) != 2 || !strings.Contains(parts[0].Text, "카페 / 기타") {
		t.Fatalf("expected instruction with vocabulary, got %+v", parts)
	}
	if parts[1].ImageURL == nil || parts[1].ImageURL.URL != "data:image/jpeg;base64,/9g=" {
		t.Fatalf("unexpected image part: %+v", parts[1])
	}

	if len(places) != 1 || places[0].Name != "대림창고" || places[0].Confidence != 0.92 || places[0].SuggestedLocation != "성수동" {
		t.Fatalf("unexpected places: %+v", places)
	}
	if !strings.HasPrefix(places[0].RawText, "```json") {
		t.Fatalf("expected raw response preserved, got %q", places[0].RawText)
	}
}

func TestExtractPlacesMapsMissingArrayToExtractionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(completion(`{"result":"nothing here"}`)))
	}))
	defer server.Close()

	client := New(Options{BaseURL: server.URL, APIKey: "k"})
	_, err := client.ExtractPlaces(context.Background(), domain.EncodedImage{Data: []byte{1}})
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestExtractPlacesRetriesServerErrorsThroughGuard(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(completion(`{"places":[]}`)))
	}))
	defer server.Close()

	cfg := resilience.DefaultConfig()
	cfg.RetryInitialBackoff = 1
	cfg.RetryMaxBackoff = 1
	guarded := vision.Guard(New(Options{BaseURL: server.URL, APIKey: "k"}), vision.GuardOptions{
		Operation: "openai.extract",
		Executor:  resilience.NewExecutor(cfg),
	})

	places, err := guarded.ExtractPlaces(context.Background(), domain.EncodedImage{Data: []byte{1}})
	if err != nil {
		t.Fatalf("ExtractPlaces() error = %v", err)
	}
	if len(places) != 0 || calls != 2 {
		t.Fatalf("expected retry then empty result, calls=%d places=%v", calls, places)
	}
}

func TestExtractPlacesIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid image", http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := New(Options{BaseURL: server.URL, APIKey: "k"}).ExtractPlaces(context.Background(), domain.EncodedImage{Data: []byte{1}})
	if err == nil || !strings.Contains(err.Error(), "invalid image") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}
