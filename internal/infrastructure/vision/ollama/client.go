package ollama

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/place-archive/internal/core/domain"
	"github.com/kirillkom/place-archive/internal/infrastructure/vision"
)

// Client runs place extraction against a local multimodal model
// (llava, qwen2.5vl, gemma3) through /api/generate.
type Client struct {
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	instruction string
	httpClient  *http.Client
}

func New(baseURL, model string, temperature float64, maxTokens int, categories []string) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		instruction: vision.BuildInstruction(categories),
		httpClient:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (c *Client) ExtractPlaces(ctx context.Context, img domain.EncodedImage) ([]domain.ExtractedPlace, error) {
	options := map[string]any{
		"temperature": c.temperature,
	}
	if c.maxTokens > 0 {
		options["num_predict"] = c.maxTokens
	}
	reqBody := map[string]any{
		"model":   c.model,
		"prompt":  c.instruction,
		"images":  []string{base64.StdEncoding.EncodeToString(img.Data)},
		"stream":  false,
		"format":  "json",
		"options": options,
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return nil, err
	}
	return vision.ParsePlaces(response.Response)
}
