package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/kirillkom/place-archive/internal/core/domain"
	"github.com/kirillkom/place-archive/internal/infrastructure/resilience"
	"github.com/kirillkom/place-archive/internal/infrastructure/vision"
)

const DefaultModel = "gemini-1.5-flash"

// Client is a Gemini-backed place extractor. The SDK client is opened once
// and shared by concurrent extractions.
type Client struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
	instruction string
}

func New(ctx context.Context, apiKey, model string, temperature float64, maxTokens int, categories []string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is not configured")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{
		client:      client,
		model:       model,
		temperature: float32(temperature),
		maxTokens:   int32(maxTokens),
		instruction: vision.BuildInstruction(categories),
	}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) ExtractPlaces(ctx context.Context, img domain.EncodedImage) ([]domain.ExtractedPlace, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(c.temperature)
	if c.maxTokens > 0 {
		model.SetMaxOutputTokens(c.maxTokens)
	}
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(c.instruction), genai.ImageData("jpeg", img.Data))
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return nil, domain.WrapError(domain.ErrExtraction, "gemini extract", errors.New("no candidates returned"))
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return nil, domain.WrapError(domain.ErrExtraction, "gemini extract", errors.New("empty content returned"))
	}
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return vision.ParsePlaces(text.String())
}

// ClassifyError treats transport and quota failures as retryable.
func ClassifyError(err error) resilience.ErrorClassification {
	class := vision.ClassifyHTTPError(err)
	if class.Retryable || !class.RecordFailure {
		return class
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"resource_exhausted", "unavailable", "deadline", "429", "500", "503"} {
		if strings.Contains(msg, marker) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
	}
	return class
}
