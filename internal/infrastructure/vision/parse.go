package vision

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kirillkom/place-archive/internal/core/domain"
)

type rawPlace struct {
	Name              string    `json:"name"`
	SuggestedCategory string    `json:"suggestedCategory"`
	SuggestedLocation string    `json:"suggestedLocation"`
	Confidence        flexFloat `json:"confidence"`
}

// flexFloat accepts a JSON number or a numeric string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("confidence %q is not a number", s)
	}
	*f = flexFloat(v)
	return nil
}

// ParsePlaces decodes a model response into extracted places. The whole
// response text is kept on every place as RawText.
func ParsePlaces(content string) ([]domain.ExtractedPlace, error) {
	if strings.TrimSpace(content) == "" {
		return nil, domain.WrapError(domain.ErrExtraction, "parse places", errors.New("empty model response"))
	}

	var envelope struct {
		Places *[]rawPlace `json:"places"`
	}
	if err := json.Unmarshal([]byte(StripCodeFence(content)), &envelope); err != nil {
		return nil, domain.WrapError(domain.ErrExtraction, "parse places", fmt.Errorf("invalid json: %w", err))
	}
	if envelope.Places == nil {
		return nil, domain.WrapError(domain.ErrExtraction, "parse places", errors.New("response has no places array"))
	}

	out := make([]domain.ExtractedPlace, 0, len(*envelope.Places))
	for _, p := range *envelope.Places {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		out = append(out, domain.ExtractedPlace{
			Name:              name,
			SuggestedCategory: strings.TrimSpace(p.SuggestedCategory),
			SuggestedLocation: strings.TrimSpace(p.SuggestedLocation),
			Confidence:        float64(p.Confidence),
			RawText:           content,
		})
	}
	return out, nil
}

// StripCodeFence removes a surrounding ``` or ```json fence.
func StripCodeFence(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
