package kakao

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/place-archive/internal/core/domain"
	"github.com/kirillkom/place-archive/internal/infrastructure/resilience"
)

const (
	DefaultBaseURL = "https://dapi.kakao.com"
	keywordPath    = "/v2/local/search/keyword.json"
	defaultSize    = 5
)

type Options struct {
	BaseURL            string
	APIKey             string
	Size               int
	HTTPClient         *http.Client
	ResilienceExecutor *resilience.Executor
	ReadyTimeout       time.Duration
}

// Client searches places through the Kakao Local keyword API.
type Client struct {
	baseURL    string
	apiKey     string
	size       int
	httpClient *http.Client
	executor   *resilience.Executor
	ready      *Readiness
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	size := opts.Size
	if size <= 0 || size > 15 {
		size = defaultSize
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	c := &Client{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(opts.APIKey),
		size:       size,
		httpClient: httpClient,
		executor:   opts.ResilienceExecutor,
	}
	c.ready = NewReadiness(c.probe, opts.ReadyTimeout)
	return c
}

type keywordResponse struct {
	Documents []struct {
		PlaceName       string `json:"place_name"`
		AddressName     string `json:"address_name"`
		RoadAddressName string `json:"road_address_name"`
		X               string `json:"x"`
		Y               string `json:"y"`
	} `json:"documents"`
}

func (c *Client) SearchPlaces(ctx context.Context, query string) ([]domain.PlaceCandidate, error) {
	if err := c.ready.Wait(ctx); err != nil {
		return nil, fmt.Errorf("kakao not ready: %w", err)
	}

	call := func(callCtx context.Context) ([]domain.PlaceCandidate, error) {
		return c.keywordSearch(callCtx, query, c.size)
	}
	candidates, err := resilience.ExecuteValue(ctx, c.executor, "kakao.search", call, classifyKakaoError)
	if err != nil {
		return nil, wrapTemporaryIfNeeded(err)
	}
	return candidates, nil
}

// probe verifies the key against the live API once.
func (c *Client) probe(ctx context.Context) error {
	if c.apiKey == "" {
		return fmt.Errorf("kakao rest api key is not configured")
	}
	_, err := c.keywordSearch(ctx, "서울역", 1)
	return err
}

func (c *Client) keywordSearch(ctx context.Context, query string, size int) ([]domain.PlaceCandidate, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("size", strconv.Itoa(size))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+keywordPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create kakao request: %w", err)
	}
	req.Header.Set("Authorization", "KakaoAK "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kakao search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}

	var payload keywordResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode kakao response: %w", err)
	}

	out := make([]domain.PlaceCandidate, 0, len(payload.Documents))
	for _, doc := range payload.Documents {
		lat, errLat := strconv.ParseFloat(doc.Y, 64)
		lng, errLng := strconv.ParseFloat(doc.X, 64)
		if errLat != nil || errLng != nil {
			continue
		}
		address := doc.AddressName
		if address == "" {
			address = doc.RoadAddressName
		}
		out = append(out, domain.PlaceCandidate{
			Name:      doc.PlaceName,
			Address:   address,
			Latitude:  lat,
			Longitude: lng,
		})
	}
	return out, nil
}
