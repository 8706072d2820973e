package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillkom/place-archive/internal/config"
	"github.com/kirillkom/place-archive/internal/core/ports"
	"github.com/kirillkom/place-archive/internal/infrastructure/cache/memory"
	rediscache "github.com/kirillkom/place-archive/internal/infrastructure/cache/redis"
	"github.com/kirillkom/place-archive/internal/infrastructure/notify"
	"github.com/kirillkom/place-archive/internal/infrastructure/notify/resend"
	"github.com/kirillkom/place-archive/internal/infrastructure/queue/nats"
	"github.com/kirillkom/place-archive/internal/infrastructure/resilience"
	"github.com/kirillkom/place-archive/internal/infrastructure/search"
	"github.com/kirillkom/place-archive/internal/infrastructure/search/kakao"
	"github.com/kirillkom/place-archive/internal/infrastructure/vision"
	"github.com/kirillkom/place-archive/internal/infrastructure/vision/gemini"
	"github.com/kirillkom/place-archive/internal/infrastructure/vision/ollama"
	"github.com/kirillkom/place-archive/internal/infrastructure/vision/openai"
)

const redisPingTimeout = 2 * time.Second

// NewExecutor builds the shared retry/breaker executor. observer may be nil.
func NewExecutor(cfg config.Config, observer resilience.StateObserver) *resilience.Executor {
	if observer == nil {
		return resilience.NewExecutor(cfg.Resilience())
	}
	return resilience.NewExecutor(cfg.Resilience(), resilience.WithStateObserver(observer))
}

// NewVisionExtractor selects the configured provider and guards it with the
// executor and the upstream rate limit. The returned func releases provider resources.
func NewVisionExtractor(ctx context.Context, cfg config.Config, executor *resilience.Executor, categories []string) (ports.VisionExtractor, func(), error) {
	var (
		provider ports.VisionExtractor
		closeFn  = func() {}
	)

	switch cfg.VisionProvider {
	case "", "openai":
		provider = openai.New(openai.Options{
			BaseURL:     cfg.OpenAIBaseURL,
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.OpenAIVisionModel,
			MaxTokens:   cfg.VisionMaxTokens,
			Temperature: cfg.VisionTemperature,
			Categories:  categories,
		})
	case "ollama":
		provider = ollama.New(cfg.OllamaURL, cfg.OllamaVisionModel, cfg.VisionTemperature, cfg.VisionMaxTokens, categories)
	case "gemini":
		client, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiVisionModel, cfg.VisionTemperature, cfg.VisionMaxTokens, categories)
		if err != nil {
			return nil, nil, fmt.Errorf("init gemini vision: %w", err)
		}
		provider = client
		closeFn = func() { _ = client.Close() }
	default:
		return nil, nil, fmt.Errorf("unsupported vision provider %q", cfg.VisionProvider)
	}

	var limiter *rate.Limiter
	if cfg.VisionRateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.VisionRateLimitRPS), 1)
	}

	guarded := vision.Guard(provider, vision.GuardOptions{
		Operation: "vision." + providerName(cfg.VisionProvider),
		Executor:  executor,
		Limiter:   limiter,
	})
	return guarded, closeFn, nil
}

func providerName(provider string) string {
	if provider == "" {
		return "openai"
	}
	return provider
}

// newPlaceSearcher builds the Kakao client behind the configured search cache.
func newPlaceSearcher(ctx context.Context, cfg config.Config, executor *resilience.Executor, observer search.CacheObserver) (ports.PlaceSearcher, func(), error) {
	client := kakao.New(kakao.Options{
		BaseURL:            cfg.KakaoBaseURL,
		APIKey:             cfg.KakaoRESTAPIKey,
		ResilienceExecutor: executor,
	})
	if cfg.KakaoRESTAPIKey == "" {
		slog.Warn("place_search_unconfigured", "reason", "KAKAO_REST_API_KEY is empty")
	}

	switch cfg.SearchCacheBackend {
	case "none", "off":
		return client, func() {}, nil
	case "", "memory":
		return search.NewCachedSearcher(client, memory.New(cfg.SearchCacheTTL), observer), func() {}, nil
	case "redis":
		cache := rediscache.New(rediscache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.SearchCacheTTL,
		})
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := cache.Ping(pingCtx); err != nil {
			slog.Warn("search_cache_unavailable", "backend", "redis", "addr", cfg.RedisAddr, "error", err)
		}
		return search.NewCachedSearcher(client, cache, observer), func() { _ = cache.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported search cache backend %q", cfg.SearchCacheBackend)
	}
}

// NewMailer builds the Resend client used for feedback email.
func NewMailer(cfg config.Config, executor *resilience.Executor) *resend.Client {
	return resend.New(resend.Options{
		APIKey:             cfg.ResendAPIKey,
		To:                 cfg.FeedbackEmail,
		From:               cfg.FeedbackFrom,
		ResilienceExecutor: executor,
	})
}

// NewFeedbackQueue connects to NATS for feedback events.
func NewFeedbackQueue(cfg config.Config, executor *resilience.Executor) (*nats.Queue, error) {
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSFeedbackSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init feedback queue: %w", err)
	}
	return queue, nil
}

// newFeedbackNotifier publishes to NATS when configured, otherwise sends email
// in-process on a background goroutine.
func newFeedbackNotifier(cfg config.Config, executor *resilience.Executor, observer notify.Observer) (ports.FeedbackNotifier, func(), error) {
	if cfg.NATSURL != "" {
		queue, err := NewFeedbackQueue(cfg, executor)
		if err != nil {
			return nil, nil, err
		}
		return queue, queue.Close, nil
	}

	async := notify.NewAsync(NewMailer(cfg, executor), 0, observer)
	return async, async.Wait, nil
}
