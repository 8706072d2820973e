package vision

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/kirillkom/place-archive/internal/core/domain"
	"github.com/kirillkom/place-archive/internal/core/ports"
	"github.com/kirillkom/place-archive/internal/infrastructure/resilience"
)

// HTTPStatusError is returned by HTTP-based providers for non-2xx answers.
type HTTPStatusError struct {
	Provider   string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "vision status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("%s vision status: %s", e.Provider, e.Status)
	}
	return fmt.Sprintf("%s vision status: %s: %s", e.Provider, e.Status, strings.TrimSpace(e.Body))
}

func ClassifyHTTPError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	// A malformed answer is the model's fault, not the upstream's health.
	if domain.IsKind(err, domain.ErrExtraction) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if IsRetryableHTTPStatus(statusErr.StatusCode) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

func IsRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// Guarded wraps a provider with the shared retry/breaker executor and an
// optional upstream rate limit.
type Guarded struct {
	next       ports.VisionExtractor
	operation  string
	executor   *resilience.Executor
	limiter    *rate.Limiter
	classifier resilience.ErrorClassifier
}

type GuardOptions struct {
	Operation  string
	Executor   *resilience.Executor
	Limiter    *rate.Limiter
	Classifier resilience.ErrorClassifier
}

func Guard(next ports.VisionExtractor, opts GuardOptions) *Guarded {
	classifier := opts.Classifier
	if classifier == nil {
		classifier = ClassifyHTTPError
	}
	operation := opts.Operation
	if operation == "" {
		operation = "vision.extract"
	}
	return &Guarded{
		next:       next,
		operation:  operation,
		executor:   opts.Executor,
		limiter:    opts.Limiter,
		classifier: classifier,
	}
}

func (g *Guarded) ExtractPlaces(ctx context.Context, img domain.EncodedImage) ([]domain.ExtractedPlace, error) {
	call := func(callCtx context.Context) ([]domain.ExtractedPlace, error) {
		if g.limiter != nil {
			if err := g.limiter.Wait(callCtx); err != nil {
				return nil, fmt.Errorf("vision rate limit wait: %w", err)
			}
		}
		return g.next.ExtractPlaces(callCtx, img)
	}

	places, err := resilience.ExecuteValue(ctx, g.executor, g.operation, call, g.classifier)
	if err != nil {
		return nil, g.wrapTemporaryIfNeeded(err)
	}
	return places, nil
}

func (g *Guarded) wrapTemporaryIfNeeded(err error) error {
	if domain.IsKind(err, domain.ErrTemporary) || domain.IsKind(err, domain.ErrExtraction) {
		return err
	}
	class := g.classifier(err)
	if class.Retryable || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, g.operation, err)
	}
	return err
}
