package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func fastRetryConfig(attempts int) Config {
	return Config{
		RetryMaxAttempts:    attempts,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	}
}

func retryOn(target error) ErrorClassifier {
	return func(err error) ErrorClassification {
		return ErrorClassification{Retryable: errors.Is(err, target), RecordFailure: true}
	}
}

func TestExecuteRetriesUntilSuccess(t *testing.T) {
	exec := NewExecutor(fastRetryConfig(3))
	errFlaky := errors.New("kakao 503")

	attempts := 0
	err := exec.Execute(context.Background(), "kakao.search", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errFlaky
		}
		return nil
	}, retryOn(errFlaky))
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteStopsOnNonRetryableFailure(t *testing.T) {
	exec := NewExecutor(fastRetryConfig(3))
	errBadRequest := errors.New("400 bad request")

	attempts := 0
	err := exec.Execute(context.Background(), "openai.extract", func(context.Context) error {
		attempts++
		return errBadRequest
	}, retryOn(errors.New("other")))
	if !errors.Is(err, errBadRequest) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteReturnsLastErrorWhenContextEnds(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    5,
		RetryInitialBackoff: 50 * time.Millisecond,
		RetryMaxBackoff:     50 * time.Millisecond,
		RetryMultiplier:     1,
	})
	errFlaky := errors.New("flaky")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := exec.Execute(ctx, "op", func(context.Context) error { return errFlaky }, retryOn(errFlaky))
	if !errors.Is(err, errFlaky) {
		t.Fatalf("expected last operation error, got %v", err)
	}
}

func TestExecuteValueReturnsResult(t *testing.T) {
	exec := NewExecutor(fastRetryConfig(2))
	got, err := ExecuteValue(context.Background(), exec, "op", func(context.Context) (int, error) {
		return 42, nil
	}, nil)
	if err != nil || got != 42 {
		t.Fatalf("ExecuteValue() = %d, %v", got, err)
	}

	got, err = ExecuteValue(context.Background(), nil, "op", func(context.Context) (int, error) {
		return 7, nil
	}, nil)
	if err != nil || got != 7 {
		t.Fatalf("ExecuteValue() without executor = %d, %v", got, err)
	}
}

func TestExecuteOpensCircuitAndNotifiesObserver(t *testing.T) {
	var transitions []string
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	}, WithStateObserver(func(op string, from, to gobreaker.State) {
		transitions = append(transitions, op+":"+to.String())
	}))

	errDown := errors.New("down")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: true}
	}
	for i := 0; i < 2; i++ {
		if err := exec.Execute(context.Background(), "resend.send", func(context.Context) error { return errDown }, classifier); !errors.Is(err, errDown) {
			t.Fatalf("iteration %d: expected operation error, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "resend.send", func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	}, classifier)
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open state error, got %v", err)
	}
	if len(transitions) != 1 || transitions[0] != "resend.send:open" {
		t.Fatalf("unexpected transitions: %v", transitions)
	}
}

func TestExecuteIgnoresFailuresNotRecorded(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		BreakerEnabled:          true,
		BreakerMinRequests:      1,
		BreakerFailureRatio:     0.1,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	})
	errCanceled := context.Canceled
	ignore := func(error) ErrorClassification { return ErrorClassification{} }

	for i := 0; i < 3; i++ {
		err := exec.Execute(context.Background(), "op", func(context.Context) error { return errCanceled }, ignore)
		if IsCircuitOpen(err) {
			t.Fatalf("breaker must not trip on ignored failures")
		}
	}
}
