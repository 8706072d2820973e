package nats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/place-archive/internal/core/domain"
)

func TestFeedbackEventRoundTripKeepsWireNames(t *testing.T) {
	email := "a@example.com"
	event := domain.FeedbackSubmitted{
		FeedbackID: "f-1",
		Content:    "지도 링크가 좋아요",
		UserEmail:  &email,
		UserID:     "u-1",
		Timestamp:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	payload, err := EncodeFeedback(event)
	if err != nil {
		t.Fatalf("EncodeFeedback() error = %v", err)
	}
	for _, key := range []string{`"userEmail"`, `"userId"`, `"timestamp"`} {
		if !strings.Contains(string(payload), key) {
			t.Fatalf("payload missing %s: %s", key, payload)
		}
	}

	got, err := DecodeFeedback(payload)
	if err != nil {
		t.Fatalf("DecodeFeedback() error = %v", err)
	}
	if got.FeedbackID != "f-1" || got.UserEmail == nil || *got.UserEmail != email || !got.Timestamp.Equal(event.Timestamp) {
		t.Fatalf("unexpected decoded event: %+v", got)
	}
}

func TestDecodeFeedbackRejectsMalformedPayload(t *testing.T) {
	for _, raw := range []string{`not json`, `{"feedback_id":"f-1"}`, `{"content":"x"}`} {
		_, err := DecodeFeedback([]byte(raw))
		if !domain.IsKind(err, domain.ErrEncoding) {
			t.Fatalf("DecodeFeedback(%q) expected ErrEncoding, got %v", raw, err)
		}
	}
}

func TestClassifyNATSError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
		record    bool
	}{
		{name: "canceled", err: context.Canceled},
		{name: "no servers", err: fmt.Errorf("nats publish: %w", nats.ErrNoServers), retryable: true, record: true},
		{name: "closed", err: nats.ErrConnectionClosed, retryable: true, record: true},
		{name: "bad subject", err: nats.ErrBadSubject, record: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyNATSError(tt.err)
			if got.Retryable != tt.retryable || got.RecordFailure != tt.record {
				t.Fatalf("classifyNATSError(%v) = %+v", tt.err, got)
			}
		})
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	if err := wrapTemporaryIfNeeded(nats.ErrNoServers); !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
	errBad := errors.New("bad payload")
	if err := wrapTemporaryIfNeeded(errBad); domain.IsKind(err, domain.ErrTemporary) || !errors.Is(err, errBad) {
		t.Fatalf("permanent error must pass through, got %v", err)
	}
}
