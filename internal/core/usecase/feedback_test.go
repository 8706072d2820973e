package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/place-archive/internal/core/domain"
)

type feedbackStoreFake struct {
	created []domain.Feedback
	err     error
}

func (f *feedbackStoreFake) CreateFeedback(_ context.Context, fb *domain.Feedback) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, *fb)
	return nil
}

func (f *feedbackStoreFake) ListFeedback(context.Context, string) ([]domain.Feedback, error) {
	return f.created, f.err
}

type notifierFake struct {
	events []domain.FeedbackSubmitted
	err    error
}

func (f *notifierFake) NotifyFeedback(_ context.Context, event domain.FeedbackSubmitted) error {
	f.events = append(f.events, event)
	return f.err
}

func TestFeedbackSubmitStoresThenNotifies(t *testing.T) {
	store := &feedbackStoreFake{}
	notifier := &notifierFake{}
	uc := NewFeedbackUseCase(store, notifier)

	email := " me@example.com "
	fb, err := uc.Submit(context.Background(), "user-1", "  지도 검색이 느려요  ", &email)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if fb.Content != "지도 검색이 느려요" || fb.Status != domain.FeedbackStatusNew {
		t.Fatalf("unexpected feedback: %+v", fb)
	}
	if fb.UserEmail == nil || *fb.UserEmail != "me@example.com" {
		t.Fatalf("expected trimmed email")
	}
	if len(store.created) != 1 || len(notifier.events) != 1 {
		t.Fatalf("expected one insert and one notification")
	}
	if notifier.events[0].UserID != "user-1" || notifier.events[0].FeedbackID != fb.ID {
		t.Fatalf("unexpected event: %+v", notifier.events[0])
	}
}

func TestFeedbackSubmitIgnoresNotificationFailure(t *testing.T) {
	uc := NewFeedbackUseCase(&feedbackStoreFake{}, &notifierFake{err: errors.New("resend 500")})
	if _, err := uc.Submit(context.Background(), "user-1", "hello", nil); err != nil {
		t.Fatalf("expected notification failure to be swallowed, got %v", err)
	}
}

func TestFeedbackSubmitValidatesContent(t *testing.T) {
	store := &feedbackStoreFake{}
	notifier := &notifierFake{}
	uc := NewFeedbackUseCase(store, notifier)

	for _, content := range []string{"   ", strings.Repeat("가", maxFeedbackRunes+1)} {
		if _, err := uc.Submit(context.Background(), "user-1", content, nil); !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	}
	if len(store.created) != 0 || len(notifier.events) != 0 {
		t.Fatalf("expected nothing stored or sent")
	}
}

func TestFeedbackSubmitDoesNotNotifyWhenInsertFails(t *testing.T) {
	notifier := &notifierFake{}
	uc := NewFeedbackUseCase(&feedbackStoreFake{err: errors.New("db down")}, notifier)
	if _, err := uc.Submit(context.Background(), "user-1", "hello", nil); !domain.IsKind(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if len(notifier.events) != 0 {
		t.Fatalf("expected no notification")
	}
}
