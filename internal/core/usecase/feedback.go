package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kirillkom/place-archive/internal/core/domain"
	"github.com/kirillkom/place-archive/internal/core/ports"
)

const maxFeedbackRunes = 5000

type FeedbackUseCase struct {
	store    ports.FeedbackStore
	notifier ports.FeedbackNotifier
}

func NewFeedbackUseCase(store ports.FeedbackStore, notifier ports.FeedbackNotifier) *FeedbackUseCase {
	return &FeedbackUseCase{store: store, notifier: notifier}
}

// Submit stores the feedback and then notifies. Notification failures are
// logged and never reach the caller.
func (uc *FeedbackUseCase) Submit(ctx context.Context, userID, content string, email *string) (*domain.Feedback, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit feedback", errors.New("content is required"))
	}
	if utf8.RuneCountInString(content) > maxFeedbackRunes {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit feedback", fmt.Errorf("content exceeds %d characters", maxFeedbackRunes))
	}

	var userEmail *string
	if email != nil {
		if trimmed := strings.TrimSpace(*email); trimmed != "" {
			userEmail = &trimmed
		}
	}

	feedback := &domain.Feedback{
		ID:        uuid.NewString(),
		UserID:    userID,
		Content:   content,
		UserEmail: userEmail,
		Status:    domain.FeedbackStatusNew,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.store.CreateFeedback(ctx, feedback); err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "submit feedback", err)
	}

	if uc.notifier != nil {
		event := domain.FeedbackSubmitted{
			FeedbackID: feedback.ID,
			Content:    feedback.Content,
			UserEmail:  feedback.UserEmail,
			UserID:     feedback.UserID,
			Timestamp:  feedback.CreatedAt,
		}
		if err := uc.notifier.NotifyFeedback(ctx, event); err != nil {
			slog.Warn("feedback_notification_failed", "feedback_id", feedback.ID, "error", err)
		}
	}
	return feedback, nil
}

func (uc *FeedbackUseCase) List(ctx context.Context, userID string) ([]domain.Feedback, error) {
	items, err := uc.store.ListFeedback(ctx, userID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "list feedback", err)
	}
	return items, nil
}
