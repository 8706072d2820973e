package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kirillkom/place-archive/internal/core/domain"
)

type FeedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) CreateFeedback(ctx context.Context, fb *domain.Feedback) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO feedback (id, user_id, content, user_email, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
`, fb.ID, fb.UserID, fb.Content, fb.UserEmail, string(fb.Status), fb.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

func (r *FeedbackRepository) ListFeedback(ctx context.Context, userID string) ([]domain.Feedback, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, content, user_email, status, created_at
FROM feedback
WHERE user_id = $1
ORDER BY created_at DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Feedback, 0)
	for rows.Next() {
		var fb domain.Feedback
		var email sql.NullString
		var status string
		if err := rows.Scan(&fb.ID, &fb.UserID, &fb.Content, &email, &status, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		if email.Valid {
			fb.UserEmail = &email.String
		}
		fb.Status = domain.FeedbackStatus(status)
		out = append(out, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback: %w", err)
	}
	return out, nil
}
