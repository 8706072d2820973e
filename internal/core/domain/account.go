package domain

import "time"

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// CategoryCheck reports which catalog categories are missing from storage.
type CategoryCheck struct {
	Missing []Category `json:"missing"`
	// SQL creates the missing rows; empty when nothing is missing.
	SQL string `json:"sql,omitempty"`
}

type User struct {
	ID           string    `json:"id"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type AuthResult struct {
	UserID    string `json:"user_id"`
	IsNewUser bool   `json:"is_new_user"`
}

type FeedbackStatus string

const FeedbackStatusNew FeedbackStatus = "new"

type Feedback struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Content   string         `json:"content"`
	UserEmail *string        `json:"user_email,omitempty"`
	Status    FeedbackStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

// FeedbackSubmitted is the notification payload handed to the mail relay.
type FeedbackSubmitted struct {
	FeedbackID string    `json:"feedback_id"`
	Content    string    `json:"content"`
	UserEmail  *string   `json:"userEmail"`
	UserID     string    `json:"userId"`
	Timestamp  time.Time `json:"timestamp"`
}
