package resend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/place-archive/internal/core/domain"
	"github.com/kirillkom/place-archive/internal/infrastructure/resilience"
)

const (
	DefaultBaseURL = "https://api.resend.com"
	DefaultFrom    = "Place Archive <noreply@placearchive.com>"
	Subject        = "[Place Archive] 새로운 피드백이 도착했습니다"
)

var feedbackTemplate = template.Must(template.New("feedback").Parse(`<h2>새로운 피드백</h2>
<p style="white-space: pre-wrap">{{.Content}}</p>
<hr>
<ul>
  <li>사용자 ID: {{.UserID}}</li>
  <li>이메일: {{if .UserEmail}}{{.UserEmail}}{{else}}미입력{{end}}</li>
  <li>시간: {{.Time}}</li>
</ul>
`))

type Options struct {
	BaseURL            string
	APIKey             string
	To                 string
	From               string
	HTTPClient         *http.Client
	ResilienceExecutor *resilience.Executor
}

// Client emails feedback to the operator through the Resend API.
type Client struct {
	baseURL    string
	apiKey     string
	to         string
	from       string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	from := strings.TrimSpace(opts.From)
	if from == "" {
		from = DefaultFrom
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(opts.APIKey),
		to:         strings.TrimSpace(opts.To),
		from:       from,
		httpClient: httpClient,
		executor:   opts.ResilienceExecutor,
	}
}

func (c *Client) Configured() bool {
	return c.apiKey != "" && c.to != ""
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// NotifyFeedback sends one email. Without credentials it logs and returns nil.
func (c *Client) NotifyFeedback(ctx context.Context, event domain.FeedbackSubmitted) error {
	if !c.Configured() {
		slog.Info("feedback_email_skipped", "feedback_id", event.FeedbackID, "reason", "resend not configured")
		return nil
	}

	html, err := RenderFeedbackHTML(event)
	if err != nil {
		return err
	}
	body, err := json.Marshal(sendRequest{From: c.from, To: []string{c.to}, Subject: Subject, HTML: html})
	if err != nil {
		return fmt.Errorf("marshal resend request: %w", err)
	}

	call := func(callCtx context.Context) error {
		return c.send(callCtx, body)
	}
	if c.executor != nil {
		err = c.executor.Execute(ctx, "resend.send", call, classifyResendError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		if classifyResendError(err).Retryable || resilience.IsCircuitOpen(err) {
			return domain.WrapError(domain.ErrTemporary, "send feedback email", err)
		}
		return fmt.Errorf("send feedback email: %w", err)
	}
	slog.Info("feedback_email_sent", "feedback_id", event.FeedbackID)
	return nil
}

func (c *Client) send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create resend request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("resend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func RenderFeedbackHTML(event domain.FeedbackSubmitted) (string, error) {
	email := ""
	if event.UserEmail != nil {
		email = *event.UserEmail
	}
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	var buf bytes.Buffer
	err := feedbackTemplate.Execute(&buf, struct {
		Content   string
		UserID    string
		UserEmail string
		Time      string
	}{
		Content:   event.Content,
		UserID:    event.UserID,
		UserEmail: email,
		Time:      ts.Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("render feedback email: %w", err)
	}
	return buf.String(), nil
}

type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("resend status %d: %s", e.StatusCode, e.Body)
}

func classifyResendError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		retryable := statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
		return resilience.ErrorClassification{Retryable: retryable, RecordFailure: retryable}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}
