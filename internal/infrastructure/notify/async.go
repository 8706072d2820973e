// Package notify holds notifier decorators shared by the api and worker.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kirillkom/place-archive/internal/core/domain"
	"github.com/kirillkom/place-archive/internal/core/ports"
)

const defaultAsyncTimeout = 30 * time.Second

// Observer counts delivery outcomes.
type Observer interface {
	ObserveFeedbackNotification(result string)
}

// Async delivers notifications in the background so a feedback request never
// waits on the mail relay. Used when no queue is configured.
type Async struct {
	next     ports.FeedbackNotifier
	timeout  time.Duration
	observer Observer
	wg       sync.WaitGroup
}

func NewAsync(next ports.FeedbackNotifier, timeout time.Duration, observer Observer) *Async {
	if timeout <= 0 {
		timeout = defaultAsyncTimeout
	}
	return &Async{next: next, timeout: timeout, observer: observer}
}

func (a *Async) NotifyFeedback(ctx context.Context, event domain.FeedbackSubmitted) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()
		Deliver(sendCtx, a.next, event, a.observer)
	}()
	return nil
}

// Wait blocks until every background delivery has finished.
func (a *Async) Wait() {
	a.wg.Wait()
}

// Deliver runs one notification and records its outcome.
func Deliver(ctx context.Context, next ports.FeedbackNotifier, event domain.FeedbackSubmitted, observer Observer) error {
	err := next.NotifyFeedback(ctx, event)
	result := "sent"
	if err != nil {
		result = "failed"
		slog.Error("feedback_notification_failed", "feedback_id", event.FeedbackID, "error", err)
	}
	if observer != nil {
		observer.ObserveFeedbackNotification(result)
	}
	return err
}
