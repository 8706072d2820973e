package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kirillkom/place-archive/internal/bootstrap"
	"github.com/kirillkom/place-archive/internal/config"
	"github.com/kirillkom/place-archive/internal/core/domain"
	"github.com/kirillkom/place-archive/internal/infrastructure/notify"
	"github.com/kirillkom/place-archive/internal/observability/logging"
	"github.com/kirillkom/place-archive/internal/observability/metrics"
)

const (
	serviceName   = "worker"
	notifyTimeout = 30 * time.Second
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	if cfg.NATSURL == "" {
		log.Fatalf("worker requires NATS_URL")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	executor := bootstrap.NewExecutor(cfg, workerMetrics.BreakerStateChanged)
	mailer := bootstrap.NewMailer(cfg, executor)
	if !mailer.Configured() {
		slog.Warn("feedback_email_unconfigured", "reason", "RESEND_API_KEY or FEEDBACK_EMAIL is empty")
	}

	queue, err := bootstrap.NewFeedbackQueue(cfg, executor)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer queue.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("worker_metrics_listening", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSFeedbackSubject)
	err = queue.SubscribeFeedbackSubmitted(ctx, func(handlerCtx context.Context, event domain.FeedbackSubmitted) error {
		workerMetrics.ObserveQueueLag(serviceName, time.Since(event.Timestamp))
		workerMetrics.StartNotification()
		start := time.Now()

		sendCtx, cancel := context.WithTimeout(handlerCtx, notifyTimeout)
		defer cancel()
		err := notify.Deliver(sendCtx, mailer, event, nil)
		workerMetrics.FinishNotification(serviceName, time.Since(start), err)
		return err
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
