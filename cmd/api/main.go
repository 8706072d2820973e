package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/net/netutil"

	httpadapter "github.com/kirillkom/place-archive/internal/adapters/http"
	"github.com/kirillkom/place-archive/internal/bootstrap"
	"github.com/kirillkom/place-archive/internal/config"
	"github.com/kirillkom/place-archive/internal/observability/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("api", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()
	if app.Sessions == nil {
		log.Fatalf("SESSION_SECRET is required")
	}

	doc, err := httpadapter.LoadOpenAPI(ctx)
	if err != nil {
		log.Fatalf("openapi error: %v", err)
	}

	router := httpadapter.NewRouter(cfg, httpadapter.Services{
		Auth:       app.Auth,
		Sessions:   app.Sessions,
		Categories: app.Categories,
		Extractor:  app.Extractor,
		Finder:     app.Resolver,
		Saver:      app.Saver,
		Library:    app.Library,
		Feedback:   app.Feedback,
		Metrics:    app.Metrics,
		OpenAPI:    doc,
	}).Handler()

	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	listener, err := net.Listen("tcp", server.Addr)
	if err != nil {
		log.Fatalf("api listen error: %v", err)
	}
	if cfg.APIMaxConnections > 0 {
		listener = netutil.LimitListener(listener, cfg.APIMaxConnections)
	}

	go func() {
		slog.Info("api_listening", "addr", server.Addr, "max_connections", cfg.APIMaxConnections)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_failed", "error", err)
	}
}
