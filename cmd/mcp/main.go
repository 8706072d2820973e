package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/place-archive/internal/adapters/mcp"
	"github.com/kirillkom/place-archive/internal/bootstrap"
	"github.com/kirillkom/place-archive/internal/config"
	"github.com/kirillkom/place-archive/internal/observability/logging"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	// stdout carries the MCP protocol.
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel))
	log.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	s := mcpadapter.NewTools(app.Resolver, app.Library).Server(version)
	slog.Info("mcp_serving_stdio", "version", version)
	if err := server.ServeStdio(s); err != nil {
		slog.Error("mcp_server_stopped", "error", err)
	}
}
