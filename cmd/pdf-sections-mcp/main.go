package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/config"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/logger"
	"github.com/Epistemic-Technology/pdf-sections-mcp/server"
)

func main() {
	// Load first so LOG_* variables from .env reach the logger.
	cfg, cfgErr := config.Load()

	var logConfig logger.LogConfig
	if cfg != nil {
		logConfig = cfg.Log
	}
	log, err := logger.NewLogger(logConfig)
	if err != nil {
		panic(err)
	}
	if cfgErr != nil {
		log.Fatal("Invalid configuration: %v", cfgErr)
	}

	log.Info("Starting pdf-sections-mcp server")

	srv, closeStore, err := server.CreateServer(cfg, log)
	if err != nil {
		log.Fatal("%v", err)
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		log.Error("Server failed: %v", err)
	}
}
