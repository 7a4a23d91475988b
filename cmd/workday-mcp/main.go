package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/XinghanGuo1019/AI/internal/config"
	"github.com/XinghanGuo1019/AI/internal/workday"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// stdout carries the protocol, so logs go to stderr.
	logger := cfg.NewLogger(os.Stderr)

	docs := workday.NewDocIndex(logger)
	if err := docs.Index(cfg.HRDocsDir); err != nil {
		log.Fatal(err)
	}

	client := workday.NewClient(cfg.WorkdayAPIURL, cfg.WorkdayAPIToken, nil)
	server := workday.NewServer(client, docs, logger)

	logger.Info("starting workday MCP server", "api", cfg.WorkdayAPIURL, "docs", docs.Len())
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		log.Fatalf("workday MCP server: %v", err)
	}
}
