package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/XinghanGuo1019/AI/assets"
	"github.com/XinghanGuo1019/AI/internal/agent"
	"github.com/XinghanGuo1019/AI/internal/config"
	"github.com/XinghanGuo1019/AI/internal/llm"
	"github.com/XinghanGuo1019/AI/internal/server"
	"github.com/XinghanGuo1019/AI/internal/session"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: client <server-spec>")
		os.Exit(2)
	}
	spec := strings.Join(os.Args[1:], " ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	logger := cfg.NewLogger(os.Stderr)

	provider, err := llm.New(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	sess, err := session.Connect(ctx, spec, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Warn("close tool session", "err", err)
		}
	}()

	systemInstruction := cfg.SystemInstruction
	if systemInstruction == "" {
		systemInstruction = assets.SystemInstruction
	}

	a := agent.New(sess, provider, agent.Options{
		SystemInstruction:  systemInstruction,
		MaxTokens:          cfg.MaxTokens,
		InitialTemperature: &cfg.InitialTemperature,
		FinalTemperature:   &cfg.FinalTemperature,
		Logger:             logger,
	})

	chatLoop(ctx, a)
}

func chatLoop(ctx context.Context, a server.Agent) {
	fmt.Println("MCP client started. Type your queries or 'quit' to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nQuery: ")
		if !scanner.Scan() {
			return
		}

		query := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(query, "quit") {
			return
		}
		if query == "" {
			continue
		}

		resp, _ := server.Answer(ctx, a, query)
		if !resp.Success {
			fmt.Printf("\nError: %s\n", resp.Error)
			continue
		}
		fmt.Printf("\n%s\n", resp.Response)

		if ctx.Err() != nil {
			return
		}
	}
}
