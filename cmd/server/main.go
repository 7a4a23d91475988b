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

	"github.com/XinghanGuo1019/AI/assets"
	"github.com/XinghanGuo1019/AI/internal/agent"
	"github.com/XinghanGuo1019/AI/internal/config"
	"github.com/XinghanGuo1019/AI/internal/llm"
	"github.com/XinghanGuo1019/AI/internal/repository"
	"github.com/XinghanGuo1019/AI/internal/server"
	"github.com/XinghanGuo1019/AI/internal/session"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	provider, err := llm.New(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	transcripts, closeStore, err := openTranscripts(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closeStore()

	// The service still starts without a tool server; queries then fail
	// with 503 until it is restarted with a reachable one.
	var sess session.Session
	mcpSession, err := session.Connect(ctx, cfg.MCPServer, logger)
	if err != nil {
		logger.Error("tool server unavailable", "spec", cfg.MCPServer, "err", err)
	} else {
		sess = mcpSession
		defer func() {
			if err := mcpSession.Close(); err != nil {
				logger.Warn("close tool session", "err", err)
			}
		}()
	}

	systemInstruction := cfg.SystemInstruction
	if systemInstruction == "" {
		systemInstruction = assets.SystemInstruction
	}

	a := agent.New(sess, provider, agent.Options{
		SystemInstruction:  systemInstruction,
		MaxTokens:          cfg.MaxTokens,
		InitialTemperature: &cfg.InitialTemperature,
		FinalTemperature:   &cfg.FinalTemperature,
		Transcripts:        transcripts,
		Logger:             logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           server.New(a, transcripts, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", "err", err)
		}
	}()

	logger.Info("listening", "addr", srv.Addr, "provider", provider.Name(), "model", cfg.Model)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server", "err", err)
	}
}

// openTranscripts returns the configured transcript store and its release
// function. A nil store disables persistence.
func openTranscripts(ctx context.Context, cfg *config.Config) (repository.TranscriptRepository, func(), error) {
	switch cfg.TranscriptStore {
	case config.StoreMongo:
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				log.Printf("mongodb disconnect: %v", err)
			}
		}
		return repository.NewMongoTranscriptRepository(mongoClient.Database(cfg.MongoDB), "transcripts"), closeFn, nil

	case config.StoreSQLite:
		repo, err := repository.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := repo.Close(); err != nil {
				log.Printf("sqlite close: %v", err)
			}
		}
		return repo, closeFn, nil
	}

	return nil, func() {}, nil
}
