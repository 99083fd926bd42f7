package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nsqio/go-nsq"

	"policypilot/backend/internal/answer"
	"policypilot/backend/internal/app"
	"policypilot/backend/internal/config"
	"policypilot/backend/internal/logger"
)

func main() {
	query := flag.String("query", "", "answer a single query on stdout and exit")
	rebuild := flag.Bool("rebuild", false, "force a full index rebuild on startup")
	topK := flag.Int("top-k", -1, "clauses to retrieve for -query (default from config)")
	maxTokens := flag.Int("max-tokens", -1, "generation token budget for -query (default from config)")
	temperature := flag.Float64("temperature", -1, "generation temperature for -query (default from config)")
	flag.Parse()

	log := slog.New(logger.NewContextHandler(slog.NewJSONHandler(os.Stdout, nil)))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *query != "" {
		params := answer.Params{}
		if *topK >= 0 {
			params.TopK = topK
		}
		if *maxTokens >= 0 {
			params.MaxTokens = maxTokens
		}
		if *temperature >= 0 {
			temp := float32(*temperature)
			params.Temperature = &temp
		}
		if err := runOnce(ctx, cfg, log, *query, params, *rebuild); err != nil {
			slog.Error("query failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, cfg, log, *rebuild); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// runOnce answers a single query without the HTTP surface, history
// database, or messaging: load or build the index, answer, print JSON.
func runOnce(ctx context.Context, cfg *config.Config, log *slog.Logger, query string, params answer.Params, rebuild bool) error {
	a, err := app.New(ctx, cfg, nil, nil, log)
	if err != nil {
		return err
	}

	if rebuild {
		if err := a.IndexManager.Ensure(ctx, true); err != nil {
			return err
		}
	}

	ans, err := a.AnswerService.Answer(ctx, query, params)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(ans)
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger, rebuild bool) error {
	deps, err := app.Bootstrap(cfg)
	if err != nil {
		return err
	}
	defer deps.DB.Close()
	defer deps.NSQProducer.Stop()

	a, err := app.New(ctx, cfg, deps.DB, deps.NSQProducer, log)
	if err != nil {
		return err
	}

	// Warm the index off the startup path so the server accepts
	// requests while the first build runs.
	go func() {
		if err := a.IndexManager.Ensure(ctx, rebuild); err != nil {
			slog.Warn("index not ready at startup", "error", err)
		}
	}()

	consumer, err := nsq.NewConsumer(config.TopicIndexRebuild, config.ChannelBackend, nsq.NewConfig())
	if err != nil {
		slog.Error("failed to create NSQ rebuild consumer", "error", err)
	} else {
		consumer.AddHandler(nsq.HandlerFunc(func(m *nsq.Message) error {
			return a.RebuildConsumer.HandleMessage(m)
		}))
		if err := consumer.ConnectToNSQLookupd(cfg.NSQLookupd); err != nil {
			slog.Error("failed to connect to NSQLookupd", "error", err)
		} else {
			slog.Info("NSQ rebuild consumer connected")
			defer consumer.Stop()
		}
	}

	return a.Run(ctx)
}
