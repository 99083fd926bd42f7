package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"policypilot/backend/features/ask"
	"policypilot/backend/features/documents"
	"policypilot/backend/features/stats"
	"policypilot/backend/internal/adapter/extractor"
	"policypilot/backend/internal/adapter/gemini"
	"policypilot/backend/internal/answer"
	"policypilot/backend/internal/config"
	"policypilot/backend/internal/corpus"
	"policypilot/backend/internal/index"
	"policypilot/backend/internal/middleware"
	"policypilot/backend/internal/retrieval"
	"policypilot/backend/internal/worker"
)

type TaskPublisher interface {
	Publish(topic string, body []byte) error
}

type App struct {
	Handler         http.Handler
	AnswerService   *answer.Service
	IndexManager    *index.Manager
	RebuildConsumer *worker.RebuildConsumer

	port int
}

// New wires the full pipeline: corpus loading, the index manager with
// its on-disk store, retrieval, answer generation, and the HTTP surface.
// db and taskPub may be nil; history and async rebuilds degrade
// gracefully without them.
func New(
	ctx context.Context,
	cfg *config.Config,
	db *sql.DB,
	taskPub TaskPublisher,
	logger *slog.Logger,
) (*App, error) {

	// Adapters
	embedder, err := gemini.NewEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel)
	if err != nil {
		return nil, fmt.Errorf("gemini embedder: %w", err)
	}
	generator, err := gemini.NewGenerator(ctx, cfg.GeminiAPIKey, cfg.GenerationModel)
	if err != nil {
		return nil, fmt.Errorf("gemini generator: %w", err)
	}
	extractorClient := extractor.NewClient(cfg.ExtractorURL)

	// Index lifecycle
	loader := corpus.NewLoader(cfg.DataDir, cfg.CleanedDir, extractorClient)
	store := index.NewStore(cfg.IndexDir)
	manager := index.NewManager(store, loader, embedder, index.Options{
		UseCleaned: cfg.UseCleaned,
		ChunkSize:  cfg.ChunkSize,
		Overlap:    cfg.Overlap,
	})

	// Answering
	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}

	retrievalService := retrieval.NewService(embedder, manager)
	answerService := answer.NewService(retrievalService, generator, queryLogger, answer.Options{
		TopK:        cfg.TopK,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}, logger)

	// Feature: Ask
	var askRepo ask.Repository
	if db != nil {
		askRepo = ask.NewPostgresRepo(db)
	}
	askHandler := ask.NewHandler(answerService, askRepo)

	// Feature: Documents
	var publisher documents.EventPublisher
	if taskPub != nil {
		publisher = taskPub
	}
	docService := documents.NewService(cfg.DataDir, publisher, manager)
	docHandler := documents.NewHandler(docService, cfg.MaxUploadSizeMB)

	// Feature: Stats
	statsHandler := stats.NewHandler(docService, countRepo(askRepo), manager)

	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	mux := http.NewServeMux()

	mux.Handle("POST /ask", middleware.CorrelationID(enableCORS(askHandler.Ask)))
	mux.Handle("GET /queries", middleware.CorrelationID(enableCORS(askHandler.ListQueries)))

	mux.Handle("POST /documents", middleware.CorrelationID(enableCORS(docHandler.Upload)))
	mux.Handle("GET /documents", middleware.CorrelationID(enableCORS(docHandler.List)))
	mux.Handle("POST /index/rebuild", middleware.CorrelationID(enableCORS(docHandler.Rebuild)))
	mux.Handle("GET /index/status", middleware.CorrelationID(enableCORS(docHandler.Status)))

	mux.Handle("GET /stats", middleware.CorrelationID(enableCORS(statsHandler.GetStats)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return &App{
		Handler:         mux,
		AnswerService:   answerService,
		IndexManager:    manager,
		RebuildConsumer: worker.NewRebuildConsumer(manager),
		port:            cfg.ServerPort,
	}, nil
}

// countRepo narrows the ask repository to the stats interface while
// keeping a nil repository nil.
func countRepo(repo ask.Repository) stats.QueryRepo {
	if repo == nil {
		return nil
	}
	return repo
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
