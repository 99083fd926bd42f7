package answer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"policypilot/backend/internal/corpus"
	"policypilot/backend/internal/middleware"
	"policypilot/backend/internal/retrieval"
)

// stopSequence truncates generation at the model's end-of-sequence
// marker so trailing chatter never reaches the JSON extractor.
var stopSequence = []string{"</s>"}

type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]corpus.Chunk, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int, temperature float32, stop []string) (string, error)
}

// Options carry the configured defaults for the generation knobs.
type Options struct {
	TopK        int
	MaxTokens   int
	Temperature float32
}

// Params override the defaults for a single query. Nil fields fall back
// to the service options; out-of-range values are ignored rather than
// rejected.
type Params struct {
	TopK        *int     `json:"top_k,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"`
}

type Service struct {
	retriever Retriever
	generator Generator
	queryLog  *retrieval.QueryLogger
	opts      Options
	logger    *slog.Logger
}

func NewService(retriever Retriever, generator Generator, queryLog *retrieval.QueryLogger, opts Options, logger *slog.Logger) *Service {
	return &Service{
		retriever: retriever,
		generator: generator,
		queryLog:  queryLog,
		opts:      opts,
		logger:    logger,
	}
}

func (s *Service) resolve(p Params) Options {
	o := s.opts
	if p.TopK != nil && *p.TopK > 0 {
		o.TopK = *p.TopK
	}
	if p.MaxTokens != nil && *p.MaxTokens > 0 {
		o.MaxTokens = *p.MaxTokens
	}
	if p.Temperature != nil && *p.Temperature >= 0 {
		o.Temperature = *p.Temperature
	}
	return o
}

// Answer runs the full pipeline for one query: retrieve the most
// relevant clauses, compose the prompt, generate, then extract and
// normalize the model output. The caller may override top-k, max tokens,
// and temperature per query via params. Retrieval and generation
// failures are returned to the caller; malformed model output is not an
// error and degrades to the fallback answer instead.
func (s *Service) Answer(ctx context.Context, query string, params Params) (*Answer, error) {
	started := time.Now()
	opts := s.resolve(params)

	chunks, err := s.retriever.Retrieve(ctx, query, opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieve clauses: %w", err)
	}

	prompt := BuildPrompt(query, chunks)
	raw, err := s.generator.Generate(ctx, prompt, opts.MaxTokens, opts.Temperature, stopSequence)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	data, ok := ExtractJSON(raw)
	if !ok {
		s.logger.WarnContext(ctx, "model output had no parseable JSON, using fallback answer", "query", query)
	}
	ans := Normalize(data)

	// A decision without citations is unverifiable, so an empty
	// justification list is backfilled with the retrieved clauses in
	// ranked order.
	if len(ans.Justification) == 0 {
		for _, c := range chunks {
			ans.Justification = append(ans.Justification, Justification{ClauseID: c.ID, Text: c.Text})
		}
	}

	if s.queryLog != nil {
		s.queryLog.Log(retrieval.QueryLogEntry{
			Query:         query,
			Decision:      ans.Decision,
			NumChunks:     len(chunks),
			Duration:      time.Since(started),
			CorrelationID: middleware.GetCorrelationID(ctx),
		})
	}

	s.logger.InfoContext(ctx, "query answered",
		"decision", ans.Decision,
		"chunks", len(chunks),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return ans, nil
}
