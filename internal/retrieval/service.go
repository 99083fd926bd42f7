package retrieval

import (
	"context"
	"log/slog"

	"policypilot/backend/internal/corpus"
	"policypilot/backend/internal/vector"
)

// Embedder embeds a single query with the same engine and normalization
// used at index-build time.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// IndexProvider hands out the current index and chunk list, building or
// loading them on first use.
type IndexProvider interface {
	Snapshot(ctx context.Context) (*vector.Flat, []corpus.Chunk, error)
}

type Service struct {
	embedder Embedder
	index    IndexProvider
}

func NewService(e Embedder, idx IndexProvider) *Service {
	return &Service{embedder: e, index: idx}
}

// Retrieve returns the topK chunks nearest to the query, in descending
// similarity order. The query is embedded exactly once. topK beyond the
// corpus size returns every chunk; negative neighbor ids (the engine's
// "no match" sentinel) are dropped.
func (s *Service) Retrieve(ctx context.Context, query string, topK int) ([]corpus.Chunk, error) {
	idx, chunks, err := s.index.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	ids, scores, err := idx.Search(vec, topK)
	if err != nil {
		return nil, err
	}

	results := make([]corpus.Chunk, 0, len(ids))
	for i, id := range ids {
		if id < 0 || id >= len(chunks) {
			continue
		}
		results = append(results, chunks[id])
		if i < len(scores) {
			slog.DebugContext(ctx, "retrieved chunk", "id", chunks[id].ID, "score", scores[i])
		}
	}
	return results, nil
}
