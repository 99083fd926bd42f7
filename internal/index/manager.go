package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"policypilot/backend/internal/corpus"
	"policypilot/backend/internal/vector"
)

type State string

const (
	StateUnloaded State = "unloaded"
	StateLoaded   State = "loaded"
	StateBuilding State = "building"
)

// Embedder is the external embedding engine. Implementations return one
// L2-normalized vector per input text, in input order.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Loader supplies the source documents a build runs over.
type Loader interface {
	Load(ctx context.Context, useCleaned bool) ([]corpus.Document, error)
}

type Options struct {
	UseCleaned bool
	ChunkSize  int
	Overlap    int
}

type Status struct {
	State     State `json:"state"`
	Chunks    int   `json:"chunks"`
	Dimension int   `json:"dimension"`
}

// Manager mediates access to the shared in-memory index and chunk list.
// Concurrent reads of a loaded index are safe; a rebuild holds the write
// lock until the new index is fully persisted, then swaps the handles in
// as a single update. Readers therefore never observe a half-built index.
type Manager struct {
	store    *Store
	loader   Loader
	embedder Embedder
	opts     Options

	mu     sync.RWMutex
	state  State
	idx    *vector.Flat
	chunks []corpus.Chunk
}

func NewManager(store *Store, loader Loader, embedder Embedder, opts Options) *Manager {
	return &Manager{
		store:    store,
		loader:   loader,
		embedder: embedder,
		opts:     opts,
		state:    StateUnloaded,
	}
}

// Ensure makes the index available: load the persisted artifacts, or
// build from source documents when none exist. With rebuild set the
// existing artifacts are removed first and a fresh build replaces them.
func (m *Manager) Ensure(ctx context.Context, rebuild bool) error {
	if !rebuild {
		m.mu.RLock()
		loaded := m.idx != nil
		m.mu.RUnlock()
		if loaded {
			return nil
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !rebuild && m.idx != nil {
		return nil
	}

	m.state = StateBuilding
	m.idx = nil
	m.chunks = nil

	if rebuild {
		if err := m.store.Remove(); err != nil {
			m.state = StateUnloaded
			return err
		}
	} else {
		idx, chunks, _, err := m.store.Load()
		if err == nil {
			m.idx = idx
			m.chunks = chunks
			m.state = StateLoaded
			slog.InfoContext(ctx, "index loaded", "chunks", len(chunks), "dimension", idx.Dim())
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			m.state = StateUnloaded
			return err
		}
	}

	if err := m.build(ctx); err != nil {
		m.state = StateUnloaded
		return err
	}
	m.state = StateLoaded
	return nil
}

// build runs under the write lock.
func (m *Manager) build(ctx context.Context) error {
	start := time.Now()
	slog.InfoContext(ctx, "building index", "chunk_size", m.opts.ChunkSize, "overlap", m.opts.Overlap)

	docs, err := m.loader.Load(ctx, m.opts.UseCleaned)
	if err != nil {
		return err
	}

	chunks := corpus.Split(docs, m.opts.ChunkSize, m.opts.Overlap)
	if len(chunks) == 0 {
		return fmt.Errorf("%w: %d documents produced no chunks", corpus.ErrNoDocuments, len(docs))
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embeddings, err := m.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedding engine returned %d vectors for %d chunks", len(embeddings), len(chunks))
	}

	idx, err := vector.NewFlat(len(embeddings[0]))
	if err != nil {
		return err
	}
	if err := idx.Add(embeddings); err != nil {
		return err
	}

	if err := m.store.Persist(idx, chunks, embeddings); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}

	m.idx = idx
	m.chunks = chunks
	slog.InfoContext(ctx, "index built", "chunks", len(chunks), "dimension", idx.Dim(), "duration", time.Since(start))
	return nil
}

// Snapshot ensures the index is available and returns the current
// handles. The returned index and chunk list are never mutated in place,
// so callers may read them without further locking.
func (m *Manager) Snapshot(ctx context.Context) (*vector.Flat, []corpus.Chunk, error) {
	if err := m.Ensure(ctx, false); err != nil {
		return nil, nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.idx == nil {
		return nil, nil, ErrNotFound
	}
	return m.idx, m.chunks, nil
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Status{State: m.state}
	if m.idx != nil {
		st.Chunks = len(m.chunks)
		st.Dimension = m.idx.Dim()
	}
	return st
}
