// Package index owns the on-disk lifecycle of the vector index: the
// three co-located artifacts (search structure, chunk list, embedding
// matrix) are created, read, and replaced together.
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"policypilot/backend/internal/corpus"
	"policypilot/backend/internal/vector"
)

var (
	ErrNotFound = errors.New("index not found")
	ErrCorrupt  = errors.New("corrupt index")
)

const (
	indexFile      = "vectors.idx"
	chunksFile     = "chunks.json"
	embeddingsFile = "embeddings.bin"
)

// Store persists the index artifacts under one directory. Writes go to
// temporary files first and are renamed into place chunk list first,
// search structure last, so a crash mid-persist leaves "no index"
// (structure absent) rather than a mismatched pair.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) indexPath() string      { return filepath.Join(s.dir, indexFile) }
func (s *Store) chunksPath() string     { return filepath.Join(s.dir, chunksFile) }
func (s *Store) embeddingsPath() string { return filepath.Join(s.dir, embeddingsFile) }

// Persist writes all three artifacts as one logical unit.
func (s *Store) Persist(idx *vector.Flat, chunks []corpus.Chunk, embeddings [][]float32) error {
	if idx.Count() != len(chunks) || len(chunks) != len(embeddings) {
		return fmt.Errorf("%w: %d chunks, %d embeddings, %d indexed vectors",
			ErrCorrupt, len(chunks), len(embeddings), idx.Count())
	}

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("create index dir %s: %w", s.dir, err)
	}

	chunkData, err := json.Marshal(chunks)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(s.chunksPath(), func(f *os.File) error {
		_, werr := f.Write(chunkData)
		return werr
	}); err != nil {
		return fmt.Errorf("persist chunk list: %w", err)
	}

	if err := writeFileAtomic(s.embeddingsPath(), func(f *os.File) error {
		return vector.WriteMatrix(f, embeddings)
	}); err != nil {
		return fmt.Errorf("persist embedding matrix: %w", err)
	}

	if err := writeFileAtomic(s.indexPath(), func(f *os.File) error {
		return vector.WriteFlat(f, idx)
	}); err != nil {
		return fmt.Errorf("persist search structure: %w", err)
	}

	return nil
}

// Load reads the artifacts back. The search structure and chunk list are
// required; the embedding matrix is optional, but when present its row
// count must match the chunk count.
func (s *Store) Load() (*vector.Flat, []corpus.Chunk, [][]float32, error) {
	for _, p := range []string{s.indexPath(), s.chunksPath()} {
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				return nil, nil, nil, fmt.Errorf("%w: %s missing", ErrNotFound, p)
			}
			return nil, nil, nil, err
		}
	}

	idxF, err := os.Open(s.indexPath())
	if err != nil {
		return nil, nil, nil, err
	}
	defer idxF.Close()
	idx, err := vector.ReadFlat(idxF)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.indexPath(), err)
	}

	chunkData, err := os.ReadFile(s.chunksPath())
	if err != nil {
		return nil, nil, nil, err
	}
	var chunks []corpus.Chunk
	if err := json.Unmarshal(chunkData, &chunks); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.chunksPath(), err)
	}

	if len(chunks) != idx.Count() {
		return nil, nil, nil, fmt.Errorf("%w: %d chunks vs %d indexed vectors",
			ErrCorrupt, len(chunks), idx.Count())
	}

	var embeddings [][]float32
	if embF, err := os.Open(s.embeddingsPath()); err == nil {
		defer embF.Close()
		embeddings, err = vector.ReadMatrix(embF)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.embeddingsPath(), err)
		}
		if len(embeddings) != len(chunks) {
			return nil, nil, nil, fmt.Errorf("%w: %d embedding rows vs %d chunks",
				ErrCorrupt, len(embeddings), len(chunks))
		}
	} else if !os.IsNotExist(err) {
		return nil, nil, nil, err
	}

	return idx, chunks, embeddings, nil
}

// Remove deletes all three artifacts. The search structure goes first so
// an interrupted removal still reads as "no index".
func (s *Store) Remove() error {
	for _, p := range []string{s.indexPath(), s.chunksPath(), s.embeddingsPath()} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}

func writeFileAtomic(path string, write func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
