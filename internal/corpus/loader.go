package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"policypilot/backend/internal/text"
)

var ErrNoDocuments = errors.New("no source documents found")

// Extractor is the external text-extraction service, called once per
// source document.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Loader reads the corpus from disk. Pre-cleaned .txt files under
// cleanedDir take precedence when useCleaned is set; otherwise every
// .pdf under dataDir is sent through the extractor and every .txt under
// dataDir is read directly, both cleaned before chunking.
type Loader struct {
	dataDir    string
	cleanedDir string
	extractor  Extractor
}

func NewLoader(dataDir, cleanedDir string, extractor Extractor) *Loader {
	return &Loader{dataDir: dataDir, cleanedDir: cleanedDir, extractor: extractor}
}

func (l *Loader) Load(ctx context.Context, useCleaned bool) ([]Document, error) {
	if useCleaned {
		docs, err := l.loadCleaned()
		if err != nil {
			return nil, err
		}
		if len(docs) > 0 {
			return docs, nil
		}
	}
	return l.loadExtracted(ctx)
}

func (l *Loader) loadCleaned() ([]Document, error) {
	paths, err := sortedGlob(l.cleanedDir, ".txt")
	if err != nil {
		return nil, err
	}

	var docs []Document
	for _, p := range paths {
		data, err := os.ReadFile(p) // #nosec G304 -- paths come from the configured corpus directory
		if err != nil {
			return nil, fmt.Errorf("read cleaned document %s: %w", p, err)
		}
		docs = append(docs, Document{Source: stem(p), Text: string(data)})
	}
	return docs, nil
}

func (l *Loader) loadExtracted(ctx context.Context) ([]Document, error) {
	pdfs, err := sortedGlob(l.dataDir, ".pdf")
	if err != nil {
		return nil, err
	}
	txts, err := sortedGlob(l.dataDir, ".txt")
	if err != nil {
		return nil, err
	}
	if len(pdfs)+len(txts) == 0 {
		return nil, fmt.Errorf("%w: no .pdf or .txt files in %s", ErrNoDocuments, l.dataDir)
	}

	var docs []Document
	for _, p := range pdfs {
		slog.InfoContext(ctx, "extracting document", "path", p)
		raw, err := l.extractor.Extract(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", p, err)
		}
		docs = append(docs, Document{Source: stem(p), Text: text.Clean(raw)})
	}
	for _, p := range txts {
		data, err := os.ReadFile(p) // #nosec G304 -- paths come from the configured corpus directory
		if err != nil {
			return nil, fmt.Errorf("read document %s: %w", p, err)
		}
		docs = append(docs, Document{Source: stem(p), Text: text.Clean(string(data))})
	}
	return docs, nil
}

func sortedGlob(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ext) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
