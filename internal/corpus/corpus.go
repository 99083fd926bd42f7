// Package corpus defines the document and chunk types backing one index
// and loads source documents from disk.
package corpus

import (
	"fmt"

	"policypilot/backend/internal/text"
)

// Document is the cleaned text of one source file. Documents are
// transient: they exist only between extraction and chunking.
type Document struct {
	Source string
	Text   string
}

// Chunk is the atomic unit of retrieval and of justification in the
// final answer. ID is "<source>__<ordinal>" and is unique across the
// corpus.
type Chunk struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Text   string `json:"text"`
}

// Split chunks every document and assigns corpus-wide chunk IDs. Ordinals
// restart at 0 for each source document.
func Split(docs []Document, chunkSize, overlap int) []Chunk {
	var chunks []Chunk
	for _, doc := range docs {
		for i, c := range text.Chunk(doc.Text, chunkSize, overlap) {
			chunks = append(chunks, Chunk{
				ID:     fmt.Sprintf("%s__%d", doc.Source, i),
				Source: doc.Source,
				Text:   c,
			})
		}
	}
	return chunks
}
