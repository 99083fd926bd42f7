package documents

import (
	"time"
)

// DocumentInfo describes one policy document sitting in the corpus
// directory. The filename stem doubles as the clause ID prefix once the
// document is chunked.
type DocumentInfo struct {
	Name       string    `json:"name"`
	SizeBytes  int64     `json:"size_bytes"`
	SHA256     string    `json:"sha256,omitempty"`
	ModifiedAt time.Time `json:"modified_at"`
}
