package ask

import (
	"time"
)

// Record is one answered query persisted for audit and history.
type Record struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Decision  string    `json:"decision"`
	Amount    string    `json:"amount"`
	NumChunks int       `json:"num_chunks"`
	LatencyMs int64     `json:"latency_ms"`
	CreatedAt time.Time `json:"created_at"`
}
