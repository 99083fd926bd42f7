// Package worker hosts the NSQ consumers that run index maintenance off
// the request path.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nsqio/go-nsq"

	"policypilot/backend/internal/middleware"
)

// RebuildRequest is the payload published to the index.rebuild topic.
type RebuildRequest struct {
	Reason        string `json:"reason,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

type IndexRebuilder interface {
	Ensure(ctx context.Context, rebuild bool) error
}

// RebuildConsumer rebuilds the vector index when a rebuild event
// arrives. Rebuilds are full: the manager discards the on-disk artifacts
// and re-ingests the corpus.
type RebuildConsumer struct {
	rebuilder IndexRebuilder
}

func NewRebuildConsumer(rebuilder IndexRebuilder) *RebuildConsumer {
	return &RebuildConsumer{rebuilder: rebuilder}
}

func (h *RebuildConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var payload RebuildRequest
	err := json.Unmarshal(m.Body, &payload)

	correlationID := payload.CorrelationID
	if correlationID == "" {
		correlationID = uuid.New().String()
	}

	ctx := middleware.WithCorrelationID(context.Background(), correlationID)

	if err != nil {
		slog.ErrorContext(ctx, "invalid rebuild message format, dropping", "error", err)
		return nil // don't retry poison messages
	}

	slog.InfoContext(ctx, "rebuilding index", "reason", payload.Reason)

	if err := h.rebuilder.Ensure(ctx, true); err != nil {
		slog.ErrorContext(ctx, "index rebuild failed", "error", err)
		return err // requeue: the corpus or engine may recover
	}

	slog.InfoContext(ctx, "index rebuild complete")
	return nil
}
