package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"policypilot/backend/features/documents"
	"policypilot/backend/internal/index"
	"policypilot/backend/internal/middleware"
)

type DocumentLister interface {
	List(ctx context.Context) ([]documents.DocumentInfo, error)
}

type QueryRepo interface {
	Count(ctx context.Context) (int, error)
}

type IndexStatuser interface {
	Status() index.Status
}

type Handler struct {
	docs    DocumentLister
	queries QueryRepo
	idx     IndexStatuser
}

func NewHandler(docs DocumentLister, queries QueryRepo, idx IndexStatuser) *Handler {
	return &Handler{docs: docs, queries: queries, idx: idx}
}

type StatsResponse struct {
	Documents       int         `json:"documents"`
	Chunks          int         `json:"chunks"`
	AnsweredQueries int         `json:"answered_queries"`
	IndexState      index.State `json:"index_state"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)

	slog.InfoContext(ctx, "getting stats", "correlationId", correlationID)

	docs, err := h.docs.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list documents", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to list documents", http.StatusInternalServerError)
		return
	}

	qCount := 0
	if h.queries != nil {
		qCount, err = h.queries.Count(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "failed to count queries", "error", err, "correlationId", correlationID)
			h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count queries", http.StatusInternalServerError)
			return
		}
	}

	st := h.idx.Status()
	resp := StatsResponse{
		Documents:       len(docs),
		Chunks:          st.Chunks,
		AnsweredQueries: qCount,
		IndexState:      st.State,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": resp}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
