package ask

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"policypilot/backend/internal/answer"
	"policypilot/backend/internal/corpus"
	"policypilot/backend/internal/middleware"
)

const defaultHistoryLimit = 50

type AnswerService interface {
	Answer(ctx context.Context, query string, params answer.Params) (*answer.Answer, error)
}

type Handler struct {
	service AnswerService
	repo    Repository
}

func NewHandler(service AnswerService, repo Repository) *Handler {
	return &Handler{service: service, repo: repo}
}

type askRequest struct {
	Query       string   `json:"query"`
	TopK        *int     `json:"top_k,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"`
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, "VALIDATION_ERROR", "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		h.writeError(ctx, w, "VALIDATION_ERROR", "query is required", http.StatusBadRequest)
		return
	}

	slog.InfoContext(ctx, "answering query", "correlationId", correlationID)

	started := time.Now()
	ans, err := h.service.Answer(ctx, req.Query, answer.Params{
		TopK:        req.TopK,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to answer query", "error", err, "correlationId", correlationID)
		if errors.Is(err, corpus.ErrNoDocuments) {
			h.writeError(ctx, w, "NO_DOCUMENTS", "no policy documents have been ingested", http.StatusNotFound)
			return
		}
		h.writeError(ctx, w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	// History is best effort: a failed insert must not fail the answer.
	if h.repo != nil {
		rec := &Record{
			Query:     req.Query,
			Decision:  ans.Decision,
			Amount:    ans.Amount,
			NumChunks: len(ans.Justification),
			LatencyMs: time.Since(started).Milliseconds(),
		}
		if err := h.repo.Save(ctx, rec); err != nil {
			slog.WarnContext(ctx, "failed to save query history", "error", err, "correlationId", correlationID)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": ans}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) ListQueries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	recs, err := h.repo.List(ctx, limit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list query history", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	if recs == nil {
		recs = []Record{}
	}

	w.Header().Set("Content-Type", "application/json")
	resp := map[string]interface{}{
		"data": recs,
		"meta": map[string]int{"count": len(recs)},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
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
