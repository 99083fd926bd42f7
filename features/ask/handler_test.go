package ask

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"policypilot/backend/internal/answer"
	"policypilot/backend/internal/corpus"
)

type MockAnswerService struct{ mock.Mock }

func (m *MockAnswerService) Answer(ctx context.Context, query string, params answer.Params) (*answer.Answer, error) {
	args := m.Called(ctx, query, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*answer.Answer), args.Error(1)
}

type MockRepository struct{ mock.Mock }

func (m *MockRepository) Save(ctx context.Context, rec *Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockRepository) List(ctx context.Context, limit int) ([]Record, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Record), args.Error(1)
}

func (m *MockRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func approvedAnswer() *answer.Answer {
	return &answer.Answer{
		Decision: "Approved",
		Amount:   "5000",
		Justification: []answer.Justification{
			{ClauseID: "policy__0", Text: "surgery is covered"},
		},
	}
}

func TestHandler_Ask(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := &MockAnswerService{}
		svc.On("Answer", mock.Anything, "is surgery covered?", mock.Anything).Return(approvedAnswer(), nil)

		repo := &MockRepository{}
		repo.On("Save", mock.Anything, mock.MatchedBy(func(rec *Record) bool {
			return rec.Query == "is surgery covered?" && rec.Decision == "Approved"
		})).Return(nil)

		h := NewHandler(svc, repo)
		req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"query":"is surgery covered?"}`))
		rr := httptest.NewRecorder()

		h.Ask(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp struct {
			Data answer.Answer `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "Approved", resp.Data.Decision)
		require.Len(t, resp.Data.Justification, 1)
		repo.AssertExpectations(t)
	})

	t.Run("Generation Knobs Forwarded", func(t *testing.T) {
		svc := &MockAnswerService{}
		svc.On("Answer", mock.Anything, "q", mock.MatchedBy(func(p answer.Params) bool {
			return p.TopK != nil && *p.TopK == 5 &&
				p.MaxTokens != nil && *p.MaxTokens == 512 &&
				p.Temperature != nil && *p.Temperature == 0.7
		})).Return(approvedAnswer(), nil)

		h := NewHandler(svc, nil)
		body := `{"query":"q","top_k":5,"max_tokens":512,"temperature":0.7}`
		req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))
		rr := httptest.NewRecorder()

		h.Ask(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		svc.AssertExpectations(t)
	})

	t.Run("Omitted Knobs Stay Nil", func(t *testing.T) {
		svc := &MockAnswerService{}
		svc.On("Answer", mock.Anything, "q", mock.MatchedBy(func(p answer.Params) bool {
			return p.TopK == nil && p.MaxTokens == nil && p.Temperature == nil
		})).Return(approvedAnswer(), nil)

		h := NewHandler(svc, nil)
		req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"query":"q"}`))
		rr := httptest.NewRecorder()

		h.Ask(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		svc.AssertExpectations(t)
	})

	t.Run("Answer Keys Keep Exact Casing", func(t *testing.T) {
		svc := &MockAnswerService{}
		svc.On("Answer", mock.Anything, "q", mock.Anything).Return(approvedAnswer(), nil)

		h := NewHandler(svc, nil)
		req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"query":"q"}`))
		rr := httptest.NewRecorder()

		h.Ask(rr, req)

		body := rr.Body.String()
		assert.Contains(t, body, `"Decision"`)
		assert.Contains(t, body, `"Amount"`)
		assert.Contains(t, body, `"Justification"`)
		assert.Contains(t, body, `"ClauseID"`)
	})

	t.Run("Empty Query Rejected", func(t *testing.T) {
		svc := &MockAnswerService{}
		h := NewHandler(svc, &MockRepository{})

		req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"query":""}`))
		rr := httptest.NewRecorder()

		h.Ask(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "VALIDATION_ERROR")
		svc.AssertNotCalled(t, "Answer")
	})

	t.Run("Invalid Body Rejected", func(t *testing.T) {
		h := NewHandler(&MockAnswerService{}, &MockRepository{})

		req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`not json`))
		rr := httptest.NewRecorder()

		h.Ask(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("No Documents Maps To Not Found", func(t *testing.T) {
		svc := &MockAnswerService{}
		svc.On("Answer", mock.Anything, "q", mock.Anything).Return(nil, corpus.ErrNoDocuments)

		h := NewHandler(svc, &MockRepository{})
		req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"query":"q"}`))
		rr := httptest.NewRecorder()

		h.Ask(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, rr.Body.String(), "NO_DOCUMENTS")
	})

	t.Run("Service Error Is Internal", func(t *testing.T) {
		svc := &MockAnswerService{}
		svc.On("Answer", mock.Anything, "q", mock.Anything).Return(nil, errors.New("model unavailable"))

		h := NewHandler(svc, &MockRepository{})
		req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"query":"q"}`))
		rr := httptest.NewRecorder()

		h.Ask(rr, req)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})

	t.Run("History Failure Does Not Fail Answer", func(t *testing.T) {
		svc := &MockAnswerService{}
		svc.On("Answer", mock.Anything, "q", mock.Anything).Return(approvedAnswer(), nil)

		repo := &MockRepository{}
		repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down"))

		h := NewHandler(svc, repo)
		req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"query":"q"}`))
		rr := httptest.NewRecorder()

		h.Ask(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestHandler_ListQueries(t *testing.T) {
	t.Run("Returns Records", func(t *testing.T) {
		repo := &MockRepository{}
		repo.On("List", mock.Anything, 50).Return([]Record{
			{ID: "id-1", Query: "q1", Decision: "Approved"},
		}, nil)

		h := NewHandler(&MockAnswerService{}, repo)
		req := httptest.NewRequest(http.MethodGet, "/queries", nil)
		rr := httptest.NewRecorder()

		h.ListQueries(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp struct {
			Data []Record       `json:"data"`
			Meta map[string]int `json:"meta"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		assert.Equal(t, 1, resp.Meta["count"])
	})

	t.Run("Custom Limit", func(t *testing.T) {
		repo := &MockRepository{}
		repo.On("List", mock.Anything, 5).Return([]Record{}, nil)

		h := NewHandler(&MockAnswerService{}, repo)
		req := httptest.NewRequest(http.MethodGet, "/queries?limit=5", nil)
		rr := httptest.NewRecorder()

		h.ListQueries(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		repo.AssertExpectations(t)
	})

	t.Run("Empty History Is An Empty Array", func(t *testing.T) {
		repo := &MockRepository{}
		repo.On("List", mock.Anything, 50).Return(nil, nil)

		h := NewHandler(&MockAnswerService{}, repo)
		req := httptest.NewRequest(http.MethodGet, "/queries", nil)
		rr := httptest.NewRecorder()

		h.ListQueries(rr, req)
		assert.Contains(t, rr.Body.String(), `"data":[]`)
	})

	t.Run("Repo Error Is Internal", func(t *testing.T) {
		repo := &MockRepository{}
		repo.On("List", mock.Anything, 50).Return(nil, errors.New("db down"))

		h := NewHandler(&MockAnswerService{}, repo)
		req := httptest.NewRequest(http.MethodGet, "/queries", nil)
		rr := httptest.NewRecorder()

		h.ListQueries(rr, req)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}
