package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrelationID(t *testing.T) {
	t.Run("Generates An ID When Absent", func(t *testing.T) {
		handler := CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := CorrelationFromContext(r.Context())
			assert.True(t, ok)
			assert.NotEmpty(t, id)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.NotEmpty(t, rr.Header().Get("X-Correlation-ID"))
	})

	t.Run("Echoes The Client ID", func(t *testing.T) {
		handler := CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "client-id", GetCorrelationID(r.Context()))
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Correlation-ID", "client-id")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, "client-id", rr.Header().Get("X-Correlation-ID"))
	})

	t.Run("Records Handler Status", func(t *testing.T) {
		handler := CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusTeapot, rr.Code)
	})
}

func TestGetCorrelationID(t *testing.T) {
	assert.Equal(t, "unknown", GetCorrelationID(context.Background()))

	ctx := WithCorrelationID(context.Background(), "abc")
	assert.Equal(t, "abc", GetCorrelationID(ctx))

	_, ok := CorrelationFromContext(WithCorrelationID(context.Background(), ""))
	assert.False(t, ok)
}
