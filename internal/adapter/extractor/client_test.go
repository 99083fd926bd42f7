package extractor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Extract(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake"), 0o600))

	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/extract", r.URL.Path)

			file, header, err := r.FormFile("file")
			require.NoError(t, err)
			defer file.Close()
			assert.Equal(t, "policy.pdf", header.Filename)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"text":"Extracted policy text."}`))
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		text, err := client.Extract(context.Background(), path)
		assert.NoError(t, err)
		assert.Equal(t, "Extracted policy text.", text)
	})

	t.Run("Server Error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		_, err := client.Extract(context.Background(), path)
		assert.ErrorContains(t, err, "extractor api error: 500")
	})

	t.Run("Missing File", func(t *testing.T) {
		client := NewClient("http://localhost:0")
		_, err := client.Extract(context.Background(), filepath.Join(dir, "missing.pdf"))
		assert.Error(t, err)
	})
}
