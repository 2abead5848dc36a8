package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEmbedServer returns a test server answering /v1/embeddings with
// deterministic vectors of the given dimension.
func newEmbedServer(t *testing.T, dimension int, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		require.Equal(t, "/v1/embeddings", r.URL.Path)

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var resp embedResponse
		for i, text := range req.Input {
			vec := make([]float32, dimension)
			for j := range vec {
				vec[j] = float32(len(text)+i) / float32(j+1)
			}
			resp.Data = append(resp.Data, struct {
				Index     int       `json:"index"`
				Embedding []float32 `json:"embedding"`
			}{Index: i, Embedding: vec})
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestNewService(t *testing.T) {
	t.Run("requires base URL", func(t *testing.T) {
		_, err := NewService(Config{}, nil)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("applies defaults", func(t *testing.T) {
		svc, err := NewService(Config{BaseURL: "http://localhost:8080"}, nil)
		require.NoError(t, err)
		assert.Equal(t, 1536, svc.Dimension())
	})
}

func TestService_EmbedQuery(t *testing.T) {
	srv := newEmbedServer(t, 8, nil)
	defer srv.Close()

	svc, err := NewService(Config{BaseURL: srv.URL, Dimension: 8}, nil)
	require.NoError(t, err)

	t.Run("returns one vector", func(t *testing.T) {
		vec, err := svc.EmbedQuery(context.Background(), "o que é vertex ai")
		require.NoError(t, err)
		assert.Len(t, vec, 8)
	})

	t.Run("rejects empty text", func(t *testing.T) {
		_, err := svc.EmbedQuery(context.Background(), "")
		assert.ErrorIs(t, err, ErrEmptyInput)
	})
}

func TestService_EmbedDocuments(t *testing.T) {
	t.Run("one vector per text in order", func(t *testing.T) {
		srv := newEmbedServer(t, 4, nil)
		defer srv.Close()

		svc, err := NewService(Config{BaseURL: srv.URL, Dimension: 4}, nil)
		require.NoError(t, err)

		vectors, err := svc.EmbedDocuments(context.Background(), []string{"um", "dois", "tres"})
		require.NoError(t, err)
		require.Len(t, vectors, 3)
		for _, v := range vectors {
			assert.Len(t, v, 4)
		}
	})

	t.Run("splits into batches", func(t *testing.T) {
		var calls atomic.Int64
		srv := newEmbedServer(t, 4, &calls)
		defer srv.Close()

		svc, err := NewService(Config{BaseURL: srv.URL, Dimension: 4, BatchSize: 2}, nil)
		require.NoError(t, err)

		texts := []string{"a", "b", "c", "d", "e"}
		vectors, err := svc.EmbedDocuments(context.Background(), texts)
		require.NoError(t, err)
		assert.Len(t, vectors, 5)
		assert.Equal(t, int64(3), calls.Load())
	})

	t.Run("rejects empty input", func(t *testing.T) {
		svc, err := NewService(Config{BaseURL: "http://localhost:1"}, nil)
		require.NoError(t, err)
		_, err = svc.EmbedDocuments(context.Background(), nil)
		assert.ErrorIs(t, err, ErrEmptyInput)
	})

	t.Run("provider error propagates", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		svc, err := NewService(Config{BaseURL: srv.URL, Dimension: 4}, nil)
		require.NoError(t, err)

		_, err = svc.EmbedDocuments(context.Background(), []string{"x"})
		assert.ErrorIs(t, err, ErrProvider)
	})

	t.Run("dimension mismatch is a provider error", func(t *testing.T) {
		srv := newEmbedServer(t, 4, nil)
		defer srv.Close()

		svc, err := NewService(Config{BaseURL: srv.URL, Dimension: 16}, nil)
		require.NoError(t, err)

		_, err = svc.EmbedDocuments(context.Background(), []string{"x"})
		assert.ErrorIs(t, err, ErrProvider)
	})
}
