package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{BaseURL: "http://localhost:1"}
	cfg.ApplyDefaults()
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.NotZero(t, cfg.Timeout)
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestComplete(t *testing.T) {
	var gotReq chatRequest
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		resp := chatResponse{}
		resp.Choices = append(resp.Choices, struct {
			Message chatMessage `json:"message"`
		}{Message: chatMessage{Role: "assistant", Content: "Vertex AI is a managed ML platform."}})
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, Model: "test-model", APIKey: "key-123"}, nil)
	require.NoError(t, err)

	answer, err := client.Complete(context.Background(), "system instructions", "user question", 0.2, 512)
	require.NoError(t, err)
	assert.Equal(t, "Vertex AI is a managed ML platform.", answer)

	assert.Equal(t, "Bearer key-123", gotAuth)
	assert.Equal(t, "test-model", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "system instructions", gotReq.Messages[0].Content)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
	assert.Equal(t, "user question", gotReq.Messages[1].Content)
	assert.InDelta(t, 0.2, gotReq.Temperature, 1e-9)
	assert.Equal(t, 512, gotReq.MaxTokens)
}

func TestCompleteProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "s", "u", 0, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProvider)
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(chatResponse{}))
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "s", "u", 0, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProvider)
}
