package chatgpt

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreateChatCompletion(t *testing.T) {
	var got ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"IT"},"finish_reason":"stop"}],"usage":{"prompt_tokens":20,"completion_tokens":1,"total_tokens":21}}`))
	}))
	defer srv.Close()

	client, err := NewClient("sk-test", srv.URL+"/v1/", time.Second)
	require.NoError(t, err)

	resp, err := client.CreateChatCompletion(context.Background(), ChatCompletionRequest{
		Model:          "gpt-4o",
		Messages:       []Message{{Role: "user", Content: "hello"}},
		MaxTokens:      5,
		ResponseFormat: JSONObject,
	})
	require.NoError(t, err)
	require.Equal(t, "IT", resp.Content())
	require.Equal(t, 21, resp.Usage.TotalTokens)
	require.Equal(t, 5, got.MaxTokens)
	require.Equal(t, "json_object", got.ResponseFormat.Type)
}

func TestCreateEmbedding_OrdersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embeddings", r.URL.Path)
		var req EmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, []string{"first", "second"}, req.Input)
		require.Equal(t, 3, req.Dimensions)
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1,0]},{"index":0,"embedding":[1,0,0]}],"usage":{"prompt_tokens":4,"total_tokens":4}}`))
	}))
	defer srv.Close()

	client, err := NewClient("sk-test", srv.URL, time.Second)
	require.NoError(t, err)

	resp, err := client.CreateEmbedding(context.Background(), EmbeddingRequest{Model: "text-embedding-3-small", Input: []string{"first", "second"}, Dimensions: 3})
	require.NoError(t, err)
	require.Len(t, resp.Data, 2)
	require.Equal(t, []float32{1, 0, 0}, resp.Data[0].Embedding)
	require.Equal(t, []float32{0, 1, 0}, resp.Data[1].Embedding)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	client, err := NewClient("sk-test", srv.URL, time.Second)
	require.NoError(t, err)

	_, err = client.CreateChatCompletion(context.Background(), ChatCompletionRequest{Model: "gpt-4o"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	require.Contains(t, apiErr.Body, "rate limited")
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient("  ", "", 0)
	require.Error(t, err)
}
