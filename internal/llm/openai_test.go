package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datamorph/datamorph/internal/config"
)

func newTestClient(baseURL string) *OpenAIClient {
	return NewOpenAIClient(config.LLMConfig{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "gpt-4o",
		Timeout: 5 * time.Second,
	})
}

func TestOpenAIClient_Complete(t *testing.T) {
	t.Run("sends model, messages and auth header", func(t *testing.T) {
		var gotPath, gotAuth string
		var gotBody map[string]any

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

			json.NewEncoder(w).Encode(map[string]any{
				"id":      "chatcmpl-abc",
				"created": 1700000000,
				"model":   "gpt-4o",
				"choices": []map[string]any{
					{"index": 0, "message": map[string]any{"role": "assistant", "content": `{"ok":true}`}},
				},
				"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
			})
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		completion, err := client.Complete(context.Background(), []Message{
			{Role: "user", Content: "hello"},
		})
		require.NoError(t, err)

		assert.Equal(t, "/chat/completions", gotPath)
		assert.Equal(t, "Bearer test-key", gotAuth)
		assert.Equal(t, "gpt-4o", gotBody["model"])
		messages, ok := gotBody["messages"].([]any)
		require.True(t, ok)
		require.Len(t, messages, 1)

		assert.Equal(t, "chatcmpl-abc", completion.ID)
		assert.Equal(t, `{"ok":true}`, completion.Content())
		assert.Equal(t, 15, completion.Usage.TotalTokens)
	})

	t.Run("fails without an api key", func(t *testing.T) {
		client := NewOpenAIClient(config.LLMConfig{BaseURL: "http://unused", Model: "gpt-4o"})
		_, err := client.Complete(context.Background(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "API key")
	})

	t.Run("surfaces non-200 responses", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"rate limited"}}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate limited")
	})

	t.Run("fails on a malformed envelope", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
		require.Error(t, err)
	})
}

func TestCompletion_Content(t *testing.T) {
	empty := &Completion{}
	assert.Equal(t, "", empty.Content())

	withChoice := &Completion{Choices: []Choice{{Message: Message{Role: "assistant", Content: "text"}}}}
	assert.Equal(t, "text", withChoice.Content())
}
