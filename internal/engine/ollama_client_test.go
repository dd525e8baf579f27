package engine

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LoveStory/server/internal/interfaces"
)

func newOllamaServer(t *testing.T, content string, captured *map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if captured != nil {
			*captured = body
		}

		w.Header().Set("Content-Type", "application/x-ndjson")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"model":             body["model"],
			"message":           map[string]string{"role": "assistant", "content": content},
			"done":              true,
			"prompt_eval_count": 30,
			"eval_count":        12,
		})
	}))
}

func TestOllamaClient_Complete(t *testing.T) {
	var body map[string]interface{}
	srv := newOllamaServer(t, `{"story":"ok"}`, &body)
	defer srv.Close()

	client, err := NewOllamaClient(srv.URL, srv.Client())
	require.NoError(t, err)

	completion, err := client.Complete(t.Context(), newCompletionRequest())
	require.NoError(t, err)

	assert.Equal(t, `{"story":"ok"}`, completion.Content)
	assert.Equal(t, 30, completion.PromptTokens)
	assert.Equal(t, 12, completion.CompletionTokens)
	assert.Equal(t, "ollama", client.Name())

	assert.Equal(t, "json", body["format"])
	assert.Equal(t, false, body["stream"])
	options := body["options"].(map[string]interface{})
	assert.InDelta(t, 0.8, options["temperature"], 0.001)
	assert.EqualValues(t, 1024, options["num_predict"])
}

func TestOllamaClient_EmptyCompletion(t *testing.T) {
	srv := newOllamaServer(t, "  ", nil)
	defer srv.Close()

	client, err := NewOllamaClient(srv.URL, srv.Client())
	require.NoError(t, err)

	_, err = client.Complete(t.Context(), newCompletionRequest())
	assert.True(t, errors.Is(err, interfaces.ErrEmptyCompletion))
}
