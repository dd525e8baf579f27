package engine

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LoveStory/server/internal/interfaces"
)

type fakeOpenAI struct {
	mu       sync.Mutex
	auth     []string
	requests []map[string]interface{}
	content  string
	status   int
	noChoice bool
}

func (f *fakeOpenAI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var body map[string]interface{}
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	f.requests = append(f.requests, body)

	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
		return
	}

	choices := []map[string]interface{}{{
		"index":         0,
		"message":       map[string]string{"role": "assistant", "content": f.content},
		"finish_reason": "stop",
	}}
	if f.noChoice {
		choices = []map[string]interface{}{}
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"model":   body["model"],
		"choices": choices,
		"usage":   map[string]int{"prompt_tokens": 120, "completion_tokens": 40, "total_tokens": 160},
	})
}

func newCompletionRequest() *interfaces.CompletionRequest {
	return &interfaces.CompletionRequest{
		SystemPrompt: "system",
		UserPrompt:   "user",
		Model:        "llama-3.1-8b-instant",
		Temperature:  0.8,
		MaxTokens:    1024,
		JSONMode:     true,
	}
}

func TestGroqClient_Complete(t *testing.T) {
	fake := &fakeOpenAI{content: `{"story":"ok"}`}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client := NewGroqClient(srv.URL, []string{"key-1"}, srv.Client())
	completion, err := client.Complete(t.Context(), newCompletionRequest())
	require.NoError(t, err)

	assert.Equal(t, `{"story":"ok"}`, completion.Content)
	assert.Equal(t, 120, completion.PromptTokens)
	assert.Equal(t, 40, completion.CompletionTokens)
	assert.Equal(t, "groq", client.Name())

	require.Len(t, fake.requests, 1)
	body := fake.requests[0]
	assert.Equal(t, "llama-3.1-8b-instant", body["model"])
	assert.InDelta(t, 0.8, body["temperature"], 0.001)
	assert.EqualValues(t, 1024, body["max_tokens"])
	assert.Equal(t, map[string]interface{}{"type": "json_object"}, body["response_format"])

	messages := body["messages"].([]interface{})
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])
	assert.Equal(t, "user", messages[1].(map[string]interface{})["role"])
}

func TestGroqClient_RotatesKeys(t *testing.T) {
	fake := &fakeOpenAI{content: "{}"}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client := NewGroqClient(srv.URL, []string{"key-1", "key-2"}, srv.Client())
	for i := 0; i < 3; i++ {
		_, err := client.Complete(t.Context(), newCompletionRequest())
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"Bearer key-1", "Bearer key-2", "Bearer key-1"}, fake.auth)
}

func TestGroqClient_NoJSONModeOmitsResponseFormat(t *testing.T) {
	fake := &fakeOpenAI{content: "plain"}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	req := newCompletionRequest()
	req.JSONMode = false
	_, err := NewGroqClient(srv.URL, []string{"k"}, srv.Client()).Complete(t.Context(), req)
	require.NoError(t, err)

	_, ok := fake.requests[0]["response_format"]
	assert.False(t, ok)
}

func TestGroqClient_EmptyCompletion(t *testing.T) {
	t.Run("no choices", func(t *testing.T) {
		srv := httptest.NewServer(&fakeOpenAI{noChoice: true})
		defer srv.Close()

		_, err := NewGroqClient(srv.URL, []string{"k"}, srv.Client()).Complete(t.Context(), newCompletionRequest())
		assert.True(t, errors.Is(err, interfaces.ErrEmptyCompletion))
	})

	t.Run("empty content", func(t *testing.T) {
		srv := httptest.NewServer(&fakeOpenAI{content: ""})
		defer srv.Close()

		_, err := NewGroqClient(srv.URL, []string{"k"}, srv.Client()).Complete(t.Context(), newCompletionRequest())
		assert.True(t, errors.Is(err, interfaces.ErrEmptyCompletion))
	})
}

func TestGroqClient_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(&fakeOpenAI{status: http.StatusTooManyRequests})
	defer srv.Close()

	_, err := NewGroqClient(srv.URL, []string{"k"}, srv.Client()).Complete(t.Context(), newCompletionRequest())
	require.Error(t, err)
	assert.False(t, errors.Is(err, interfaces.ErrEmptyCompletion))
	assert.Contains(t, err.Error(), "groq chat completion failed")
}
