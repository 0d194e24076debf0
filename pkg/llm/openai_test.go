package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

const chatCompletionBody = `{
  "id": "chatcmpl-123",
  "object": "chat.completion",
  "created": 1760000000,
  "model": "gpt-4o-mini",
  "choices": [
    {
      "index": 0,
      "message": {"role": "assistant", "content": "The Electric Surge", "refusal": null},
      "finish_reason": "stop",
      "logprobs": null
    }
  ],
  "usage": {"prompt_tokens": 40, "completion_tokens": 5, "total_tokens": 45}
}`

func TestOpenAIComplete(t *testing.T) {
	var got map[string]interface{}
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatCompletionBody))
	}))
	defer srv.Close()

	client := NewOpenAIClient("sk-test", "", srv.URL+"/", 5*time.Second)

	out, err := client.Complete(context.Background(), "Write a headline", Params{
		MaxTokens:   50,
		Temperature: 0.5,
		Stop:        []string{"\n"},
	})

	assert.Equal(t, nil, err)
	assert.Equal(t, "The Electric Surge", out.Text)
	assert.Equal(t, "stop", out.FinishReason)
	assert.Equal(t, int64(5), out.CompletionTokens)
	assert.Equal(t, DefaultModel, client.Model())

	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.Equal(t, float64(50), got["max_tokens"])
	assert.Equal(t, 0.5, got["temperature"])
	assert.Equal(t, []interface{}{"\n"}, got["stop"])
	_, hasPenalty := got["presence_penalty"]
	assert.Equal(t, false, hasPenalty)

	messages := got["messages"].([]interface{})
	assert.Equal(t, 1, len(messages))
	msg := messages[0].(map[string]interface{})
	assert.Equal(t, "user", msg["role"])
	assert.Equal(t, "Write a headline", msg["content"])
}

func TestOpenAIComplete_NoRetryOnServerError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"The server had an error","type":"server_error"}}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient("sk-test", "gpt-4o", srv.URL+"/", 5*time.Second)

	out, err := client.Complete(context.Background(), "prompt", Params{MaxTokens: 10})

	assert.Equal(t, (*Completion)(nil), out)
	assert.NotEqual(t, nil, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "gpt-4o", client.Model())
}

func TestOpenAIComplete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[]}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient("sk-test", "", srv.URL+"/", 5*time.Second)

	_, err := client.Complete(context.Background(), "prompt", Params{})

	assert.Equal(t, "no response from openai", err.Error())
}
