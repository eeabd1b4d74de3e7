package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dataforge/dataforge/internal/llm"
)

func TestCompleteSuccess(t *testing.T) {
	var captured chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_, _ = w.Write([]byte(`{
			"choices": [{"message":{"role":"assistant","content":"[{\"a\":1}]"},"finish_reason":"stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "", llm.DefaultGenerationParams())
	client.HTTPClient = server.Client()

	resp, err := client.Complete(context.Background(), &llm.Request{Prompt: "generate rows"})
	require.NoError(t, err)
	require.Equal(t, `[{"a":1}]`, resp.Text)
	require.Equal(t, "stop", resp.FinishReason)

	require.Equal(t, defaultModel, captured.Model)
	require.Len(t, captured.Messages, 1)
	require.Equal(t, "user", captured.Messages[0].Role)
	require.InDelta(t, 0.95, captured.TopP, 1e-9)
}

func TestCompleteProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid api key"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "bad-key", "", llm.DefaultGenerationParams())
	client.HTTPClient = server.Client()

	_, err := client.Complete(context.Background(), &llm.Request{Prompt: "generate rows"})
	var providerErr *llm.ProviderError
	require.True(t, errors.As(err, &providerErr))
	require.Equal(t, "openai", providerErr.Provider)
	require.Equal(t, http.StatusUnauthorized, providerErr.StatusCode)
}

func TestCompleteRequiresPromptAndKey(t *testing.T) {
	client := NewClient("", "key", "", llm.DefaultGenerationParams())
	_, err := client.Complete(context.Background(), &llm.Request{})
	require.ErrorContains(t, err, "prompt is required")

	client = NewClient("", "", "", llm.DefaultGenerationParams())
	_, err = client.Complete(context.Background(), &llm.Request{Prompt: "x"})
	require.ErrorContains(t, err, "api key is required")
}

func TestCompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "", llm.DefaultGenerationParams())
	client.HTTPClient = server.Client()

	_, err := client.Complete(context.Background(), &llm.Request{Prompt: "generate rows"})
	require.ErrorContains(t, err, "no choices")
}
