package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/v2/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrilink/agrilink/internal/classify"
)

func completion(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   DefaultModel,
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	}
}

func TestSend(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion(`Result: {"cropType":"Sugarcane","wasteType":"bagasse"}`))
	}))
	defer server.Close()

	s := New("sk-test", "", server.URL+"/", option.WithMaxRetries(0))
	img := &classify.Image{Data: []byte{0x89, 'P', 'N', 'G'}, MIME: "image/png"}
	resp, err := s.Send(context.Background(), classify.Prompt{Text: "classify", Image: img})
	require.NoError(t, err)
	assert.Equal(t, `{"cropType":"Sugarcane","wasteType":"bagasse"}`, classify.ExtractJSON(classify.ExtractText(resp)))

	assert.Equal(t, DefaultModel, got["model"])
	msg := got["messages"].([]any)[0].(map[string]any)
	assert.Equal(t, "user", msg["role"])
	parts := msg["content"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, "text", parts[0].(map[string]any)["type"])
	assert.Equal(t, "image_url", parts[1].(map[string]any)["type"])
}

func TestSendAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	s := New("sk-bad", "", server.URL+"/", option.WithMaxRetries(0))
	_, err := s.Send(context.Background(), classify.Prompt{Text: "classify"})

	var perr *classify.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusUnauthorized, perr.Status)
}
