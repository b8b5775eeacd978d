package claude

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrilink/agrilink/internal/classify"
)

func messageResponse(text string) map[string]any {
	return map[string]any{
		"id":          "msg_01",
		"type":        "message",
		"role":        "assistant",
		"model":       DefaultModel,
		"stop_reason": "end_turn",
		"content": []map[string]any{
			{"type": "text", "text": text},
		},
		"usage": map[string]any{"input_tokens": 10, "output_tokens": 20},
	}
}

func TestSend(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sk-test", r.Header.Get("x-api-key"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(messageResponse(`{"cropType":"Rice","wasteType":"straw"}`))
	}))
	defer server.Close()

	s := New("sk-test", "", anthropic.WithBaseURL(server.URL))
	img := &classify.Image{Data: []byte{0xFF, 0xD8, 0xFF}, MIME: "image/jpeg"}
	resp, err := s.Send(context.Background(), classify.Prompt{Text: "classify", Image: img})
	require.NoError(t, err)
	assert.Equal(t, `{"cropType":"Rice","wasteType":"straw"}`, resp)
	assert.Equal(t, `{"cropType":"Rice","wasteType":"straw"}`, classify.ExtractText(resp))

	assert.Equal(t, DefaultModel, got["model"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 1)
	content := msgs[0].(map[string]any)["content"].([]any)
	require.Len(t, content, 2)
	assert.Equal(t, "image", content[0].(map[string]any)["type"])
	assert.Equal(t, "text", content[1].(map[string]any)["type"])
	assert.Equal(t, "classify", content[1].(map[string]any)["text"])
}

func TestSendAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()

	s := New("sk-test", "", anthropic.WithBaseURL(server.URL))
	_, err := s.Send(context.Background(), classify.Prompt{Text: "classify"})
	require.ErrorIs(t, err, classify.ErrProvider)
}

func TestNormaliseMIME(t *testing.T) {
	assert.Equal(t, "image/png", normaliseMIME("image/png"))
	assert.Equal(t, "image/webp", normaliseMIME("image/webp"))
	assert.Equal(t, "image/jpeg", normaliseMIME("image/bmp"))
}
