package puter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrilink/agrilink/internal/classify"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recorder captures the decoded body of every request the fake endpoint sees.
type recorder struct {
	mu      sync.Mutex
	bodies  []map[string]any
	headers []http.Header
}

func (r *recorder) record(req *http.Request) map[string]any {
	var body map[string]any
	_ = json.NewDecoder(req.Body).Decode(&body)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bodies = append(r.bodies, body)
	r.headers = append(r.headers, req.Header.Clone())
	return body
}

func TestInvokerMessagesShape(t *testing.T) {
	rec := &recorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/ai/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		rec.record(r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"cropType\":\"Rice\"}"}}]}`))
	}))
	defer server.Close()

	inv := NewInvoker(server.URL, "", "gpt-4o", classify.DefaultRetryPolicy(), quietLogger())
	resp, err := inv.Send(context.Background(), classify.Prompt{Text: "Dry rice straw, 500kg"})
	require.NoError(t, err)

	assert.Equal(t, `{"cropType":"Rice"}`, classify.ExtractText(resp))
	require.Len(t, rec.bodies, 1)
	assert.Equal(t, "gpt-4o", rec.bodies[0]["model"])
	msgs := rec.bodies[0]["messages"].([]any)
	require.Len(t, msgs, 1)
	msg := msgs[0].(map[string]any)
	assert.Equal(t, "user", msg["role"])
	assert.Equal(t, "Dry rice straw, 500kg", msg["content"])
	assert.Empty(t, rec.headers[0].Get("X-API-Key"), "no key configured")
}

func TestInvokerFallsBackToSimpleShape(t *testing.T) {
	rec := &recorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := rec.record(r)
		if _, ok := body["messages"]; ok {
			http.Error(w, "messages not supported", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"output_text":"done"}`))
	}))
	defer server.Close()

	inv := NewInvoker(server.URL, "secret", "gpt-4o", classify.DefaultRetryPolicy(), quietLogger())
	resp, err := inv.Send(context.Background(), classify.Prompt{Text: "prompt text"})
	require.NoError(t, err)
	assert.Equal(t, "done", classify.ExtractText(resp))

	require.Len(t, rec.bodies, 2)
	assert.Equal(t, "prompt text", rec.bodies[1]["prompt"])
	assert.Equal(t, "gpt-4o", rec.bodies[1]["model"])
	assert.Equal(t, "secret", rec.headers[0].Get("X-API-Key"))
	assert.Equal(t, "secret", rec.headers[1].Get("X-API-Key"))
}

func TestInvokerBothShapesFail(t *testing.T) {
	rec := &recorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer server.Close()

	inv := NewInvoker(server.URL, "", "", classify.DefaultRetryPolicy(), quietLogger())
	_, err := inv.Send(context.Background(), classify.Prompt{Text: "p"})

	require.ErrorIs(t, err, classify.ErrProvider)
	var perr *classify.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusBadGateway, perr.Status)
	assert.Contains(t, perr.Body, "upstream exploded")
	assert.Len(t, rec.bodies, 2, "no third attempt")
}

func TestInvokerImagePayloads(t *testing.T) {
	rec := &recorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	img := &classify.Image{Data: []byte{0xFF, 0xD8, 0xFF}, MIME: "image/jpeg"}
	inv := NewInvoker(server.URL, "", "gpt-4o", classify.DefaultRetryPolicy(), quietLogger())
	_, err := inv.Send(context.Background(), classify.Prompt{Text: "look", Image: img})
	require.Error(t, err)
	require.Len(t, rec.bodies, 2)

	msg := rec.bodies[0]["messages"].([]any)[0].(map[string]any)
	parts := msg["content"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, "text", parts[0].(map[string]any)["type"])
	assert.Equal(t, "look", parts[0].(map[string]any)["text"])
	imagePart := parts[1].(map[string]any)
	assert.Equal(t, "image_url", imagePart["type"])
	assert.Equal(t, img.DataURI(), imagePart["image_url"].(map[string]any)["url"])

	assert.Equal(t, img.DataURI(), rec.bodies[1]["image"])
}

func TestInvokerNetworkError(t *testing.T) {
	inv := NewInvoker("http://localhost:99999", "", "", classify.DefaultRetryPolicy(), quietLogger())
	_, err := inv.Send(context.Background(), classify.Prompt{Text: "p"})

	require.ErrorIs(t, err, classify.ErrProvider)
	var perr *classify.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Zero(t, perr.Status)
}

func TestInvokerInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	inv := NewInvoker(server.URL, "", "", classify.DefaultRetryPolicy(), quietLogger())
	_, err := inv.Send(context.Background(), classify.Prompt{Text: "p"})
	require.ErrorIs(t, err, classify.ErrProvider)
}
