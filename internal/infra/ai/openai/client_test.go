package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domai "github.com/bryanwahyu/field-report/internal/domain/ai"
)

func TestInferSendsJSONModeAndReturnsContent(t *testing.T) {
	bodies := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies <- body
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"  {\"type\":\"issue\"}  "}}]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", "", srv.URL)
	out, err := c.Infer(context.Background(), domai.Request{
		Op: "analyze", System: "sys", User: "note", Temperature: 0.2, MaxTokens: 300, JSON: true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"issue"}`, out)

	got := <-bodies
	assert.Equal(t, defaultModel, got["model"])
	assert.EqualValues(t, 300, got["max_tokens"])
	assert.Equal(t, map[string]any{"type": "json_object"}, got["response_format"])
}

func TestInferQuotaAndEmptyErrors(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusTooManyRequests)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := int(status.Load())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if code == http.StatusOK {
			_, _ = w.Write([]byte(`{"choices":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
	}))
	defer srv.Close()
	c := NewClient("k", "gpt-4o-mini", srv.URL)

	_, err := c.Infer(context.Background(), domai.Request{Op: "normalize"})
	assert.ErrorIs(t, err, domai.ErrQuotaExceeded)
	assert.True(t, domai.IsInference(err))

	status.Store(http.StatusOK)
	_, err = c.Infer(context.Background(), domai.Request{Op: "normalize"})
	assert.ErrorIs(t, err, domai.ErrEmptyResponse)
}

func TestIsReasoningModel(t *testing.T) {
	assert.True(t, isReasoningModel("o3-mini"))
	assert.True(t, isReasoningModel("gpt-5"))
	assert.False(t, isReasoningModel("gpt-4o-mini"))
}
