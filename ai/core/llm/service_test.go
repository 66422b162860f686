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
)

func TestNewService(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{"nil config", nil, true},
		{"missing model", &Config{Provider: "openai"}, true},
		{"deepseek defaults", &Config{Provider: "deepseek", Model: "deepseek-chat", APIKey: "k"}, false},
		{"openai", &Config{Provider: "openai", Model: "gpt-4o-mini", APIKey: "k"}, false},
		{"ollama", &Config{Provider: "ollama", Model: "qwen2.5"}, false},
		{"unknown without base url", &Config{Provider: "acme", Model: "m"}, true},
		{"unknown with base url", &Config{Provider: "acme", Model: "m", BaseURL: "http://localhost:9999/v1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.cfg.Model, svc.Model())
		})
	}
}

func completionServer(t *testing.T, content string, seen *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 7, "completion_tokens": 3, "total_tokens": 10},
		})
	}))
}

func TestService_Chat(t *testing.T) {
	var seen map[string]any
	srv := completionServer(t, "hola", &seen)
	defer srv.Close()

	svc, err := NewService(&Config{Provider: "openai", Model: "test-model", BaseURL: srv.URL})
	require.NoError(t, err)

	content, stats, err := svc.Chat(context.Background(), []Message{SystemPrompt("sys"), UserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "hola", content)
	assert.Equal(t, 10, stats.TotalTokens)
	assert.Equal(t, "test-model", seen["model"])
	assert.Len(t, seen["messages"], 2)
	assert.Nil(t, seen["response_format"])
}

func TestService_ChatJSON(t *testing.T) {
	var seen map[string]any
	srv := completionServer(t, `{"text":"ok"}`, &seen)
	defer srv.Close()

	svc, err := NewService(&Config{Provider: "openai", Model: "test-model", BaseURL: srv.URL})
	require.NoError(t, err)

	schema := Object(map[string]*JSONSchema{"text": {Type: "string"}})
	content, _, err := svc.ChatJSON(context.Background(), []Message{UserMessage("hi")}, "reply", schema)
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"ok"}`, content)

	format, ok := seen["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_schema", format["type"])
	jsonSchema := format["json_schema"].(map[string]any)
	assert.Equal(t, "reply", jsonSchema["name"])
	assert.Equal(t, []any{"text"}, jsonSchema["schema"].(map[string]any)["required"])

	_, _, err = svc.ChatJSON(context.Background(), []Message{UserMessage("hi")}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "json_object", seen["response_format"].(map[string]any)["type"])
}

func TestService_Errors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
		}))
		defer srv.Close()

		svc, err := NewService(&Config{Provider: "openai", Model: "m", BaseURL: srv.URL})
		require.NoError(t, err)
		_, _, err = svc.Chat(context.Background(), []Message{UserMessage("hi")})
		assert.Error(t, err)
	})

	t.Run("empty choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
		}))
		defer srv.Close()

		svc, err := NewService(&Config{Provider: "openai", Model: "m", BaseURL: srv.URL})
		require.NoError(t, err)
		_, _, err = svc.Chat(context.Background(), []Message{UserMessage("hi")})
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		svc, err := NewService(&Config{Provider: "openai", Model: "m", BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
		require.NoError(t, err)
		_, _, err = svc.Chat(context.Background(), []Message{UserMessage("hi")})
		assert.Error(t, err)
	})
}

func TestConvertMessages(t *testing.T) {
	out := convertMessages([]Message{
		{Role: "system", Content: "a"},
		{Role: "assistant", Content: "b"},
		{Role: "tool", Content: "c"},
	})
	require.Len(t, out, 3)
	assert.Equal(t, "system", out[0].Role)
	assert.Equal(t, "assistant", out[1].Role)
	assert.Equal(t, "user", out[2].Role)
}
