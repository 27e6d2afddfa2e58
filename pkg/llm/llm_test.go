package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/crewsheet/pkg/model"
)

func openaiEndpoint(url, key string) model.Endpoint {
	return model.Endpoint{Entry: model.Entry{Name: "gpt-4", Provider: model.OpenAI}, APIKey: key, URL: url}
}

func TestClient_Chat(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "hello there"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 3, "total_tokens": 13}
		}`))
	}))
	defer srv.Close()

	temp := 0.2
	c := New(openaiEndpoint(srv.URL+"/v1", "sk-test"), Options{})
	resp, err := c.Chat(context.Background(), ChatRequest{
		Messages:    []Message{{Role: RoleSystem, Content: "be nice"}, {Role: RoleUser, Content: "hi"}},
		Temperature: &temp,
		Tools:       []ToolDef{{Name: "search_tool", Description: "search", Parameters: json.RawMessage(`{"type":"object"}`)}},
	})
	require.NoError(t, err)

	assert.Equal(t, "hello there", resp.Message.Content)
	assert.Equal(t, RoleAssistant, resp.Message.Role)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 13, resp.Usage.TotalTokens)

	assert.Equal(t, "gpt-4", got["model"])
	assert.InDelta(t, 0.2, got["temperature"], 1e-9)
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[1].(map[string]any)["content"])
	tools := got["tools"].([]any)
	require.Len(t, tools, 1)
	assert.Equal(t, "search_tool", tools[0].(map[string]any)["function"].(map[string]any)["name"])
}

func TestClient_Chat_ToolCalls(t *testing.T) {
	var got wireRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": null, "tool_calls": [
			{"id": "call_1", "type": "function", "function": {"name": "search_tool", "arguments": "{\"search_query\":\"go\"}"}}
		]}, "finish_reason": "tool_calls"}]}`))
	}))
	defer srv.Close()

	c := New(openaiEndpoint(srv.URL, "k"), Options{})
	resp, err := c.Chat(context.Background(), ChatRequest{Messages: []Message{
		{Role: RoleUser, Content: "find"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "call_0", Name: "file_read_tool"}}},
		{Role: RoleTool, ToolCallID: "call_0", Content: "file body"},
	}})
	require.NoError(t, err)

	require.Len(t, resp.Message.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.Message.ToolCalls[0].ID)
	assert.Equal(t, "search_tool", resp.Message.ToolCalls[0].Name)
	assert.JSONEq(t, `{"search_query":"go"}`, string(resp.Message.ToolCalls[0].Arguments))
	assert.Empty(t, resp.Message.Content)

	require.Len(t, got.Messages, 3)
	assert.Nil(t, got.Messages[1].Content, "tool-call only message has null content")
	assert.Equal(t, "{}", got.Messages[1].ToolCalls[0].Function.Arguments)
	assert.Equal(t, "call_0", got.Messages[2].ToolCallID)
}

func TestClient_Headers(t *testing.T) {
	tests := []struct {
		name     string
		endpoint model.Endpoint
		header   string
		want     string
	}{
		{name: "openai bearer", endpoint: openaiEndpoint("", "sk"), header: "Authorization", want: "Bearer sk"},
		{name: "compatible placeholder", header: "Authorization", want: "",
			endpoint: model.Endpoint{Entry: model.Entry{Name: "llama", Provider: model.OpenAICompatible}, APIKey: model.PlaceholderKey}},
		{name: "azure api-key", header: "api-key", want: "az",
			endpoint: model.Endpoint{Entry: model.Entry{Name: "gpt", Provider: model.AzureOpenAI}, APIKey: "az", Deployment: "d"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var gotHeader string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotHeader = r.Header.Get(tc.header)
				if tc.header != "Authorization" {
					assert.Empty(t, r.Header.Get("Authorization"))
				}
				_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
			}))
			defer srv.Close()

			ep := tc.endpoint
			ep.URL = srv.URL
			_, err := New(ep, Options{}).Chat(context.Background(), ChatRequest{Messages: []Message{{Role: RoleUser, Content: "x"}}})
			require.NoError(t, err)
			assert.Equal(t, tc.want, gotHeader)
		})
	}
}

func TestClient_URL(t *testing.T) {
	azure := New(model.Endpoint{
		Entry: model.Entry{Name: "gpt-4", Provider: model.AzureOpenAI},
		URL:   "https://res.openai.azure.com", Deployment: "my deploy", APIVersion: "2024-02-01",
	}, Options{})
	assert.Equal(t, "https://res.openai.azure.com/openai/deployments/my%20deploy/chat/completions?api-version=2024-02-01",
		azure.url("chat/completions"))

	local := New(model.Endpoint{Entry: model.Entry{Name: "llama3", Provider: model.OpenAICompatible}, URL: "http://localhost:11434/v1"}, Options{})
	assert.Equal(t, "http://localhost:11434/v1/embeddings", local.url("embeddings"))
	assert.Equal(t, "llama3", local.Model())
}

func TestClient_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"a", "b"}, req.Input)
		// out of order on purpose
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1]},{"index":0,"embedding":[1,0]}]}`))
	}))
	defer srv.Close()

	c := New(openaiEndpoint(srv.URL, "k"), Options{})
	vecs, err := c.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)

	vecs, err = c.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestClient_Embed_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	_, err := New(openaiEndpoint(srv.URL, "k"), Options{}).Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0 embeddings for 1 inputs")
}

func TestClient_Chat_Errors(t *testing.T) {
	tests := []struct {
		status int
		target error
	}{
		{status: http.StatusTooManyRequests, target: ErrRateLimit},
		{status: http.StatusUnauthorized, target: ErrAuth},
		{status: http.StatusForbidden, target: ErrAuth},
		{status: http.StatusRequestEntityTooLarge, target: ErrContextOverflow},
		{status: http.StatusBadGateway, target: ErrServer},
		{status: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, `{"error":"nope"}`)
			}))
			defer srv.Close()

			_, err := New(openaiEndpoint(srv.URL, "k"), Options{}).Chat(context.Background(),
				ChatRequest{Messages: []Message{{Role: RoleUser, Content: "x"}}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), `{"error":"nope"}`)
			if tc.target == nil {
				for _, e := range []error{ErrRateLimit, ErrAuth, ErrContextOverflow, ErrServer} {
					assert.False(t, errors.Is(err, e))
				}
				return
			}
			assert.ErrorIs(t, err, tc.target)
		})
	}
}

func TestClient_Chat_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := New(openaiEndpoint(srv.URL, "k"), Options{}).Chat(context.Background(), ChatRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := New(openaiEndpoint(srv.URL, "k"), Options{Timeout: 50 * time.Millisecond}).Chat(context.Background(), ChatRequest{})
	require.Error(t, err)
}

func TestClient_RateLimiterHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	c := New(openaiEndpoint(srv.URL, "k"), Options{RequestsPerMinute: 1})
	_, err := c.Chat(context.Background(), ChatRequest{})
	require.NoError(t, err, "first request uses the burst")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Chat(ctx, ChatRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
}
