package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func testMessages() []*schema.Message {
	return []*schema.Message{
		schema.SystemMessage("system instruction"),
		schema.UserMessage("resume chunk"),
	}
}

func TestOpenAICompatibleChatModelGenerate(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","model":"gpt-3.5-turbo","choices":[{"index":0,"message":{"role":"assistant","content":"{\"a\":1}"},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":3,"total_tokens":13}}`))
	}))
	defer server.Close()

	m, err := NewOpenAICompatibleChatModel("sk-test", "", server.URL, WithModelLogger(zerolog.Nop()))
	require.NoError(t, err)
	assert.Equal(t, "gpt-3.5-turbo", m.ModelName())

	msg, err := m.Generate(context.Background(), testMessages(), model.WithTemperature(0.2))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, msg.Content)
	assert.Equal(t, schema.Assistant, msg.Role)
	require.NotNil(t, msg.ResponseMeta)
	assert.Equal(t, "stop", msg.ResponseMeta.FinishReason)
	assert.Equal(t, 13, msg.ResponseMeta.Usage.TotalTokens)

	assert.Equal(t, "gpt-3.5-turbo", captured["model"])
	assert.InDelta(t, 0.2, captured["temperature"], 1e-6)
	assert.Equal(t, map[string]any{"type": "json_object"}, captured["response_format"])

	msgs, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, map[string]any{"role": "system", "content": "system instruction"}, msgs[0])
	assert.Equal(t, map[string]any{"role": "user", "content": "resume chunk"}, msgs[1])
}

func TestOpenAICompatibleChatModelErrors(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		body    string
		wantAPI bool
	}{
		{name: "非2xx状态", status: http.StatusTooManyRequests, body: `{"error":{"message":"rate limited","type":"rate_limit_error","param":null,"code":"rate_limit_exceeded"}}`, wantAPI: true},
		{name: "服务端错误", status: http.StatusInternalServerError, body: `{"error":{"message":"boom","type":"server_error","param":null,"code":null}}`, wantAPI: true},
		{name: "空choices", status: http.StatusOK, body: `{"choices":[]}`},
		{name: "响应不是JSON", status: http.StatusOK, body: `<html>`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			m, err := NewOpenAICompatibleChatModel("sk-test", "gpt-4o-mini", server.URL, WithModelLogger(zerolog.Nop()))
			require.NoError(t, err)

			_, err = m.Generate(context.Background(), testMessages())
			require.Error(t, err)

			var apiErr *APIError
			assert.Equal(t, tc.wantAPI, errors.As(err, &apiErr))
			if tc.wantAPI {
				assert.Equal(t, tc.status, apiErr.StatusCode)
			}
			// 客户端内部不重试
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestOpenAICompatibleChatModelWithoutJSONMode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.NotContains(t, string(body), "response_format")
		assert.NotContains(t, string(body), "temperature")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer server.Close()

	m, err := NewOpenAICompatibleChatModel("sk-test", "m", server.URL, WithJSONMode(false), WithModelLogger(zerolog.Nop()))
	require.NoError(t, err)

	stream, err := m.Stream(context.Background(), testMessages())
	require.NoError(t, err)
	defer stream.Close()
	msg, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "ok", msg.Content)
}

func TestOpenAICompatibleChatModelLegacyURL(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"{}"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	m, err := NewOpenAICompatibleChatModel("sk-test", "m", server.URL+"/v1/chat/completions", WithModelLogger(zerolog.Nop()))
	require.NoError(t, err)

	_, err = m.Generate(context.Background(), testMessages())
	require.NoError(t, err)
	assert.Equal(t, "/v1/chat/completions", path)
}

func TestBaseURLOf(t *testing.T) {
	assert.Equal(t, "https://api.openai.com/v1", baseURLOf(""))
	assert.Equal(t, "http://llm.local/v1", baseURLOf("http://llm.local/v1/"))
	assert.Equal(t, "http://llm.local/v1", baseURLOf("http://llm.local/v1/chat/completions"))
}

func TestNewChatModelsRequireKey(t *testing.T) {
	_, err := NewOpenAICompatibleChatModel("  ", "", "")
	assert.Error(t, err)

	_, err = NewGeminiChatModel(context.Background(), "", "")
	assert.Error(t, err)
}

func TestToGeminiContents(t *testing.T) {
	system, contents := toGeminiContents([]*schema.Message{
		schema.SystemMessage("be strict"),
		schema.UserMessage("chunk one"),
		schema.AssistantMessage("{}", nil),
	})

	require.NotNil(t, system)
	require.Len(t, system.Parts, 1)
	assert.Equal(t, "be strict", system.Parts[0].Text)

	require.Len(t, contents, 2)
	assert.Equal(t, genai.RoleUser, contents[0].Role)
	assert.Equal(t, "chunk one", contents[0].Parts[0].Text)
	assert.Equal(t, genai.RoleModel, contents[1].Role)

	system, contents = toGeminiContents([]*schema.Message{schema.UserMessage("only user")})
	assert.Nil(t, system)
	assert.Len(t, contents, 1)
}

func TestGeminiChatModelGenerate(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-2.5-flash:generateContent"), r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"resume_score\":80}"}]},"finishReason":"STOP"}]}`))
	}))
	defer server.Close()

	m, err := NewGeminiChatModel(context.Background(), "g-key", "", WithGeminiBaseURL(server.URL))
	require.NoError(t, err)

	msg, err := m.Generate(context.Background(), testMessages(), model.WithTemperature(0.2))
	require.NoError(t, err)
	assert.Equal(t, `{"resume_score":80}`, msg.Content)

	cfg, ok := captured["generationConfig"].(map[string]any)
	require.True(t, ok, "请求应包含generationConfig")
	assert.Equal(t, "application/json", cfg["responseMimeType"])
	assert.InDelta(t, 0.2, cfg["temperature"], 1e-6)
	assert.Contains(t, captured, "systemInstruction")
}

func TestMockChatClientSequential(t *testing.T) {
	mock := NewMockChatClientSequential([]MockResponse{
		{Content: "first"},
		{Error: errors.New("boom")},
	})

	msg, err := mock.Generate(context.Background(), testMessages(), model.WithTemperature(0.2))
	require.NoError(t, err)
	assert.Equal(t, "first", msg.Content)

	_, err = mock.Generate(context.Background(), testMessages())
	assert.EqualError(t, err, "boom")

	_, err = mock.Generate(context.Background(), testMessages())
	assert.ErrorIs(t, err, ErrMockExhausted)

	assert.Equal(t, 3, mock.CallCount())
	assert.Len(t, mock.GetReceivedMessages(), 6)
	require.NotNil(t, mock.ReceivedTemperatures[0])
	assert.InDelta(t, 0.2, *mock.ReceivedTemperatures[0], 1e-6)
	assert.Nil(t, mock.ReceivedTemperatures[1])
}
