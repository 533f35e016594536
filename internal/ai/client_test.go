package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ipv4Server struct {
	URL string
	srv *http.Server
	ln  net.Listener
}

func newIPv4Server(t *testing.T, handler http.Handler) *ipv4Server {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	srv := &http.Server{Handler: handler}
	s := &ipv4Server{URL: "http://" + ln.Addr().String(), srv: srv, ln: ln}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(fmt.Sprintf("test server serve: %v", err))
		}
	}()
	t.Cleanup(s.Close)
	return s
}

func (s *ipv4Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

func chatOK(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"model":   "test-model",
		"choices": []any{map[string]any{"index": 0, "message": map[string]any{"role": "assistant", "content": content}, "finish_reason": "stop"}},
		"usage":   map[string]any{"prompt_tokens": 3, "completion_tokens": 1, "total_tokens": 4},
	}
}

func statusServer(t *testing.T, status int, body any) *ipv4Server {
	t.Helper()
	return newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Request-Id", "req_test_123")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
}

func testRequest() GenerateRequest {
	return GenerateRequest{
		Model:     "test-model",
		Messages:  []Message{{Role: RoleSystem, Content: "You are a data analyst."}, {Role: RoleUser, Content: "hi"}},
		MaxTokens: 10,
	}
}

func TestGenerateSendsChatRequest(t *testing.T) {
	var got struct {
		Model     string    `json:"model"`
		Messages  []Message `json:"messages"`
		MaxTokens int       `json:"max_tokens"`
	}
	var auth string
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Request-Id", "req_ok")
		_ = json.NewEncoder(w).Encode(chatOK("ok"))
	}))

	c, err := NewClient(ProviderOpenAI, RuntimeConfig{APIKey: "test", BaseURL: srv.URL, HTTPTimeout: 2 * time.Second})
	require.NoError(t, err)
	resp, err := c.Generate(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, "ok", resp.Text())
	assert.Equal(t, "req_ok", resp.RequestID)
	assert.Equal(t, 4, resp.Usage.TotalTokens)
	assert.Equal(t, "Bearer test", auth)
	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, 10, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "You are a data analyst.", got.Messages[0].Content)
}

func TestGenerateClassifiesErrors(t *testing.T) {
	errBody := func(code, msg string) map[string]any {
		return map[string]any{"error": map[string]any{"message": msg, "code": code, "type": "invalid_request_error"}}
	}
	tests := []struct {
		name   string
		status int
		body   any
		check  func(t *testing.T, err error)
	}{
		{"auth", 401, errBody("invalid_api_key", "bad key"), func(t *testing.T, err error) {
			var target *AuthError
			assert.ErrorAs(t, err, &target)
		}},
		{"rate limit", 429, errBody("rate_limit_exceeded", "slow down"), func(t *testing.T, err error) {
			var target *RateLimitError
			assert.ErrorAs(t, err, &target)
		}},
		{"quota", 429, errBody("insufficient_quota", "You exceeded your current quota"), func(t *testing.T, err error) {
			var target *QuotaExceededError
			assert.ErrorAs(t, err, &target)
		}},
		{"model not found", 404, errBody("model_not_found", "The model does not exist"), func(t *testing.T, err error) {
			var target *ModelNotFoundError
			assert.ErrorAs(t, err, &target)
		}},
		{"bad request", 400, errBody("bad_request", "bad req"), func(t *testing.T, err error) {
			var target *BadRequestError
			assert.ErrorAs(t, err, &target)
			assert.Contains(t, err.Error(), "bad req")
		}},
		{"server", 503, errBody("", "overloaded"), func(t *testing.T, err error) {
			var target *ServerError
			assert.ErrorAs(t, err, &target)
		}},
		{"empty choices", 200, map[string]any{"id": "x", "choices": []any{}}, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrEmptyResponse)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := statusServer(t, tt.status, tt.body)
			c, err := NewClient(ProviderOpenRouter, RuntimeConfig{APIKey: "test", BaseURL: srv.URL, HTTPTimeout: 2 * time.Second})
			require.NoError(t, err)
			_, err = c.Generate(context.Background(), testRequest())
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestGenerateUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test: cannot open local listener (%v)", err)
	}
	addr := "http://" + ln.Addr().String()
	_ = ln.Close()

	rt, err := NewRuntime(ProviderOllama, RuntimeConfig{Host: addr, HTTPTimeout: time.Second})
	require.NoError(t, err)
	_, err = rt.Generate(context.Background(), testRequest())
	var target *UnreachableError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, addr+"/v1", target.Host)
}

func TestNewRuntimeRegistry(t *testing.T) {
	_, err := NewRuntime(ProviderOpenAI, RuntimeConfig{})
	require.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewRuntime(ProviderOpenRouter, RuntimeConfig{APIKey: "  "})
	require.ErrorIs(t, err, ErrMissingAPIKey)

	rt, err := NewRuntime(ProviderOllama, RuntimeConfig{})
	require.NoError(t, err)
	c, ok := rt.(*Client)
	require.True(t, ok)
	assert.Equal(t, "http://127.0.0.1:11434/v1", c.baseURL)

	rt, err = NewRuntime("OpenRouter", RuntimeConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "https://openrouter.ai/api/v1", rt.(*Client).baseURL)

	_, err = NewRuntime("bogus", RuntimeConfig{APIKey: "k"})
	require.ErrorIs(t, err, ErrUnknownProvider)
	assert.Equal(t, []string{"ollama", "openai", "openrouter"}, Providers())
}

func TestGenerateRejectsEmptyModel(t *testing.T) {
	c, err := NewClient(ProviderOpenAI, RuntimeConfig{APIKey: "k"})
	require.NoError(t, err)
	req := testRequest()
	req.Model = ""
	_, err = c.Generate(context.Background(), req)
	require.Error(t, err)
}

func TestDefaultModelAndBudget(t *testing.T) {
	assert.Equal(t, "gpt-3.5-turbo", DefaultModel(ProviderOpenAI))
	assert.Equal(t, "openai/gpt-3.5-turbo", DefaultModel(ProviderOpenRouter))
	assert.Equal(t, "llama3.1:8b", DefaultModel(ProviderOllama))
	assert.Equal(t, "gpt-3.5-turbo", DefaultModel("unknown"))

	assert.Equal(t, 3000, PromptBudget("gpt-3.5-turbo", 3000, 400))
	assert.Equal(t, 16385-400, PromptBudget("gpt-3.5-turbo", 50000, 400))
	assert.Equal(t, 50000, PromptBudget("mystery", 50000, 400))

	info, ok := LookupModel("llama3.1:8b")
	require.True(t, ok)
	assert.Equal(t, 131072, info.ContextTokens)
}
