package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"orgmind/internal/domain"

	"orgmind/internal/infra/config"
)

func newOpenAITestProvider(url string) *OpenAIProvider {
	return NewOpenAIProvider(config.ProviderConfig{
		Name:    "openai",
		BaseURL: url,
		APIKey:  "test-key",
		Model:   "gpt-4o",
	}, newTestLogger())
}

func TestOpenAIChatWireFormat(t *testing.T) {
	var got openaiRequest
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(openaiResponse{
			ID:    "chatcmpl-1",
			Model: "gpt-4o",
			Choices: []openaiChoice{{
				Message:      openaiMessage{Role: "assistant", Content: "Sounds good."},
				FinishReason: "stop",
			}},
			Usage:   openaiUsage{PromptTokens: 20, CompletionTokens: 5, TotalTokens: 25},
			Created: 1700000000,
		})
	}))
	defer srv.Close()

	p := newOpenAITestProvider(srv.URL)
	resp, err := p.Chat(context.Background(), domain.ChatRequest{
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: "You are an advisor."},
			{Role: domain.RoleUser, Content: "Thoughts?"},
		},
		Temperature: 0.3,
		MaxTokens:   256,
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}

	// System stays an ordinary message here, unlike Anthropic.
	if len(got.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(got.Messages))
	}
	if got.Messages[0].Role != "system" || got.Messages[0].Content != "You are an advisor." {
		t.Errorf("system message = %+v", got.Messages[0])
	}
	if got.Temperature == nil || *got.Temperature != 0.3 {
		t.Errorf("temperature = %v", got.Temperature)
	}
	if got.MaxTokens != 256 {
		t.Errorf("max_tokens = %d", got.MaxTokens)
	}

	if resp.Message.Content != "Sounds good." {
		t.Errorf("content = %q", resp.Message.Content)
	}
	if resp.Usage.TotalTokens != 25 {
		t.Errorf("usage = %+v", resp.Usage)
	}
}

func TestOpenAIChatZeroTemperatureOmitted(t *testing.T) {
	var got openaiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(openaiResponse{ID: "chatcmpl-1"})
	}))
	defer srv.Close()

	p := newOpenAITestProvider(srv.URL)
	if _, err := p.Chat(context.Background(), domain.ChatRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	}); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got.Temperature != nil {
		t.Errorf("temperature = %v, want omitted", *got.Temperature)
	}
}

func TestOpenAIChatToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openaiRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Tools) != 1 || req.Tools[0].Type != "function" || req.Tools[0].Function.Name != "create_task" {
			t.Errorf("tools = %+v", req.Tools)
		}
		json.NewEncoder(w).Encode(openaiResponse{
			ID: "chatcmpl-2",
			Choices: []openaiChoice{{
				Message: openaiMessage{
					Role: "assistant",
					ToolCalls: []openaiToolCall{{
						ID:   "call_abc",
						Type: "function",
						Function: openaiToolCallFunction{
							Name:      "create_task",
							Arguments: `{"title":"Ship v2"}`,
						},
					}},
				},
				FinishReason: "tool_calls",
			}},
		})
	}))
	defer srv.Close()

	p := newOpenAITestProvider(srv.URL)
	resp, err := p.Chat(context.Background(), domain.ChatRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "Make a task."}},
		Tools: []domain.ToolSchema{{
			Name:        "create_task",
			Description: "Create a task",
			InputSchema: json.RawMessage(`{"type":"object"}`),
		}},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if len(resp.Message.ToolCalls) != 1 {
		t.Fatalf("tool calls = %d, want 1", len(resp.Message.ToolCalls))
	}
	tc := resp.Message.ToolCalls[0]
	if tc.ID != "call_abc" || tc.Name != "create_task" || string(tc.Input) != `{"title":"Ship v2"}` {
		t.Errorf("tool call = %+v", tc)
	}
}

func TestOpenAIChatAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := newOpenAITestProvider(srv.URL)
	_, err := p.Chat(context.Background(), domain.ChatRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	})
	if !errors.Is(err, domain.ErrAuthInvalid) {
		t.Fatalf("error = %v, want ErrAuthInvalid", err)
	}
}
