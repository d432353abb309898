package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"orgmind/internal/domain"
	"orgmind/internal/infra/config"
	"orgmind/internal/infra/tracer"
)

// maxToolRounds bounds tool execution to a single round per user turn: the
// follow-up call after tool results is always the final one, even if the
// model asks for more tools.
const maxToolRounds = 1

// toolLoopBackoffBase is the rate-limit backoff base for tool-loop calls,
// which carry the full tool schema registry and are heavier than plain chat.
const toolLoopBackoffBase = 15 * time.Second

// ChatResult is one completed chat turn.
type ChatResult struct {
	Text       string
	ToolCalls  []domain.ToolCall
	TokensUsed int
}

// ChatService drives one user-facing chat turn with tool calling.
type ChatService struct {
	gateway  domain.Gateway
	executor domain.ToolExecutor
	defaults config.ChatConfig
	logger   *slog.Logger
}

// NewChatService creates a chat service. executor may be nil, in which case
// turns run without tools.
func NewChatService(gateway domain.Gateway, executor domain.ToolExecutor, defaults config.ChatConfig, logger *slog.Logger) *ChatService {
	return &ChatService{
		gateway:  gateway,
		executor: executor,
		defaults: defaults,
		logger:   logger,
	}
}

// chatProfile builds the synthetic profile for the default chat persona.
func (s *ChatService) chatProfile(orgID string) domain.AgentProfile {
	return domain.AgentProfile{
		ID:          "chat:" + orgID,
		OrgID:       orgID,
		Name:        "Assistant",
		Provider:    domain.Provider(s.defaults.Provider),
		Model:       s.defaults.Model,
		Temperature: s.defaults.Temperature,
		MaxTokens:   s.defaults.MaxTokens,
	}
}

// Chat runs one turn: send history plus the new message with the full tool
// schema registry; if the model requests tools, execute them all, feed the
// results back as one synthetic turn, and make exactly one follow-up call.
func (s *ChatService) Chat(ctx context.Context, orgID, message string, history []domain.Message) (*ChatResult, error) {
	ctx, span := tracer.StartSpan(ctx, "chat.turn",
		trace.WithAttributes(tracer.StringAttr("org.id", orgID)),
	)
	defer span.End()

	profile := s.chatProfile(orgID)

	messages := make([]domain.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, domain.Message{Role: domain.RoleUser, Content: message, Timestamp: time.Now()})

	opts := domain.SendOptions{BackoffBase: toolLoopBackoffBase}
	if s.executor != nil {
		opts.Tools = s.executor.Schemas()
	}

	resp, err := s.gateway.Send(ctx, profile, s.defaults.SystemPrompt, messages, opts)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}

	result := &ChatResult{
		Text:       resp.Message.Content,
		TokensUsed: resp.Usage.TotalTokens,
	}

	for round := 0; round < maxToolRounds && len(resp.Message.ToolCalls) > 0; round++ {
		calls := resp.Message.ToolCalls
		result.ToolCalls = append(result.ToolCalls, calls...)
		span.AddEvent("tool_round", trace.WithAttributes(tracer.IntAttr("tool.calls", len(calls))))

		resultsTurn := s.executeTools(ctx, calls)

		messages = append(messages, resp.Message)
		messages = append(messages, domain.Message{
			Role:      domain.RoleUser,
			Content:   resultsTurn,
			Timestamp: time.Now(),
		})

		resp, err = s.gateway.Send(ctx, profile, s.defaults.SystemPrompt, messages, opts)
		if err != nil {
			tracer.RecordError(span, err)
			return nil, err
		}
		result.Text = resp.Message.Content
		result.TokensUsed += resp.Usage.TotalTokens
	}

	tracer.SetOK(span)
	return result, nil
}

// executeTools runs every requested tool and renders all results as one
// synthetic turn. A failing tool becomes a textual error result; it never
// aborts the round or skips the remaining tools.
func (s *ChatService) executeTools(ctx context.Context, calls []domain.ToolCall) string {
	var b strings.Builder
	b.WriteString("Tool results:\n")

	for _, call := range calls {
		ctx, span := tracer.StartSpan(ctx, "tool.execute",
			trace.WithAttributes(tracer.StringAttr("tool.name", call.Name)),
		)

		var line string
		if s.executor == nil {
			line = fmt.Sprintf("Error: no tool executor available for %q", call.Name)
		} else if res, err := s.executor.Execute(ctx, call.Name, call.Input); err != nil {
			s.logger.Warn("tool execution failed", "tool", call.Name, "error", err)
			tracer.RecordError(span, err)
			line = fmt.Sprintf("Error: %v", err)
		} else {
			line = res.Message
			if len(res.StructuredData) > 0 {
				line += "\n" + string(res.StructuredData)
			}
			tracer.SetOK(span)
		}
		span.End()

		fmt.Fprintf(&b, "[%s] %s\n", call.Name, line)
	}

	return b.String()
}
