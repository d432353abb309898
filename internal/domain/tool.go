package domain

import (
	"context"
	"encoding/json"
)

// ToolSchema describes a tool for the LLM function-calling protocol.
// InputSchema is a JSON Schema object of the shape
// {type:"object", properties:{...}, required:[...]}.
type ToolSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ToolCall is an LLM's request to invoke a tool.
type ToolCall struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolResult is the outcome of executing a tool.
type ToolResult struct {
	Action         string          `json:"action"`
	Message        string          `json:"message"`
	StructuredData json.RawMessage `json:"structured_data,omitempty"`
}

// Tool is the interface every registered tool implements.
type Tool interface {
	Name() string
	Description() string
	Schema() ToolSchema
	Execute(ctx context.Context, input json.RawMessage) (*ToolResult, error)
}

// ToolExecutor abstracts tool lookup and execution for the chat loop.
// Execution errors are returned, not panicked; the loop converts them to
// textual results so one failing tool never aborts the turn.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, input json.RawMessage) (*ToolResult, error)
	Schemas() []ToolSchema
}
