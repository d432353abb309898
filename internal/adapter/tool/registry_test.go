package tool

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"orgmind/internal/domain"
)

type fakeTool struct {
	name   string
	schema json.RawMessage
	calls  int
	result *domain.ToolResult
	err    error
}

func (f *fakeTool) Name() string        { return f.name }
func (f *fakeTool) Description() string { return "a fake tool" }
func (f *fakeTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{Name: f.name, Description: "a fake tool", InputSchema: f.schema}
}

func (f *fakeTool) Execute(_ context.Context, _ json.RawMessage) (*domain.ToolResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &domain.ToolResult{Action: f.name, Message: "done"}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const taskSchema = `{
	"type": "object",
	"properties": {
		"title": {"type": "string"},
		"assignee": {"type": "string"}
	},
	"required": ["title"]
}`

func TestRegistryExecute(t *testing.T) {
	r := NewRegistry(testLogger())
	ft := &fakeTool{name: "create_task", schema: json.RawMessage(taskSchema)}
	if err := r.Register(ft); err != nil {
		t.Fatalf("register: %v", err)
	}

	res, err := r.Execute(context.Background(), "create_task", json.RawMessage(`{"title":"Ship v2"}`))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.Action != "create_task" || res.Message != "done" {
		t.Errorf("result = %+v", res)
	}
	if ft.calls != 1 {
		t.Errorf("calls = %d", ft.calls)
	}
}

func TestRegistryExecuteUnknownTool(t *testing.T) {
	r := NewRegistry(testLogger())
	_, err := r.Execute(context.Background(), "nope", json.RawMessage(`{}`))
	if !errors.Is(err, domain.ErrToolNotFound) {
		t.Fatalf("error = %v, want ErrToolNotFound", err)
	}
}

func TestRegistryRejectsDuplicate(t *testing.T) {
	r := NewRegistry(testLogger())
	if err := r.Register(&fakeTool{name: "create_task"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(&fakeTool{name: "create_task"}); err == nil {
		t.Error("expected duplicate error")
	}
}

func TestRegistrySchemas(t *testing.T) {
	r := NewRegistry(testLogger())
	r.Register(&fakeTool{name: "create_task", schema: json.RawMessage(taskSchema)})
	r.Register(&fakeTool{name: "update_okr"})

	schemas := r.Schemas()
	if len(schemas) != 2 {
		t.Fatalf("schemas = %d, want 2", len(schemas))
	}
	names := map[string]bool{}
	for _, s := range schemas {
		names[s.Name] = true
	}
	if !names["create_task"] || !names["update_okr"] {
		t.Errorf("names = %v", names)
	}
}

func TestRegistryValidatesInput(t *testing.T) {
	r := NewRegistry(testLogger())
	ft := &fakeTool{name: "create_task", schema: json.RawMessage(taskSchema)}
	if err := r.Register(ft); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Missing required "title": rejected before the tool runs.
	_, err := r.Execute(context.Background(), "create_task", json.RawMessage(`{"assignee":"dana"}`))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
	if ft.calls != 0 {
		t.Errorf("tool ran on invalid input")
	}
}
