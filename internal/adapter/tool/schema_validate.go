package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"orgmind/internal/domain"
)

// SchemaValidatingTool wraps a Tool with JSON Schema validation.
// On Execute, it validates input against the compiled schema before delegating.
type SchemaValidatingTool struct {
	inner  domain.Tool
	schema *jsonschema.Schema
}

// WithSchemaValidation wraps a tool so that Execute validates input against
// the tool's JSON Schema before forwarding to the inner tool.
// Returns error if the schema fails to compile.
func WithSchemaValidation(t domain.Tool) (domain.Tool, error) {
	raw := t.Schema().InputSchema
	if len(raw) == 0 || string(raw) == "null" {
		return t, nil // no schema to validate against
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema resource for %q: %w", t.Name(), err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema for %q: %w", t.Name(), err)
	}

	return &SchemaValidatingTool{inner: t, schema: compiled}, nil
}

func (s *SchemaValidatingTool) Name() string              { return s.inner.Name() }
func (s *SchemaValidatingTool) Description() string       { return s.inner.Description() }
func (s *SchemaValidatingTool) Schema() domain.ToolSchema { return s.inner.Schema() }

// Execute rejects input that fails validation before the inner tool runs.
// A rejection is an ErrInvalidInput error, not a result, so the chat loop
// reports it to the model the same way as any other tool failure.
func (s *SchemaValidatingTool) Execute(ctx context.Context, input json.RawMessage) (*domain.ToolResult, error) {
	var v interface{}
	if err := json.Unmarshal(input, &v); err != nil {
		return nil, fmt.Errorf("%w: tool %q input is not valid JSON: %v", domain.ErrInvalidInput, s.inner.Name(), err)
	}

	if err := s.schema.Validate(v); err != nil {
		return nil, fmt.Errorf("%w: tool %q input rejected by schema: %v", domain.ErrInvalidInput, s.inner.Name(), err)
	}

	return s.inner.Execute(ctx, input)
}
