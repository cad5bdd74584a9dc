// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agent drives the tool-use conversation loop: the model decides
// which registered tool to call next, the registry validates and executes
// it, and the orchestrator feeds the result back until the model produces
// a final answer or the step budget runs out.
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2/jsonschema"

	"github.com/ewbaxter/ClinicalTrialAgent/internal/llm"
	"github.com/ewbaxter/ClinicalTrialAgent/pkg/types"
)

// Handler executes one tool invocation. The returned value is marshaled to
// JSON before it is handed back to the model.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Tool is a named, schema-validated function the orchestrator may invoke
// on behalf of the model.
type Tool struct {
	Name        string
	Description string
	InputSchema jsonschema.Definition
	Handler     Handler
}

// Registry maps tool names to their schemas and handlers. The tool set is
// closed once the session starts; there is no dynamic registration from
// model output.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Duplicate names are an error.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return fmt.Errorf("tool name must not be empty")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %s has no handler", t.Name)
	}
	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("tool %s already registered", t.Name)
	}
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// Definitions returns the tool schemas in registration order, in the shape
// the provider expects.
func (r *Registry) Definitions() []llm.Tool {
	defs := make([]llm.Tool, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, llm.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	return defs
}

// Invoke validates args against the tool's input schema and runs the
// handler. Unknown names yield ToolNotFoundError and schema violations
// yield ValidationError; both are meant to be passed back to the model as
// error tool results rather than aborting the session.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) (any, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, &types.ToolNotFoundError{Tool: name}
	}
	if err := validateArgs(name, t.InputSchema, args); err != nil {
		return nil, err
	}
	return t.Handler(ctx, args)
}

// validateArgs checks required fields and primitive types against the
// schema. Extra fields are tolerated; the handlers ignore them.
func validateArgs(tool string, schema jsonschema.Definition, raw json.RawMessage) error {
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}

	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return &types.ValidationError{Tool: tool, Reason: fmt.Sprintf("arguments are not a JSON object: %v", err)}
	}

	for _, req := range schema.Required {
		if _, ok := args[req]; !ok {
			return &types.ValidationError{Tool: tool, Reason: fmt.Sprintf("missing required field %q", req)}
		}
	}

	for name, prop := range schema.Properties {
		v, ok := args[name]
		if !ok || v == nil {
			continue
		}
		if err := checkType(name, prop, v); err != nil {
			return &types.ValidationError{Tool: tool, Reason: err.Error()}
		}
	}
	return nil
}

func checkType(name string, def jsonschema.Definition, v any) error {
	switch def.Type {
	case jsonschema.String:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("field %q must be a string", name)
		}
		if len(def.Enum) > 0 && !contains(def.Enum, s) {
			return fmt.Errorf("field %q must be one of %v", name, def.Enum)
		}
	case jsonschema.Integer:
		f, ok := v.(float64)
		if !ok || f != float64(int64(f)) {
			return fmt.Errorf("field %q must be an integer", name)
		}
	case jsonschema.Number:
		if _, ok := v.(float64); !ok {
			return fmt.Errorf("field %q must be a number", name)
		}
	case jsonschema.Boolean:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("field %q must be a boolean", name)
		}
	case jsonschema.Array:
		items, ok := v.([]any)
		if !ok {
			return fmt.Errorf("field %q must be an array", name)
		}
		if def.Items != nil {
			for i, item := range items {
				if err := checkType(fmt.Sprintf("%s[%d]", name, i), *def.Items, item); err != nil {
					return err
				}
			}
		}
	case jsonschema.Object:
		if _, ok := v.(map[string]any); !ok {
			return fmt.Errorf("field %q must be an object", name)
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}
