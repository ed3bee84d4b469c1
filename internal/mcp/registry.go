package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// ToolHandler runs a tool with arguments that already passed schema
// validation and returns the text shown to the client.
type ToolHandler func(ctx context.Context, args json.RawMessage) (string, error)

// Tool describes a callable tool.
type Tool struct {
	// Name must be lowercase snake_case.
	Name        string
	Description string
	// InputSchema is a JSON Schema object for the arguments.
	InputSchema json.RawMessage
	Handler     ToolHandler
}

// ToolSpec is the public description of a registered tool.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// ErrUnknownTool is returned by Call for a name that was never registered.
var ErrUnknownTool = errors.New("unknown tool")

type registeredTool struct {
	Tool
	schema *gojsonschema.Schema
}

// Registry holds tools keyed by name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]registeredTool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]registeredTool)}
}

var nameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Register validates and adds t, replacing a tool with the same name.
func (r *Registry) Register(t Tool) error {
	if !nameRe.MatchString(t.Name) {
		return fmt.Errorf("invalid tool name %q: must be lowercase snake_case starting with a letter", t.Name)
	}
	if t.Handler == nil {
		return errors.New("handler must not be nil")
	}
	if len(t.InputSchema) == 0 || !isJSONObject(t.InputSchema) {
		return errors.New("input schema must be a non-empty JSON object")
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(t.InputSchema))
	if err != nil {
		return fmt.Errorf("compile schema for %s: %w", t.Name, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name] = registeredTool{Tool: t, schema: schema}
	return nil
}

// Specs returns the registered tools sorted by name.
func (r *Registry) Specs() []ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	specs := make([]ToolSpec, 0, len(names))
	for _, name := range names {
		t := r.tools[name]
		specs = append(specs, ToolSpec{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema})
	}
	return specs
}

// ValidationError lists every schema violation of a tool call.
type ValidationError struct {
	Tool     string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, strings.Join(e.Problems, "; "))
}

// Call validates args against the tool's schema and runs it. Schema
// violations are reported as *ValidationError.
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (string, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownTool, name)
	}
	if len(args) == 0 || string(args) == "null" {
		args = json.RawMessage("{}")
	}
	res, err := t.schema.Validate(gojsonschema.NewBytesLoader(args))
	if err != nil {
		return "", fmt.Errorf("validate arguments: %w", err)
	}
	if !res.Valid() {
		problems := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			problems = append(problems, e.String())
		}
		return "", &ValidationError{Tool: name, Problems: problems}
	}
	return t.Handler(ctx, args)
}

func isJSONObject(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	_, ok := v.(map[string]any)
	return ok
}
