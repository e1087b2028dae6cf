package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"shellmind/internal/logging"
	"shellmind/internal/types"
)

// Registry manages the collection of available tools.
// Thread-safe for concurrent access.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*Tool),
	}
}

// Register adds a tool to the registry.
// Returns ErrToolAlreadyRegistered if a tool with the same name exists.
func (r *Registry) Register(tool *Tool) error {
	if err := tool.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, tool.Name)
	}

	r.tools[tool.Name] = tool
	logging.ToolsDebug("registered tool: %s (category=%s)", tool.Name, tool.Category)
	return nil
}

// MustRegister registers a tool, panicking on error.
// Use during startup for built-in tools where failure is a bug.
func (r *Registry) MustRegister(tool *Tool) {
	if err := r.Register(tool); err != nil {
		panic(fmt.Sprintf("tools: register %s: %v", tool.Name, err))
	}
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (*Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return tool, nil
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.tools[name]
	return exists
}

// List returns all registered tools sorted by name.
func (r *Registry) List() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		list = append(list, tool)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}

// ListByCategory returns tools in the given category sorted by name.
func (r *Registry) ListByCategory(category Category) []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var list []*Tool
	for _, tool := range r.tools {
		if tool.Category == category {
			list = append(list, tool)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}

// Definitions converts all registered tools to the wire schema handed
// to the LLM client. Returned in name order so request payloads are
// stable across calls.
func (r *Registry) Definitions() []types.ToolDefinition {
	tools := r.List()
	defs := make([]types.ToolDefinition, 0, len(tools))
	for _, tool := range tools {
		defs = append(defs, tool.Definition())
	}
	return defs
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Execute runs a tool by name after validating arguments against its
// schema. Validation failures and unknown tools are returned as errors
// without invoking the tool.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) *ToolResult {
	start := time.Now()

	tool, err := r.Get(name)
	if err != nil {
		return &ToolResult{
			ToolName:   name,
			Error:      err,
			DurationMs: time.Since(start).Milliseconds(),
		}
	}

	if err := r.validateArgs(tool, args); err != nil {
		logging.Tools("argument validation failed for %s: %v", name, err)
		return &ToolResult{
			ToolName:   name,
			Error:      err,
			DurationMs: time.Since(start).Milliseconds(),
		}
	}

	logging.ToolsDebug("executing %s", name)
	result, err := tool.Execute(ctx, args)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		logging.Tools("%s failed after %dms: %v", name, elapsed, err)
	} else {
		logging.ToolsDebug("%s completed in %dms", name, elapsed)
	}

	return &ToolResult{
		ToolName:   name,
		Result:     result,
		Error:      err,
		DurationMs: elapsed,
	}
}

// validateArgs checks required arguments are present and that provided
// values agree with the declared property types.
func (r *Registry) validateArgs(tool *Tool, args map[string]any) error {
	for _, required := range tool.Schema.Required {
		if _, ok := args[required]; !ok {
			return missingArg(tool.Name, required)
		}
	}

	for name, value := range args {
		prop, declared := tool.Schema.Properties[name]
		if !declared {
			continue
		}
		if value == nil {
			continue
		}
		if !matchesType(prop.Type, value) {
			return typeMismatch(tool.Name, name, prop.Type, value)
		}
	}
	return nil
}

// matchesType checks a decoded JSON value against a schema type name.
// JSON numbers decode as float64, so "integer" accepts whole floats.
func matchesType(schemaType string, value any) bool {
	switch schemaType {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "number":
		switch value.(type) {
		case float64, float32, int, int64:
			return true
		}
		return false
	case "integer":
		switch v := value.(type) {
		case int, int64:
			return true
		case float64:
			return v == float64(int64(v))
		}
		return false
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		// Unknown schema type: accept rather than reject.
		return true
	}
}
