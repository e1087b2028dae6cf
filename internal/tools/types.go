// Package tools provides the static capability registry for the agent loop.
//
// Each tool is a named, schema-described callable action. The registry is
// built once at startup and looked up by name; there is no runtime
// reflection. Tool executors own their execution entirely - the loop never
// mutates a tool after registration.
package tools

import (
	"context"

	"shellmind/internal/types"
)

// Category classifies tools by the resource they touch.
type Category string

const (
	CategoryShell  Category = "shell"
	CategoryFile   Category = "file"
	CategoryWeb    Category = "web"
	CategoryTodo   Category = "todo"
	CategoryGit    Category = "git"
	CategorySystem Category = "system"
)

// Property describes a single parameter property for JSON schema.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
	// Items describes array element schema (required for type="array")
	Items *PropertyItems `json:"items,omitempty"`
}

// PropertyItems describes the schema for array elements.
type PropertyItems struct {
	Type string `json:"type"`
}

// ToolSchema defines the JSON schema for tool arguments.
type ToolSchema struct {
	// Required lists parameters that must be provided.
	Required []string `json:"required"`

	// Properties describes each parameter.
	Properties map[string]Property `json:"properties"`
}

// ExecuteFunc is the signature for tool execution.
// Returns the result string and any error.
type ExecuteFunc func(ctx context.Context, args map[string]any) (string, error)

// Tool defines a capability the LLM may invoke.
type Tool struct {
	// Name is the unique identifier for the tool.
	Name string

	// Description explains what the tool does. Used for LLM tool
	// calling and documentation.
	Description string

	// Category classifies the tool by resource.
	Category Category

	// Execute runs the tool with the given arguments.
	Execute ExecuteFunc

	// Schema defines the expected arguments.
	Schema ToolSchema

	// ShellCommandArg names the argument that carries a raw shell
	// command. Non-empty marks this tool as shell-executing: the
	// safety classifier must run on that argument before execution.
	ShellCommandArg string
}

// Validate checks if the tool definition is valid.
func (t *Tool) Validate() error {
	if t.Name == "" {
		return ErrToolNameEmpty
	}
	if t.Execute == nil {
		return ErrToolExecuteNil
	}
	return nil
}

// Definition converts the tool to the wire-level schema bound to the LLM.
func (t *Tool) Definition() types.ToolDefinition {
	schema := map[string]any{
		"type":       "object",
		"properties": t.Schema.Properties,
	}
	if len(t.Schema.Required) > 0 {
		schema["required"] = t.Schema.Required
	}
	return types.ToolDefinition{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: schema,
	}
}

// ToolResult wraps the result of tool execution with metadata.
type ToolResult struct {
	// ToolName identifies which tool was executed.
	ToolName string

	// Result is the string output from the tool.
	Result string

	// Error is set if the tool failed.
	Error error

	// DurationMs is how long execution took.
	DurationMs int64
}

// IsSuccess returns true if the tool executed without error.
func (r *ToolResult) IsSuccess() bool {
	return r.Error == nil
}
