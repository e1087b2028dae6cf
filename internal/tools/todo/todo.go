// Package todo provides a session-scoped task list the model can use
// to plan multi-step work. The list lives in memory for the lifetime
// of the session.
package todo

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"shellmind/internal/tools"
)

// Status tracks a todo item's lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Item is a single entry in the task list.
type Item struct {
	Text   string
	Status Status
}

// List is a thread-safe task list shared by the todo tools.
type List struct {
	mu    sync.Mutex
	items []Item
}

// NewList creates an empty task list.
func NewList() *List {
	return &List{}
}

// Set replaces the whole list.
func (l *List) Set(items []Item) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = items
}

// Snapshot returns a copy of the current items.
func (l *List) Snapshot() []Item {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Item, len(l.items))
	copy(out, l.items)
	return out
}

// Render formats the list for display.
func (l *List) Render() string {
	items := l.Snapshot()
	if len(items) == 0 {
		return "no tasks"
	}

	var sb strings.Builder
	for i, item := range items {
		marker := "[ ]"
		switch item.Status {
		case StatusInProgress:
			marker = "[~]"
		case StatusDone:
			marker = "[x]"
		}
		fmt.Fprintf(&sb, "%d. %s %s\n", i+1, marker, item.Text)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// WriteTool returns a tool that replaces the task list.
func WriteTool(list *List) *tools.Tool {
	return &tools.Tool{
		Name:        "todo_write",
		Description: "Replace the task list with a new set of items",
		Category:    tools.CategoryTodo,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			raw, ok := args["items"].([]any)
			if !ok {
				return "", fmt.Errorf("items must be an array")
			}

			items := make([]Item, 0, len(raw))
			for i, entry := range raw {
				obj, ok := entry.(map[string]any)
				if !ok {
					return "", fmt.Errorf("item %d must be an object", i)
				}
				text, _ := obj["text"].(string)
				if text == "" {
					return "", fmt.Errorf("item %d missing text", i)
				}
				status := StatusPending
				if s, ok := obj["status"].(string); ok && s != "" {
					switch Status(s) {
					case StatusPending, StatusInProgress, StatusDone:
						status = Status(s)
					default:
						return "", fmt.Errorf("item %d has unknown status %q", i, s)
					}
				}
				items = append(items, Item{Text: text, Status: status})
			}

			list.Set(items)
			return fmt.Sprintf("task list updated (%d items)", len(items)), nil
		},
		Schema: tools.ToolSchema{
			Required: []string{"items"},
			Properties: map[string]tools.Property{
				"items": {
					Type:        "array",
					Description: "Task items, each {text, status} with status pending|in_progress|done",
					Items:       &tools.PropertyItems{Type: "object"},
				},
			},
		},
	}
}

// ReadTool returns a tool that renders the current task list.
func ReadTool(list *List) *tools.Tool {
	return &tools.Tool{
		Name:        "todo_read",
		Description: "Show the current task list",
		Category:    tools.CategoryTodo,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return list.Render(), nil
		},
		Schema: tools.ToolSchema{
			Required:   []string{},
			Properties: map[string]tools.Property{},
		},
	}
}

// RegisterAll registers the todo tools backed by a fresh list and
// returns the list so the UI can display it.
func RegisterAll(registry *tools.Registry) (*List, error) {
	list := NewList()
	if err := registry.Register(WriteTool(list)); err != nil {
		return nil, err
	}
	if err := registry.Register(ReadTool(list)); err != nil {
		return nil, err
	}
	return list, nil
}
