package ai

import (
	"fmt"
)

// Tool mimics a "standard" mcp tool definition so you can easily use it with any mcp client
type Tool struct {
	Name            string                                                 `json:"name"`
	Description     string                                                 `json:"description"`
	InputSchema     map[string]interface{}                                 `json:"inputSchema,omitempty"`
	Execute         func(args map[string]interface{}) (*ToolResult, error) `json:"-"`
	RequireApproval bool
}

// Call executes the tool with the given arguments
func (t *Tool) Call(args map[string]interface{}) (*ToolResult, error) {
	if t.Execute == nil {
		return nil, fmt.Errorf("tool %s has no execute function", t.Name)
	}

	return t.Execute(args)
}

// ToolContent represents a single piece of content returned by a tool
type ToolContent struct {
	Type    string // "text", "image", "audio", etc.
	Content any    // The actual content (string, []byte, etc.)
}

// ToolResult represents the complete result from a tool invocation
type ToolResult struct {
	Content []ToolContent
	Error   bool
}

// TextResult builds a single-text-content result. Failures are returned as
// data so the agent driver always receives a string outcome for a tool call.
func TextResult(text string, isError bool) *ToolResult {
	return &ToolResult{
		Content: []ToolContent{{Type: "text", Content: text}},
		Error:   isError,
	}
}

// Text flattens the textual content of a result into one string.
func (r *ToolResult) Text() string {
	if r == nil {
		return ""
	}
	var out string
	for _, c := range r.Content {
		if s, ok := c.Content.(string); ok {
			if out != "" {
				out += "\n"
			}
			out += s
		}
	}
	return out
}
