package agent

import (
	"charm.land/fantasy"
	"github.com/mark3labs/mcp-go/mcp"
)

func textMessage(role fantasy.MessageRole, text string) fantasy.Message {
	return fantasy.Message{
		Role:    role,
		Content: []fantasy.MessagePart{fantasy.TextPart{Text: text}},
	}
}

// fromMCPTools keeps tool names as the server reports them; a run talks to a
// single tool source so no prefix is needed to route calls.
func fromMCPTools(tools []mcp.Tool) []fantasy.Tool {
	out := make([]fantasy.Tool, 0, len(tools))
	for _, tool := range tools {
		inputSchema := map[string]any{
			"type":       "object",
			"properties": tool.InputSchema.Properties,
		}
		if tool.InputSchema.Properties == nil {
			inputSchema["properties"] = map[string]any{}
		}
		if len(tool.InputSchema.Required) > 0 {
			inputSchema["required"] = tool.InputSchema.Required
		}

		out = append(out, fantasy.FunctionTool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: inputSchema,
		})
	}
	return out
}

func toolChoiceFor(tools []fantasy.Tool) *fantasy.ToolChoice {
	if len(tools) == 0 {
		return nil
	}
	choice := fantasy.ToolChoiceAuto
	return &choice
}
