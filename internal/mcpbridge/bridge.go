// Package mcpbridge exposes the tool catalog over the Model Context Protocol.
// Every registered operation becomes one MCP tool whose calls go through the
// dispatcher; the dispatcher's rendered text is the tool result.
package mcpbridge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/morezero/statsig-mcp/pkg/dispatcher"
	"github.com/morezero/statsig-mcp/pkg/registry"
)

const logPrefix = "mcpbridge:bridge"

// NewServer builds an MCP server named name/version with one tool per
// operation in d's registry, in registration order.
func NewServer(name, version string, d *dispatcher.Dispatcher) *mcpserver.MCPServer {
	srv := mcpserver.NewMCPServer(name, version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)
	for _, desc := range d.Registry().DescribeAll() {
		srv.AddTool(Tool(desc), handler(d, desc.Name))
	}
	slog.Info(fmt.Sprintf("%s - Registered %d MCP tools", logPrefix, d.Registry().Len()))
	return srv
}

// Tool converts a descriptor into its MCP tool definition.
func Tool(desc registry.Descriptor) mcp.Tool {
	title := desc.Title
	if title == "" {
		title = desc.Name
	}
	return mcp.NewTool(desc.Name,
		mcp.WithDescription(desc.Description),
		withParams(desc.Params),
		mcp.WithTitleAnnotation(title),
		mcp.WithReadOnlyHintAnnotation(desc.ReadOnly),
		mcp.WithDestructiveHintAnnotation(desc.Destructive),
		mcp.WithIdempotentHintAnnotation(desc.ReadOnly || desc.Idempotent),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// withParams writes every parameter into the tool's input schema.
func withParams(params []registry.Param) mcp.ToolOption {
	return func(t *mcp.Tool) {
		if t.InputSchema.Properties == nil {
			t.InputSchema.Properties = map[string]any{}
		}
		for _, p := range params {
			t.InputSchema.Properties[p.Name] = Schema(p)
			if p.Required {
				t.InputSchema.Required = append(t.InputSchema.Required, p.Name)
			}
		}
	}
}

// Schema renders one parameter as a JSON Schema property.
func Schema(p registry.Param) map[string]any {
	prop := map[string]any{}
	switch p.Type {
	case registry.TypeScalar:
		prop["oneOf"] = []any{
			map[string]any{"type": "string"},
			map[string]any{"type": "number"},
		}
	case "":
		prop["type"] = string(registry.TypeString)
	default:
		prop["type"] = string(p.Type)
	}
	if p.Description != "" {
		prop["description"] = p.Description
	}
	if len(p.Enum) > 0 {
		prop["enum"] = p.Enum
	}
	if p.Default != nil {
		prop["default"] = p.Default
	}
	return prop
}

func handler(d *dispatcher.Dispatcher, name string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res := d.Dispatch(ctx, name, req.GetArguments())
		if res.IsError {
			return mcp.NewToolResultError(res.Text), nil
		}
		return mcp.NewToolResultText(res.Text), nil
	}
}
