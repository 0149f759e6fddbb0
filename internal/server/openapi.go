package server

import (
	"github.com/morezero/statsig-mcp/internal/mcpbridge"
	"github.com/morezero/statsig-mcp/pkg/dispatcher"
	"github.com/morezero/statsig-mcp/pkg/registry"
)

// openAPI3 types for describing the HTTP call endpoint of every tool.
type openAPI3Spec struct {
	OpenAPI string                      `json:"openapi"`
	Info    openAPI3Info                `json:"info"`
	Paths   map[string]openAPI3PathItem `json:"paths"`
}

type openAPI3Info struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`
}

type openAPI3PathItem struct {
	Post *openAPI3Operation `json:"post,omitempty"`
}

type openAPI3Operation struct {
	Summary     string                      `json:"summary"`
	Description string                      `json:"description,omitempty"`
	OperationID string                      `json:"operationId"`
	Tags        []string                    `json:"tags,omitempty"`
	RequestBody *openAPI3RequestBody        `json:"requestBody,omitempty"`
	Responses   map[string]openAPI3Response `json:"responses"`
}

type openAPI3RequestBody struct {
	Content map[string]openAPI3MediaType `json:"content"`
}

type openAPI3Response struct {
	Description string                       `json:"description"`
	Content     map[string]openAPI3MediaType `json:"content,omitempty"`
}

type openAPI3MediaType struct {
	Schema map[string]any `json:"schema,omitempty"`
}

// callOutputSchema describes CallOutput.
var callOutputSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"name":     map[string]any{"type": "string"},
		"text":     map[string]any{"type": "string"},
		"isError":  map[string]any{"type": "boolean"},
		"cached":   map[string]any{"type": "boolean"},
		"envelope": map[string]any{"type": "object"},
	},
}

// inputSchema is the JSON Schema of a tool's arguments, shared with the MCP tool definition.
func inputSchema(d registry.Descriptor) map[string]any {
	props := make(map[string]any, len(d.Params))
	required := []string{}
	for _, p := range d.Params {
		props[p.Name] = mcpbridge.Schema(p)
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// buildOpenAPISpec builds an OpenAPI 3.0 spec with one POST /tools/{name}/call path per tool.
func buildOpenAPISpec(title string, tools []registry.Descriptor) *openAPI3Spec {
	paths := make(map[string]openAPI3PathItem, len(tools))
	jsonOutput := map[string]openAPI3MediaType{"application/json": {Schema: callOutputSchema}}
	for _, d := range tools {
		summary := d.Title
		if summary == "" {
			summary = d.Name
		}
		paths["/tools/"+d.Name+"/call"] = openAPI3PathItem{
			Post: &openAPI3Operation{
				Summary:     summary,
				Description: d.Description,
				OperationID: d.Name,
				Tags:        []string{d.Resource},
				RequestBody: &openAPI3RequestBody{
					Content: map[string]openAPI3MediaType{
						"application/json": {Schema: inputSchema(d)},
					},
				},
				Responses: map[string]openAPI3Response{
					"200": {Description: "Success", Content: jsonOutput},
					"400": {Description: "Invalid arguments", Content: jsonOutput},
					"502": {Description: "Upstream error", Content: jsonOutput},
				},
			},
		}
	}
	return &openAPI3Spec{
		OpenAPI: "3.0.0",
		Info: openAPI3Info{
			Title:       title,
			Description: "Statsig Console and evaluation tools",
			Version:     dispatcher.ToolsetVersion,
		},
		Paths: paths,
	}
}
