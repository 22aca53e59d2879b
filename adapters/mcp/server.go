// Package mcpserver exposes the block catalog and the render pipeline as
// MCP tools so agents can discover block types and author valid sections.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/artpar/pageblocks/app"
)

// CatalogURI is the resource listing every enabled block type.
const CatalogURI = "pageblocks://blocks"

// Server is the MCP server for pageblocks.
type Server struct {
	mcp     *server.MCPServer
	service *app.ContentService
	logger  zerolog.Logger
}

// New creates and configures a new MCP server with all tools and resources.
func New(service *app.ContentService, logger zerolog.Logger, version string) *Server {
	if version == "" {
		version = "dev"
	}
	s := &Server{
		service: service,
		logger:  logger,
	}

	s.mcp = server.NewMCPServer(
		"pageblocks",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.registerBlockTools()
	s.registerPageTools()
	s.registerResources()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout. Logs must not go to
// stdout while it runs.
func (s *Server) ServeStdio() error {
	s.logger.Info().Msg("starting MCP stdio server")
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server, for mounting on other transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ── Helpers ────────────────────────────────────────────────

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// errorResult reports a failure the caller can correct, as opposed to a
// protocol error.
func errorResult(err error) *mcp.CallToolResult {
	res := textResult(err.Error())
	res.IsError = true
	return res
}

// objectArg reads an object argument given either inline or as a JSON string.
func objectArg(args map[string]any, name string) (map[string]any, error) {
	switch v := args[name].(type) {
	case map[string]any:
		return v, nil
	case string:
		var out map[string]any
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, fmt.Errorf("%s: invalid JSON object: %w", name, err)
		}
		if out == nil {
			out = map[string]any{}
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("%s is required", name)
	default:
		return nil, fmt.Errorf("%s must be an object", name)
	}
}

// rawArg reads an argument given inline or as a JSON string, without
// constraining its shape.
func rawArg(args map[string]any, name string) (any, error) {
	v, ok := args[name]
	if !ok {
		return nil, fmt.Errorf("%s is required", name)
	}
	if str, isString := v.(string); isString {
		var out any
		if err := json.Unmarshal([]byte(str), &out); err != nil {
			return nil, fmt.Errorf("%s: invalid JSON: %w", name, err)
		}
		return out, nil
	}
	return v, nil
}

func stringArg(args map[string]any, name string) (string, error) {
	v, _ := args[name].(string)
	if v == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return v, nil
}

func intArg(args map[string]any, name string) (int, error) {
	switch v := args[name].(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%s must be an integer", name)
		}
		return int(v), nil
	case int:
		return v, nil
	case nil:
		return 0, fmt.Errorf("%s is required", name)
	default:
		return 0, fmt.Errorf("%s must be a number", name)
	}
}

func boolPtr(v bool) *bool { return &v }

func (s *Server) registerResources() {
	s.mcp.AddResource(mcp.NewResource(
		CatalogURI,
		"Block Types",
		mcp.WithResourceDescription("Descriptors of every enabled block type"),
		mcp.WithMIMEType("application/json"),
	), s.handleCatalogResource)
}

func (s *Server) handleCatalogResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(s.service.ListBlocks(ctx), "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      CatalogURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
