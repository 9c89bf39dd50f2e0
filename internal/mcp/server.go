// ABOUTME: MCP server initialization and configuration for strontium.
// ABOUTME: Sets up board tools so AI agents can read and post over the remote API.
package mcp

import (
	"context"
	"fmt"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"strontium/internal/api"
	"strontium/internal/session"
)

// Server wraps the MCP server with the board API client.
type Server struct {
	mcp     *gomcp.Server
	client  *api.Client
	session *session.Store
}

// NewServer creates an MCP server exposing the board tools.
func NewServer(client *api.Client, sess *session.Store) (*Server, error) {
	if client == nil {
		return nil, fmt.Errorf("api client is required")
	}
	if sess == nil {
		return nil, fmt.Errorf("session store is required")
	}

	mcpServer := gomcp.NewServer(
		&gomcp.Implementation{
			Name:    "strontium",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcp:     mcpServer,
		client:  client,
		session: sess,
	}

	s.registerBoardTools()

	return s, nil
}

// Serve starts the MCP server in stdio mode.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcp.Run(ctx, &gomcp.StdioTransport{})
}

func toolError(format string, args ...interface{}) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func toolText(format string, args ...interface{}) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: fmt.Sprintf(format, args...)}},
	}
}
