// ABOUTME: MCP tool implementations for board operations.
// ABOUTME: Registers list_messages, create_post, modify_post, delete_post, and get_api_key.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"strontium/internal/api"
	"strontium/internal/models"
)

func (s *Server) registerBoardTools() {
	s.mcp.AddTool(&gomcp.Tool{
		Name:        "list_messages",
		Description: "List messages from the board, newest first, with optional text search.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"skip": {"type": "number", "description": "Number of messages to skip (default 0)"},
				"limit": {"type": "number", "description": "Maximum number of messages to retrieve (default 10)"},
				"search": {"type": "string", "description": "Only return messages containing this text"}
			}
		}`),
	}, s.handleListMessages)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "create_post",
		Description: "Create a new board message as the logged-in user.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"content": {"type": "string", "description": "The content of the message.", "minLength": 1},
				"file_urls": {"type": "array", "items": {"type": "string"}, "description": "Optional ordered attachment URLs from a prior upload"}
			},
			"required": ["content"]
		}`),
	}, s.handleCreatePost)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "modify_post",
		Description: "Replace the content of an existing board message you own.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"message_id": {"type": "number", "description": "ID of the message to modify"},
				"content": {"type": "string", "description": "The new content.", "minLength": 1}
			},
			"required": ["message_id", "content"]
		}`),
	}, s.handleModifyPost)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "delete_post",
		Description: "Delete a board message you own.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"message_id": {"type": "number", "description": "ID of the message to delete"}
			},
			"required": ["message_id"]
		}`),
	}, s.handleDeletePost)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "get_api_key",
		Description: "Retrieve the logged-in user's stored API key for use in other tools.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {}
		}`),
	}, s.handleGetAPIKey)
}

func (s *Server) handleListMessages(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Skip   int    `json:"skip"`
		Limit  int    `json:"limit"`
		Search string `json:"search"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	if args.Limit <= 0 {
		args.Limit = 10
	}

	msgs, err := s.client.ListMessages(ctx, api.Query{Skip: args.Skip, Limit: args.Limit, Search: args.Search})
	if err != nil {
		return toolError("failed to list messages: %v", err), nil
	}

	if len(msgs) == 0 {
		if args.Search != "" {
			return toolText("No messages found for query: %s", args.Search), nil
		}
		return toolText("No messages found."), nil
	}

	var sb strings.Builder
	for _, m := range msgs {
		sb.WriteString(formatMessage(m))
	}
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: sb.String()}},
	}, nil
}

func (s *Server) handleCreatePost(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Content  string   `json:"content"`
		FileURLs []string `json:"file_urls"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	if args.Content == "" {
		return toolError("content is required"), nil
	}
	if !s.session.Authenticated() {
		return toolError("not logged in - run 'strontium login <email>' first"), nil
	}

	msg, err := s.client.CreateMessage(ctx, args.Content, args.FileURLs)
	if err != nil {
		return toolError("failed to create post: %v", err), nil
	}

	return toolText("Post created! ID: %d", msg.ID), nil
}

func (s *Server) handleModifyPost(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		MessageID int    `json:"message_id"`
		Content   string `json:"content"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	if args.MessageID <= 0 {
		return toolError("message_id is required"), nil
	}
	if args.Content == "" {
		return toolError("content is required"), nil
	}
	if !s.session.Authenticated() {
		return toolError("not logged in - run 'strontium login <email>' first"), nil
	}

	if _, err := s.client.UpdateMessage(ctx, args.MessageID, args.Content); err != nil {
		if errors.Is(err, api.ErrForbidden) {
			return toolError("message %d not found or not yours to modify", args.MessageID), nil
		}
		return toolError("failed to modify post: %v", err), nil
	}

	return toolText("Post %d modified successfully!", args.MessageID), nil
}

func (s *Server) handleDeletePost(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		MessageID int `json:"message_id"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	if args.MessageID <= 0 {
		return toolError("message_id is required"), nil
	}
	if !s.session.Authenticated() {
		return toolError("not logged in - run 'strontium login <email>' first"), nil
	}

	if err := s.client.DeleteMessage(ctx, args.MessageID); err != nil {
		if errors.Is(err, api.ErrForbidden) {
			return toolError("message %d not found or not yours to delete", args.MessageID), nil
		}
		return toolError("failed to delete post: %v", err), nil
	}

	return toolText("Post %d deleted successfully.", args.MessageID), nil
}

func (s *Server) handleGetAPIKey(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	if !s.session.Authenticated() {
		return toolError("not logged in - run 'strontium login <email>' first"), nil
	}

	profile, err := s.client.Me(ctx)
	if err != nil {
		if errors.Is(err, api.ErrSessionInvalid) {
			return toolError("session expired - run 'strontium login <email>' again"), nil
		}
		return toolError("failed to fetch profile: %v", err), nil
	}

	if profile.APIKey == "" {
		return toolText("User %s has no API key registered.", profile.Email), nil
	}
	s.session.SetAPIKey(profile.APIKey)
	return toolText("API Key for %s: %s", profile.Email, profile.APIKey), nil
}

func formatMessage(m models.Message) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%d] User %d: %s (%s)", m.ID, m.OwnerID, m.Content, m.Timestamp.Format("2006-01-02 15:04:05")))
	for _, u := range m.FileURLs {
		sb.WriteString(fmt.Sprintf("\n    file: %s", u))
	}
	sb.WriteString("\n")
	return sb.String()
}
