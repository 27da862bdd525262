// Package mcp implements the Model Context Protocol server for Agent Studio.
//
// The MCP server exposes the directory operations of the HTTP API as MCP
// tools and resources, so an assistant can browse the catalog and curate
// agents on an operator's behalf.
package mcp

import (
	"encoding/json"
	"errors"
	"log/slog"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/model"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/service/directory"
)

// Server wraps the MCP server with the directory service.
type Server struct {
	mcpServer *mcpserver.MCPServer
	directory *directory.Service
	logger    *slog.Logger
}

// New creates and configures a new MCP server with all resources, tools and
// prompts.
func New(dir *directory.Service, logger *slog.Logger, version string) *Server {
	s := &Server{
		directory: dir,
		logger:    logger,
	}

	s.mcpServer = mcpserver.NewMCPServer(
		"agentstudio",
		version,
		mcpserver.WithResourceCapabilities(false, true),
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithPromptCapabilities(true),
	)

	s.registerResources()
	s.registerTools()
	s.registerPrompts()

	return s
}

// MCPServer returns the underlying mcp-go server for transport setup.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}

func jsonResult(v any) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: string(data)},
		},
	}, nil
}

// directoryErrorResult turns a directory error into a tool error the caller
// can act on. Storage detail stays in the server log.
func directoryErrorResult(err error) *mcplib.CallToolResult {
	switch {
	case model.IsValidation(err):
		return errorResult("invalid input: " + err.Error())
	case errors.Is(err, directory.ErrNotFound):
		return errorResult("agent not found")
	default:
		return errorResult("the agent directory is unavailable, try again")
	}
}
