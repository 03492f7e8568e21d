package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/urmzd/droidhub/pkg/db"
	"github.com/urmzd/droidhub/pkg/device"
	"github.com/urmzd/droidhub/pkg/device/schema"
)

// Server wraps the MCP server with droidhub's device control functionality
type Server struct {
	mcpServer  *server.MCPServer
	controller device.Controller
	validator  *schema.Validator
	commands   db.CommandLogStore
}

// NewServer creates a new MCP server for device control. commands may be nil,
// in which case the command_history tool is not registered.
func NewServer(controller device.Controller, validator *schema.Validator, commands db.CommandLogStore) *Server {
	s := &Server{
		controller: controller,
		validator:  validator,
		commands:   commands,
	}

	s.mcpServer = server.NewMCPServer(
		"droidhub",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.registerTools()

	return s
}

// ServeStdio starts the MCP server using stdio transport
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
