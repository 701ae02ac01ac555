// Package mcp exposes the calculation engine and stored programs as Model
// Context Protocol tools.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiftPlan", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiftPlan powerlifting program calculator. Calculate 4-week percentage-based blocks "+
			"for squat, bench_press and deadlift from a coach's parameters, look up the volume and session "+
			"patterns, and browse stored client programs."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolCalculateProgram, Handler: h.calculateProgram},
		server.ServerTool{Tool: toolListPatterns, Handler: h.listPatterns},
		server.ServerTool{Tool: toolListPrograms, Handler: h.listPrograms},
		server.ServerTool{Tool: toolGetProgram, Handler: h.getProgram},
		server.ServerTool{Tool: toolGetStats, Handler: h.getStats},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resPatterns, Handler: h.patterns},
		server.ServerResource{Resource: resRecentPrograms, Handler: h.recentPrograms},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}
