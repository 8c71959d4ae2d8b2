package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"fiona/internal/domain"
	"fiona/internal/service"
)

// Server is the MCP server for the layout editor. It exposes the layout
// and block operations as tools so external AI agents can edit a project
// alongside the browser frontend.
type Server struct {
	mcp     *server.MCPServer
	layouts *service.LayoutService

	// Active project context (set by set_active_project tool)
	activeProject string
}

// New creates and configures a new MCP server with all tools.
func New(layouts *service.LayoutService) *Server {
	s := &Server{
		mcp:           server.NewMCPServer("fiona-mcp", "1.0.0", server.WithToolCapabilities(true)),
		layouts:       layouts,
		activeProject: domain.DefaultProject,
	}

	s.registerProjectTools()
	s.registerLayoutTools()
	s.registerBlockTools()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// resolveProject returns the project from tool args or the active project.
func (s *Server) resolveProject(args map[string]any) string {
	if p, ok := args["project"].(string); ok && p != "" {
		return p
	}
	return s.activeProject
}

// textResult creates a simple text tool result.
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

// intArg reads a numeric tool argument, falling back when absent.
func intArg(args map[string]any, key string, fallback int) int {
	if _, ok := args[key]; !ok {
		return fallback
	}
	return domain.CoerceInt(args[key], fallback)
}

func (s *Server) registerProjectTools() {
	// ── set_active_project ─────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_active_project",
		mcp.WithDescription("Set the project that later tool calls operate on by default"),
		mcp.WithString("project", mcp.Description("Project name"), mcp.Required()),
	), s.handleSetActiveProject)

	// ── list_projects ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List all known project names"),
	), s.handleListProjects)
}

func (s *Server) handleSetActiveProject(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, _ := req.GetArguments()["project"].(string)
	if project == "" {
		return nil, fmt.Errorf("project is required")
	}
	s.activeProject = domain.SanitizeProject(project)
	return textResult(fmt.Sprintf("Active project set to %s", s.activeProject)), nil
}

func (s *Server) handleListProjects(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := s.layouts.ListProjects()
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return jsonResult(projects)
}
