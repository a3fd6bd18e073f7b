package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/gdlens/internal/service/analysis"
	"github.com/panbanda/gdlens/pkg/config"
)

// Server wraps the MCP server and registers the gdlens analysis tools.
type Server struct {
	server *mcp.Server
	config *config.Config
}

// NewServer creates a new MCP server with all gdlens tools registered. A nil
// cfg loads the configuration of the working directory.
func NewServer(version string, cfg *config.Config) *Server {
	if version == "" {
		version = "dev"
	}
	if cfg == nil {
		cfg = config.LoadOrDefault()
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: version,
		},
		nil,
	)

	s := &Server{server: server, config: cfg}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// service returns a fresh analysis service so every call sees the current
// class registry of the project.
func (s *Server) service() *analysis.Service {
	return analysis.New(analysis.WithConfig(s.config))
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_script",
		Description: describeScript(),
	}, s.handleAnalyzeScript)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_scene",
		Description: describeScene(),
	}, s.handleAnalyzeScene)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_project",
		Description: describeProject(),
	}, s.handleAnalyzeProject)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "dependency_graph",
		Description: describeGraph(),
	}, s.handleDependencyGraph)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_classes",
		Description: describeClasses(),
	}, s.handleListClasses)
}
