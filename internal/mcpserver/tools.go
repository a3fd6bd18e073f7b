package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/gdlens/internal/output"
	"github.com/panbanda/gdlens/internal/service/analysis"
	"github.com/panbanda/gdlens/pkg/analyzer/graph"
)

// ScriptInput selects a script and what its result reports. Unset flags
// fall back to the configured defaults.
type ScriptInput struct {
	Path                string `json:"path" jsonschema:"Script to analyze: a filesystem path or a res:// path."`
	IncludeDependencies *bool  `json:"include_dependencies,omitempty" jsonschema:"Resolve preload, load, extends and class references."`
	IncludeMethods      *bool  `json:"include_methods,omitempty" jsonschema:"Include method declarations. Default true."`
	IncludeVariables    *bool  `json:"include_variables,omitempty" jsonschema:"Include member variables and constants. Default true."`
	IncludeCalls        bool   `json:"include_calls,omitempty" jsonschema:"Keep every classified call on the method summaries."`
	Format              string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, markdown, or text."`
}

// SceneInput selects a scene and what its result reports.
type SceneInput struct {
	Path                  string `json:"path" jsonschema:"Scene to analyze: a filesystem path or a res:// path to a .tscn file."`
	IncludeProperties     *bool  `json:"include_properties,omitempty" jsonschema:"Include node property overrides. Default true."`
	IncludeConnections    *bool  `json:"include_connections,omitempty" jsonschema:"Include signal connections. Default true."`
	IncludeScriptInsights *bool  `json:"include_script_insights,omitempty" jsonschema:"Analyze every script attached to a node. Default true."`
	IncludeDependencies   *bool  `json:"include_dependencies,omitempty" jsonschema:"Resolve dependencies of the attached scripts."`
	MaxDepth              int    `json:"max_depth,omitempty" jsonschema:"Maximum hierarchy depth below the root. 0 means unlimited."`
	Format                string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, markdown, or text."`
}

// ProjectInput selects a project directory.
type ProjectInput struct {
	Path           string `json:"path,omitempty" jsonschema:"Directory inside the project. Defaults to the current directory."`
	IncludeScripts bool   `json:"include_scripts,omitempty" jsonschema:"Include the full result of every script."`
	Verbose        bool   `json:"verbose,omitempty" jsonschema:"List per-file errors in markdown and text output."`
	Format         string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, markdown, or text."`
}

// GraphInput configures the dependency graph.
type GraphInput struct {
	Path           string `json:"path,omitempty" jsonschema:"Directory inside the project. Defaults to the current directory."`
	ClassNodes     bool   `json:"class_nodes,omitempty" jsonschema:"Keep engine and global classes as graph nodes."`
	IncludeMetrics bool   `json:"include_metrics,omitempty" jsonschema:"Include PageRank, degree and cycle metrics."`
	MaxNodes       int    `json:"max_nodes,omitempty" jsonschema:"Keep only the highest ranked nodes. 0 keeps all."`
	MaxEdges       int    `json:"max_edges,omitempty" jsonschema:"Keep at most this many edges. 0 keeps all."`
	Format         string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, markdown, or text."`
}

// ClassesInput selects a project directory.
type ClassesInput struct {
	Path   string `json:"path,omitempty" jsonschema:"Directory inside the project. Defaults to the current directory."`
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, markdown, or text."`
}

// Helper functions

func getPath(p string) string {
	if p == "" {
		return "."
	}
	return p
}

func getFormat(format string) output.Format {
	switch format {
	case "json", "markdown", "md", "text":
		return output.ParseFormat(format)
	default:
		return output.FormatTOON
	}
}

func flag(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := output.Render(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// Tool handlers

func (s *Server) handleAnalyzeScript(ctx context.Context, req *mcp.CallToolRequest, input ScriptInput) (*mcp.CallToolResult, any, error) {
	if input.Path == "" {
		return toolError("path is required")
	}
	svc := s.service()
	opts := svc.ScriptOptions()
	opts.IncludeDependencies = flag(input.IncludeDependencies, opts.IncludeDependencies)
	opts.IncludeMethods = flag(input.IncludeMethods, opts.IncludeMethods)
	opts.IncludeVariables = flag(input.IncludeVariables, opts.IncludeVariables)
	opts.CallRecords = input.IncludeCalls

	res := svc.AnalyzeScript(ctx, input.Path, opts)
	if res.Failed() {
		return toolError(res.Error)
	}
	return toolResult(output.ScriptReport(res), getFormat(input.Format))
}

func (s *Server) handleAnalyzeScene(ctx context.Context, req *mcp.CallToolRequest, input SceneInput) (*mcp.CallToolResult, any, error) {
	if input.Path == "" {
		return toolError("path is required")
	}
	if input.MaxDepth < 0 {
		return toolError("max_depth must not be negative")
	}
	svc := s.service()
	opts := svc.SceneOptions()
	opts.IncludeProperties = flag(input.IncludeProperties, opts.IncludeProperties)
	opts.IncludeConnections = flag(input.IncludeConnections, opts.IncludeConnections)
	opts.IncludeScriptInsights = flag(input.IncludeScriptInsights, opts.IncludeScriptInsights)
	opts.IncludeDependencies = flag(input.IncludeDependencies, opts.IncludeDependencies)
	if input.MaxDepth > 0 {
		opts.MaxDepth = input.MaxDepth
	}

	res := svc.AnalyzeScene(ctx, input.Path, opts)
	if res.Failed() {
		return toolError(res.Error)
	}
	return toolResult(output.SceneReport(res), getFormat(input.Format))
}

func (s *Server) handleAnalyzeProject(ctx context.Context, req *mcp.CallToolRequest, input ProjectInput) (*mcp.CallToolResult, any, error) {
	res, err := s.service().AnalyzeProject(ctx, getPath(input.Path), analysis.ProjectOptions{
		IncludeScripts: input.IncludeScripts,
	})
	if err != nil {
		return toolError(err.Error())
	}
	if res.ScriptCount+res.SceneCount == 0 {
		return toolError("no scripts or scenes found")
	}
	return toolResult(output.ProjectReport(res, input.Verbose), getFormat(input.Format))
}

func (s *Server) handleDependencyGraph(ctx context.Context, req *mcp.CallToolRequest, input GraphInput) (*mcp.CallToolResult, any, error) {
	g, metrics, err := s.service().DependencyGraph(ctx, getPath(input.Path), input.ClassNodes)
	if err != nil {
		return toolError(err.Error())
	}
	if input.MaxNodes > 0 || input.MaxEdges > 0 {
		maxNodes, maxEdges := input.MaxNodes, input.MaxEdges
		if maxNodes <= 0 {
			maxNodes = len(g.Nodes)
		}
		if maxEdges <= 0 {
			maxEdges = len(g.Edges)
		}
		g = graph.PruneGraph(g, maxNodes, maxEdges)
	}
	if !input.IncludeMetrics {
		metrics = nil
	}
	opts := graph.MermaidOptions{Direction: graph.DirectionLR}
	return toolResult(output.GraphReport(g, metrics, opts), getFormat(input.Format))
}

func (s *Server) handleListClasses(ctx context.Context, req *mcp.CallToolRequest, input ClassesInput) (*mcp.CallToolResult, any, error) {
	cl, err := s.service().ListClasses(getPath(input.Path))
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(output.ClassesReport(cl), getFormat(input.Format))
}
