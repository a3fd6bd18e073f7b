package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/gdlens/internal/mcpserver"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes gdlens analyses
as tools that LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "gdlens": {
        "command": "gdlens",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - analyze_script     Script structure, calls, patterns and flows
  - analyze_scene      Scene hierarchy, connections and attached scripts
  - analyze_project    Project-wide summary and dependency metrics
  - dependency_graph   Mermaid dependency graph
  - list_classes       Global classes and autoloads`,
		Action: runMCPCmd,
	}
}

func runMCPCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	return mcpserver.NewServer(version, cfg).Run(c.Context)
}

func manifestCmd() *cli.Command {
	return &cli.Command{
		Name:   "manifest",
		Usage:  "Print the MCP server manifest (server.json)",
		Action: runManifestCmd,
	}
}

func runManifestCmd(c *cli.Context) error {
	data, err := mcpserver.GenerateManifest(version)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(data))
	return err
}
