package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/gdlens/internal/output"
	"github.com/panbanda/gdlens/internal/progress"
	"github.com/panbanda/gdlens/internal/scanner"
	"github.com/panbanda/gdlens/internal/service/analysis"
	"github.com/panbanda/gdlens/pkg/analyzer/graph"
)

func projectCmd() *cli.Command {
	return &cli.Command{
		Name:      "project",
		Aliases:   []string{"p"},
		Usage:     "Analyze every script and scene of a project",
		ArgsUsage: "[dir]",
		Description: `Scans the project containing dir, analyzes all scripts and scenes, and
summarizes patterns, signals, scenes and the dependency graph. Files that
fail are counted; --verbose lists them.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "scripts",
				Usage: "Include the full result of every script",
			},
			&cli.BoolFlag{
				Name:  "class-nodes",
				Usage: "Keep engine and global classes as graph nodes",
			},
		},
		Action: runProjectCmd,
	}
}

func runProjectCmd(c *cli.Context) error {
	e, err := newEnv(c)
	if err != nil {
		return err
	}
	svc, err := e.service(c)
	if err != nil {
		return err
	}

	spinner := progress.NewSpinner("Scanning project...")
	tracker := progress.Silent()
	res, err := svc.AnalyzeProject(c.Context, getDir(c), analysis.ProjectOptions{
		IncludeScripts: c.Bool("scripts"),
		ClassNodes:     c.Bool("class-nodes"),
		OnScan: func(files *scanner.Files) {
			spinner.FinishSuccess()
			tracker = e.tracker("Analyzing project...", files.Total())
		},
		OnProgress: func() { tracker.Tick() },
	})
	spinner.FinishSuccess()
	tracker.FinishSuccess()
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	if res.ScriptCount+res.SceneCount == 0 {
		color.Yellow("No scripts or scenes found")
		return nil
	}

	formatter, err := e.formatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if len(res.Errors) > 0 && !e.verbose {
		formatter.Warning("%d file(s) could not be analyzed; use --verbose to list them", len(res.Errors))
	}
	return e.write(formatter, output.ProjectReport(res, e.verbose))
}

func graphCmd() *cli.Command {
	defaults := graph.DefaultMermaidOptions()
	return &cli.Command{
		Name:      "graph",
		Aliases:   []string{"dag"},
		Usage:     "Generate the project dependency graph (Mermaid output)",
		ArgsUsage: "[dir]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "Include PageRank, degree and cycle metrics",
			},
			&cli.BoolFlag{
				Name:  "class-nodes",
				Usage: "Keep engine and global classes as graph nodes",
			},
			&cli.IntFlag{
				Name:  "max-nodes",
				Value: defaults.MaxNodes,
				Usage: "Keep only the highest ranked nodes (0 = all)",
			},
			&cli.IntFlag{
				Name:  "max-edges",
				Value: defaults.MaxEdges,
				Usage: "Keep at most this many edges (0 = all)",
			},
			&cli.StringFlag{
				Name:  "direction",
				Value: string(defaults.Direction),
				Usage: "Diagram direction: LR or TD",
			},
		},
		Action: runGraphCmd,
	}
}

func parseDirection(s string) (graph.MermaidDirection, error) {
	switch d := graph.MermaidDirection(strings.ToUpper(s)); d {
	case graph.DirectionLR, graph.DirectionTD:
		return d, nil
	default:
		return "", fmt.Errorf("--direction must be LR or TD (got %q)", s)
	}
}

func runGraphCmd(c *cli.Context) error {
	direction, err := parseDirection(c.String("direction"))
	if err != nil {
		return err
	}
	e, err := newEnv(c)
	if err != nil {
		return err
	}
	svc, err := e.service(c)
	if err != nil {
		return err
	}

	spinner := progress.NewSpinner("Building dependency graph...")
	g, metrics, err := svc.DependencyGraph(c.Context, getDir(c), c.Bool("class-nodes"))
	spinner.FinishSuccess()
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	if len(g.Nodes) == 0 {
		color.Yellow("No scripts or scenes found")
		return nil
	}

	maxNodes, maxEdges := c.Int("max-nodes"), c.Int("max-edges")
	if maxNodes <= 0 {
		maxNodes = len(g.Nodes)
	}
	if maxEdges <= 0 {
		maxEdges = len(g.Edges)
	}
	g = graph.PruneGraph(g, maxNodes, maxEdges)
	if !c.Bool("metrics") {
		metrics = nil
	}

	formatter, err := e.formatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	opts := graph.MermaidOptions{Direction: direction}
	return e.write(formatter, output.GraphReport(g, metrics, opts))
}

func classesCmd() *cli.Command {
	return &cli.Command{
		Name:      "classes",
		Usage:     "List the global classes and autoloads of a project",
		ArgsUsage: "[dir]",
		Action:    runClassesCmd,
	}
}

func runClassesCmd(c *cli.Context) error {
	e, err := newEnv(c)
	if err != nil {
		return err
	}
	svc, err := e.service(c)
	if err != nil {
		return err
	}
	cl, err := svc.ListClasses(getDir(c))
	if err != nil {
		return err
	}

	formatter, err := e.formatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()
	return e.write(formatter, output.ClassesReport(cl))
}
