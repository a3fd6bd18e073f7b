package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"    // set via ldflags at build time
	date    = "unknown" // set via ldflags at build time
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp().RunContext(ctx, os.Args)
	stop()
	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "gdlens",
		Usage:   "Static analysis for Godot GDScript scripts and scenes",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Description: `gdlens reads GDScript files and text scenes without running the engine.
It reports script structure, per-method call classification, signal usage,
scene hierarchies, node-to-script mappings and project dependency graphs.

Paths may be filesystem paths or res:// paths relative to the project root,
the nearest directory holding project.godot.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"GDLENS_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, markdown, toon (default from config, else text)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Disable the script result cache",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Report per-file errors and the token size of the output",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("no-color") {
				color.NoColor = true
			}
			return nil
		},
		Commands: []*cli.Command{
			scriptCmd(),
			sceneCmd(),
			projectCmd(),
			graphCmd(),
			classesCmd(),
			cacheCmd(),
			configCmd(),
			mcpCmd(),
			manifestCmd(),
		},
	}
}
