package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/gdlens/internal/fileproc"
	"github.com/panbanda/gdlens/internal/output"
	scannerSvc "github.com/panbanda/gdlens/internal/service/scanner"
	"github.com/panbanda/gdlens/pkg/models"
)

func scriptCmd() *cli.Command {
	return &cli.Command{
		Name:      "script",
		Aliases:   []string{"gd"},
		Usage:     "Analyze GDScript files",
		ArgsUsage: "[path...]",
		Description: `Reports each script's declaration (class name, base, signals, variables,
methods), the calls every method makes, its behavior patterns and its
internal call flows. Directories are scanned for .gd files.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "dependencies",
				Aliases: []string{"deps"},
				Usage:   "Resolve preload, load, extends and class references",
			},
			&cli.BoolFlag{
				Name:  "no-methods",
				Usage: "Omit method declarations",
			},
			&cli.BoolFlag{
				Name:  "no-variables",
				Usage: "Omit member variables and constants",
			},
			&cli.BoolFlag{
				Name:  "calls",
				Usage: "Keep every classified call on the method summaries",
			},
		},
		Action: runScriptCmd,
	}
}

func runScriptCmd(c *cli.Context) error {
	e, err := newEnv(c)
	if err != nil {
		return err
	}
	files, err := scannerSvc.New(scannerSvc.WithConfig(e.cfg)).ScanPaths(getPaths(c.Args().Slice()))
	if err != nil {
		return err
	}
	if len(files.Scripts) == 0 {
		color.Yellow("No scripts found")
		return nil
	}

	svc, err := e.service(c)
	if err != nil {
		return err
	}
	opts := svc.ScriptOptions()
	if c.IsSet("dependencies") {
		opts.IncludeDependencies = c.Bool("dependencies")
	}
	if c.Bool("no-methods") {
		opts.IncludeMethods = false
	}
	if c.Bool("no-variables") {
		opts.IncludeVariables = false
	}
	opts.CallRecords = c.Bool("calls")

	tracker := e.tracker("Analyzing scripts...", len(files.Scripts))
	results := fileproc.Process(c.Context, files.Scripts, fileproc.Options{
		Workers:    e.cfg.Analysis.WorkerCount(),
		OnProgress: tracker.Tick,
	}, func(ctx context.Context, path string) (*models.ScriptResult, error) {
		return svc.AnalyzeScript(ctx, path, opts), nil
	})
	tracker.FinishSuccess()

	scripts := make([]*models.ScriptResult, len(results))
	for i, r := range results {
		scripts[i] = r.Value
		if r.Err != nil {
			scripts[i] = models.FailedScript(r.Path, r.Err)
		}
	}

	formatter, err := e.formatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	failed := 0
	for _, s := range scripts {
		if s.Failed() {
			failed++
			if e.verbose {
				formatter.Warning("%s: %s", s.ScriptPath, s.Error)
			}
		}
	}

	var report output.Renderable
	if len(scripts) == 1 {
		report = output.ScriptReport(scripts[0])
	} else {
		r := &output.Report{Data: scripts}
		for _, s := range scripts {
			r.Add(output.ScriptReport(s))
		}
		report = r
	}
	if err := e.write(formatter, report); err != nil {
		return err
	}

	if failed == len(scripts) {
		return fmt.Errorf("no script could be analyzed (%d failed)", failed)
	}
	return nil
}
