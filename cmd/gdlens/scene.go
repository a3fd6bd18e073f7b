package main

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/gdlens/internal/fileproc"
	"github.com/panbanda/gdlens/internal/output"
	scannerSvc "github.com/panbanda/gdlens/internal/service/scanner"
	"github.com/panbanda/gdlens/pkg/models"
)

func sceneCmd() *cli.Command {
	return &cli.Command{
		Name:      "scene",
		Aliases:   []string{"tscn"},
		Usage:     "Analyze text scenes and their attached scripts",
		ArgsUsage: "[path...]",
		Description: `Reports each scene's node hierarchy, external and sub resources, signal
connections and node-to-script mapping, and analyzes every attached
script. Directories are scanned for .tscn files.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-properties",
				Usage: "Omit node property overrides",
			},
			&cli.BoolFlag{
				Name:  "no-connections",
				Usage: "Omit signal connections",
			},
			&cli.BoolFlag{
				Name:  "no-scripts",
				Usage: "Do not analyze attached scripts",
			},
			&cli.BoolFlag{
				Name:    "dependencies",
				Aliases: []string{"deps"},
				Usage:   "Resolve dependencies of the attached scripts",
			},
			&cli.IntFlag{
				Name:  "max-depth",
				Usage: "Maximum hierarchy depth below the root (0 = unlimited)",
			},
		},
		Action: runSceneCmd,
	}
}

func runSceneCmd(c *cli.Context) error {
	if c.Int("max-depth") < 0 {
		return fmt.Errorf("--max-depth must not be negative (got %d)", c.Int("max-depth"))
	}
	e, err := newEnv(c)
	if err != nil {
		return err
	}
	files, err := scannerSvc.New(scannerSvc.WithConfig(e.cfg)).ScanPaths(getPaths(c.Args().Slice()))
	if err != nil {
		return err
	}
	if len(files.Scenes) == 0 {
		color.Yellow("No scenes found")
		return nil
	}

	svc, err := e.service(c)
	if err != nil {
		return err
	}
	opts := svc.SceneOptions()
	if c.Bool("no-properties") {
		opts.IncludeProperties = false
	}
	if c.Bool("no-connections") {
		opts.IncludeConnections = false
	}
	if c.Bool("no-scripts") {
		opts.IncludeScriptInsights = false
	}
	if c.IsSet("dependencies") {
		opts.IncludeDependencies = c.Bool("dependencies")
	}
	if c.IsSet("max-depth") {
		opts.MaxDepth = c.Int("max-depth")
	}

	tracker := e.tracker("Analyzing scenes...", len(files.Scenes))
	results := fileproc.Process(c.Context, files.Scenes, fileproc.Options{
		Workers:    e.cfg.Analysis.WorkerCount(),
		OnProgress: tracker.Tick,
	}, func(ctx context.Context, path string) (*models.SceneResult, error) {
		return svc.AnalyzeScene(ctx, path, opts), nil
	})
	tracker.FinishSuccess()

	scenes := make([]*models.SceneResult, len(results))
	for i, r := range results {
		scenes[i] = r.Value
		if r.Err != nil {
			scenes[i] = &models.SceneResult{ScenePath: r.Path, Error: r.Err.Error()}
		}
	}

	formatter, err := e.formatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	failed := 0
	for _, s := range scenes {
		if s.Failed() {
			failed++
			if e.verbose {
				formatter.Warning("%s: %s", s.ScenePath, s.Error)
			}
			continue
		}
		if e.verbose {
			for _, path := range slices.Sorted(maps.Keys(s.ScriptInsights)) {
				if sr := s.ScriptInsights[path]; sr.Failed() {
					formatter.Warning("%s: %s: %s", s.ScenePath, path, sr.Error)
				}
			}
		}
	}

	var report output.Renderable
	if len(scenes) == 1 {
		report = output.SceneReport(scenes[0])
	} else {
		r := &output.Report{Data: scenes}
		for _, s := range scenes {
			r.Add(output.SceneReport(s))
		}
		report = r
	}
	if err := e.write(formatter, report); err != nil {
		return err
	}

	if failed == len(scenes) {
		return fmt.Errorf("no scene could be analyzed (%d failed)", failed)
	}
	return nil
}
