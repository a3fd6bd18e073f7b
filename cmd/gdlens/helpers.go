package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/gdlens/internal/cache"
	"github.com/panbanda/gdlens/internal/output"
	"github.com/panbanda/gdlens/internal/progress"
	"github.com/panbanda/gdlens/internal/service/analysis"
	"github.com/panbanda/gdlens/pkg/config"
)

// getPaths returns paths from args, defaulting to ["."]
func getPaths(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}
	return args
}

// getDir returns the first positional argument, defaulting to ".".
func getDir(c *cli.Context) string {
	if c.Args().Len() > 0 {
		return c.Args().First()
	}
	return "."
}

// loadConfig loads --config, or searches the standard locations.
func loadConfig(c *cli.Context) (*config.Config, error) {
	result, err := config.LoadConfig(loadOptions(c)...)
	if err != nil {
		return nil, err
	}
	return result.Config, nil
}

// env is the configuration shared by the analysis commands, with the global
// flags applied over the config file.
type env struct {
	cfg     *config.Config
	format  output.Format
	verbose bool
	colored bool
}

func newEnv(c *cli.Context) (*env, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	format := c.String("format")
	if format == "" {
		format = cfg.Output.Format
	}
	return &env{
		cfg:     cfg,
		format:  output.ParseFormat(format),
		verbose: c.Bool("verbose") || cfg.Output.Verbose,
		colored: cfg.Output.Color && !c.Bool("no-color"),
	}, nil
}

// service creates an analysis service backed by the configured cache.
func (e *env) service(c *cli.Context, opts ...analysis.Option) (*analysis.Service, error) {
	cc := e.cfg.Cache
	store, err := cache.New(afero.NewOsFs(), cc.Dir, cc.TTL, cc.Enabled && !c.Bool("no-cache"))
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	opts = append([]analysis.Option{analysis.WithConfig(e.cfg), analysis.WithCache(store)}, opts...)
	return analysis.New(opts...), nil
}

func (e *env) formatter(c *cli.Context) (*output.Formatter, error) {
	return output.NewFormatter(e.format, c.String("output"), e.colored)
}

// tracker shows a progress bar when there is more than one file to process.
func (e *env) tracker(label string, total int) *progress.Tracker {
	if total < 2 {
		return progress.Silent()
	}
	return progress.NewTracker(label, total)
}

// write outputs r and, when verbose, reports its estimated token size.
func (e *env) write(f *output.Formatter, r output.Renderable) error {
	if err := f.Output(r); err != nil {
		return err
	}
	if path := f.Path(); path != "" {
		f.Success("Wrote %s", path)
	}
	if !e.verbose {
		return nil
	}
	text, err := output.Render(r, f.Format())
	if err != nil {
		return err
	}
	f.Info("Output size: %s", output.TokenBudget(text, 0))
	return nil
}
