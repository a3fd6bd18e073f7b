package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/gdlens/internal/cache"
	"github.com/panbanda/gdlens/internal/output"
	"github.com/panbanda/gdlens/pkg/config"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the script result cache",
		Subcommands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show cache entries and size",
				Action: runCacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Remove every cached result",
				Action: runCacheClear,
			},
		},
	}
}

// openCache opens the configured cache directory whether or not caching is
// enabled for analysis.
func openCache(cfg *config.Config) (*cache.Cache, error) {
	return cache.New(afero.NewOsFs(), cfg.Cache.Dir, cfg.Cache.TTL, true)
}

func runCacheStats(c *cli.Context) error {
	e, err := newEnv(c)
	if err != nil {
		return err
	}
	store, err := openCache(e.cfg)
	if err != nil {
		return err
	}
	stats, err := store.GetStats()
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	formatter, err := e.formatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	table := output.NewTable(
		"Cache: "+e.cfg.Cache.Dir,
		[]string{"Entries", "Size", "Oldest", "Newest"},
		[][]string{{
			fmt.Sprintf("%d", stats.Entries),
			formatSize(stats.TotalSize),
			stats.OldestAge.Truncate(time.Second).String(),
			stats.NewestAge.Truncate(time.Second).String(),
		}},
		nil,
		stats,
	)
	return formatter.Output(table)
}

func runCacheClear(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	store, err := openCache(cfg)
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	color.Green("Cache cleared")
	return nil
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
