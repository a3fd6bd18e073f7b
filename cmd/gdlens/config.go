package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/gdlens/pkg/config"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the effective configuration",
				Description: `Shows the merged configuration from defaults and config file.

Examples:
  gdlens config show                # Show effective config
  gdlens -c gdlens.toml config show # Show config from specific file`,
				Action: runConfigShow,
			},
			{
				Name:      "init",
				Usage:     "Initialize a new gdlens configuration file",
				ArgsUsage: "[file]",
				Description: `Creates a gdlens.toml configuration file with the default settings.

Examples:
  gdlens config init                       # Creates gdlens.toml in current directory
  gdlens config init .gdlens/gdlens.toml   # Creates config in .gdlens directory
  gdlens config init --force               # Overwrite existing config file`,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite existing config file",
					},
				},
				Action: runConfigInit,
			},
			{
				Name:  "validate",
				Usage: "Validate a configuration file",
				Description: `Validates a gdlens configuration file for syntax errors and invalid values.

Examples:
  gdlens config validate                  # Validates default config locations
  gdlens -c gdlens.toml config validate   # Validates specific file`,
				Action: runConfigValidate,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON Schema configuration files are validated against",
				Action: runConfigSchema,
			},
		},
	}
}

func loadOptions(c *cli.Context) []config.LoadOption {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	return opts
}

func runConfigValidate(c *cli.Context) error {
	result, err := config.LoadConfig(loadOptions(c)...)
	if err != nil {
		color.Red("Configuration validation failed:")
		fmt.Printf("  - %s\n", err)
		return err
	}

	if result.Source != "" {
		color.Green("Configuration valid: %s", result.Source)
	} else {
		color.Yellow("No config file found. Default configuration is valid.")
	}
	return nil
}

func runConfigShow(c *cli.Context) error {
	result, err := config.LoadConfig(loadOptions(c)...)
	if err != nil {
		return err
	}

	header := "Default configuration (no config file found)"
	if result.Source != "" {
		header = "Configuration from: " + result.Source
	}
	content, err := config.Render(result.Config, header)
	if err != nil {
		return err
	}
	fmt.Fprint(c.App.Writer, content)
	return nil
}

func runConfigInit(c *cli.Context) error {
	outputPath := "gdlens.toml"
	if c.Args().Len() > 0 {
		outputPath = c.Args().First()
	}

	if _, err := os.Stat(outputPath); err == nil && !c.Bool("force") {
		return fmt.Errorf("config file %q already exists (use --force to overwrite)", outputPath)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}

	content, err := config.Render(config.DefaultConfig(),
		"gdlens configuration",
		"Documentation: https://github.com/panbanda/gdlens",
	)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	color.Green("Created %s", outputPath)
	fmt.Fprintln(c.App.Writer, "Edit this file to customize analysis settings.")
	return nil
}

func runConfigSchema(c *cli.Context) error {
	_, err := c.App.Writer.Write(config.Schema())
	return err
}
