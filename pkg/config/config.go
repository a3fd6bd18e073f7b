// Package config loads gdlens settings from TOML, YAML or JSON files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	gotoml "github.com/pelletier/go-toml"

	"github.com/panbanda/gdlens/pkg/analyzer/behavior"
	"github.com/panbanda/gdlens/pkg/analyzer/deps"
	"github.com/panbanda/gdlens/pkg/source"
)

// Config holds all configuration options.
type Config struct {
	// Analysis settings
	Analysis AnalysisConfig `koanf:"analysis" json:"analysis" toml:"analysis"`

	// Call-like constructs scanned for dependencies
	Loaders []deps.Loader `koanf:"loaders" json:"loaders" toml:"loaders"`

	// Behavioral pattern settings
	Patterns PatternConfig `koanf:"patterns" json:"patterns" toml:"patterns"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" json:"exclude" toml:"exclude"`

	// Cache settings
	Cache CacheConfig `koanf:"cache" json:"cache" toml:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output" json:"output" toml:"output"`
}

// AnalysisConfig selects what the entry operations include by default.
type AnalysisConfig struct {
	IncludeProperties     bool `koanf:"include_properties" json:"include_properties" toml:"include_properties"`
	IncludeConnections    bool `koanf:"include_connections" json:"include_connections" toml:"include_connections"`
	IncludeScriptInsights bool `koanf:"include_script_insights" json:"include_script_insights" toml:"include_script_insights"`
	IncludeDependencies   bool `koanf:"include_dependencies" json:"include_dependencies" toml:"include_dependencies"`
	IncludeMethods        bool `koanf:"include_methods" json:"include_methods" toml:"include_methods"`
	IncludeVariables      bool `koanf:"include_variables" json:"include_variables" toml:"include_variables"`
	MaxDepth              int  `koanf:"max_depth" json:"max_depth" toml:"max_depth"` // 0 = unlimited
	Workers               int  `koanf:"workers" json:"workers" toml:"workers"`       // 0 = 2x NumCPU
	ProjectRootMaxDepth   int  `koanf:"project_root_max_depth" json:"project_root_max_depth" toml:"project_root_max_depth"`
}

// WorkerCount returns the configured worker count, defaulting to 2x NumCPU.
func (a AnalysisConfig) WorkerCount() int {
	if a.Workers > 0 {
		return a.Workers
	}
	return runtime.NumCPU() * 2
}

// PatternConfig tunes behavioral pattern detection.
type PatternConfig struct {
	EventHandlerPrefix string              `koanf:"event_handler_prefix" json:"event_handler_prefix" toml:"event_handler_prefix"`
	StateKeywords      []string            `koanf:"state_keywords" json:"state_keywords" toml:"state_keywords"`
	Complexity         behavior.Thresholds `koanf:"complexity" json:"complexity" toml:"complexity"`
}

// ExcludeConfig defines what project files are skipped.
type ExcludeConfig struct {
	Dirs      []string `koanf:"dirs" json:"dirs" toml:"dirs"`
	Patterns  []string `koanf:"patterns" json:"patterns" toml:"patterns"`
	Gitignore bool     `koanf:"gitignore" json:"gitignore" toml:"gitignore"`
	Gdignore  bool     `koanf:"gdignore" json:"gdignore" toml:"gdignore"`
}

// CacheConfig defines the per-script result cache.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" json:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" json:"dir" toml:"dir"`
	TTL     int    `koanf:"ttl" json:"ttl" toml:"ttl"` // TTL in hours
}

// OutputConfig defines output settings.
type OutputConfig struct {
	Format  string `koanf:"format" json:"format" toml:"format"` // text, json, markdown, toon
	Color   bool   `koanf:"color" json:"color" toml:"color"`
	Verbose bool   `koanf:"verbose" json:"verbose" toml:"verbose"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			IncludeProperties:     true,
			IncludeConnections:    true,
			IncludeScriptInsights: true,
			IncludeDependencies:   false,
			IncludeMethods:        true,
			IncludeVariables:      true,
			ProjectRootMaxDepth:   source.DefaultMaxDepth,
		},
		Loaders: deps.DefaultLoaders(),
		Patterns: PatternConfig{
			EventHandlerPrefix: behavior.DefaultEventHandlerPrefix,
			StateKeywords:      behavior.DefaultStateKeywords(),
			Complexity:         behavior.DefaultThresholds(),
		},
		Exclude: ExcludeConfig{
			Dirs:      []string{".godot", ".import", ".git"},
			Patterns:  []string{},
			Gitignore: true,
			Gdignore:  true,
		},
		Cache: CacheConfig{
			Enabled: false,
			Dir:     ".gdlens/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// Load loads configuration from a file over the defaults. The parser is
// chosen by extension; unknown extensions are read as TOML.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Lists in the file replace the defaults instead of merging by index.
	if k.Exists("loaders") {
		cfg.Loaders = nil
	}
	if k.Exists("patterns.state_keywords") {
		cfg.Patterns.StateKeywords = nil
	}
	if k.Exists("exclude.dirs") {
		cfg.Exclude.Dirs = nil
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Standard config file names, searched in order.
var configNames = []string{
	"gdlens.toml",
	"gdlens.yaml",
	"gdlens.yml",
	"gdlens.json",
	".gdlens.toml",
	".gdlens.yaml",
	".gdlens.yml",
	".gdlens.json",
}

// Find returns the first standard config file under dir or its .gdlens
// subdirectory.
func Find(dir string) (string, bool) {
	for _, sub := range []string{".", ".gdlens"} {
		for _, name := range configNames {
			path := filepath.Join(dir, sub, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, true
			}
		}
	}
	return "", false
}

// LoadResult is a loaded configuration and the file it came from. Source
// is empty when the defaults were used.
type LoadResult struct {
	Config *Config
	Source string
}

type loadOptions struct {
	path string
	dir  string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

// WithPath loads an explicit config file instead of searching.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// WithDir searches dir instead of the working directory.
func WithDir(dir string) LoadOption {
	return func(o *loadOptions) {
		o.dir = dir
	}
}

// LoadConfig loads and validates configuration. An explicit path must
// exist; otherwise the standard locations are searched and the defaults
// are used when nothing is found.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := loadOptions{dir: "."}
	for _, opt := range opts {
		opt(&o)
	}

	path := o.path
	if path == "" {
		found, ok := Find(o.dir)
		if !ok {
			return &LoadResult{Config: DefaultConfig()}, nil
		}
		path = found
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	return &LoadResult{Config: cfg, Source: path}, nil
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	res, err := LoadConfig()
	if err != nil {
		return DefaultConfig()
	}
	return res.Config
}

// Validate checks the configuration against the embedded schema and the
// constraints the schema cannot express.
func (c *Config) Validate() error {
	if err := validateSchema(c); err != nil {
		return err
	}
	t := c.Patterns.Complexity
	var errs []error
	if t.MediumMethods > t.HighMethods {
		errs = append(errs, fmt.Errorf("patterns.complexity: medium_methods (%d) exceeds high_methods (%d)", t.MediumMethods, t.HighMethods))
	}
	if t.MediumVariables > t.HighVariables {
		errs = append(errs, fmt.Errorf("patterns.complexity: medium_variables (%d) exceeds high_variables (%d)", t.MediumVariables, t.HighVariables))
	}
	return errors.Join(errs...)
}

// Render marshals c to TOML preceded by header, one comment line per
// header line.
func Render(c *Config, header ...string) (string, error) {
	content, err := gotoml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config to TOML: %w", err)
	}
	var buf strings.Builder
	for _, line := range header {
		buf.WriteString("# " + line + "\n")
	}
	if len(header) > 0 {
		buf.WriteString("\n")
	}
	buf.Write(content)
	return buf.String(), nil
}
