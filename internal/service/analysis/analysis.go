// Package analysis runs the entry operations over scripts, scenes and whole
// projects, wiring the parsers, the class registry and the analyzers
// together.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/panbanda/gdlens/internal/cache"
	"github.com/panbanda/gdlens/pkg/analyzer/behavior"
	"github.com/panbanda/gdlens/pkg/analyzer/calls"
	"github.com/panbanda/gdlens/pkg/analyzer/deps"
	"github.com/panbanda/gdlens/pkg/config"
	"github.com/panbanda/gdlens/pkg/models"
	"github.com/panbanda/gdlens/pkg/parser"
	"github.com/panbanda/gdlens/pkg/registry"
	"github.com/panbanda/gdlens/pkg/source"
)

// Service orchestrates analysis operations.
type Service struct {
	config   *config.Config
	fs       afero.Fs
	src      *source.FS
	cache    *cache.Cache
	root     string
	fixed    *registry.Registry
	analyzer *behavior.Analyzer
	// settings fingerprints the configuration that shapes script results.
	settings string

	mu         sync.Mutex
	registries map[string]*registry.Registry
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithFs reads files through fs instead of the operating system.
func WithFs(fs afero.Fs) Option {
	return func(s *Service) {
		s.fs = fs
	}
}

// WithCache stores script results in c.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithRoot sets the project root used for res:// inputs. Without it the
// root is searched from the working directory.
func WithRoot(root string) Option {
	return func(s *Service) {
		s.root = root
	}
}

// WithRegistry uses reg for every project instead of loading one per root.
func WithRegistry(reg *registry.Registry) Option {
	return func(s *Service) {
		s.fixed = reg
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{
		config:     config.LoadOrDefault(),
		fs:         afero.NewOsFs(),
		registries: make(map[string]*registry.Registry),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.src = source.NewFS(s.fs)
	if s.cache == nil {
		s.cache, _ = cache.New(s.fs, "", 0, false)
	}
	p := s.config.Patterns
	s.analyzer = behavior.New(
		behavior.WithEventHandlerPrefix(p.EventHandlerPrefix),
		behavior.WithStateKeywords(p.StateKeywords...),
		behavior.WithThresholds(p.Complexity),
	)
	s.settings = cache.Fingerprint(fmt.Appendf(nil, "%v|%v", s.config.Loaders, p))
	return s
}

// Config returns the service configuration.
func (s *Service) Config() *config.Config {
	return s.config
}

// Registry returns the class registry snapshot of the project at root,
// loading it on first use. Snapshots are never invalidated.
func (s *Service) Registry(root string) (*registry.Registry, error) {
	if s.fixed != nil {
		return s.fixed, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if reg, ok := s.registries[root]; ok {
		return reg, nil
	}
	reg := registry.Empty()
	if root != "" {
		loaded, err := registry.Load(s.fs, root)
		if err != nil {
			return nil, fmt.Errorf("loading classes of %s: %w", root, err)
		}
		reg = loaded
	}
	s.registries[root] = reg
	return reg, nil
}

// target is an input file located on disk.
type target struct {
	path string // filesystem path
	root string // project root, empty outside a project
	name string // reported path, res:// inside a project
}

// ProjectRoot returns the project root containing path.
func (s *Service) ProjectRoot(path string) (string, bool) {
	return source.FindProjectRoot(s.fs, path, s.config.Analysis.ProjectRootMaxDepth)
}

func (s *Service) locate(p string) (target, error) {
	switch {
	case strings.HasPrefix(p, source.ResScheme):
		root := s.root
		if root == "" {
			wd, err := os.Getwd()
			if err != nil {
				return target{}, err
			}
			found, ok := s.ProjectRoot(wd)
			if !ok {
				return target{}, models.NewAnalysisError(models.ErrNotFound, p, errors.New("no project root to resolve against"))
			}
			root = found
		}
		fsPath, _ := source.Resolve(root, p)
		return target{path: fsPath, root: root, name: p}, nil
	case source.IsResourcePath(p):
		return target{}, models.NewAnalysisError(models.ErrNotFound, p, errors.New("path cannot be resolved statically"))
	}

	abs := filepath.Clean(p)
	if !filepath.IsAbs(abs) {
		var err error
		if abs, err = filepath.Abs(p); err != nil {
			return target{}, err
		}
	}
	root, ok := s.ProjectRoot(abs)
	if !ok {
		return target{path: abs, name: p}, nil
	}
	return target{path: abs, root: root, name: source.ToResPath(root, abs)}, nil
}

// projectTarget locates a res:// path inside a known project root.
func projectTarget(root, resPath string) (target, error) {
	if root == "" {
		return target{}, models.NewAnalysisError(models.ErrNotFound, resPath, errors.New("no project root to resolve against"))
	}
	fsPath, _ := source.Resolve(root, resPath)
	return target{path: fsPath, root: root, name: resPath}, nil
}

// ScriptOptions selects what AnalyzeScript reports.
type ScriptOptions struct {
	IncludeDependencies bool
	IncludeMethods      bool
	IncludeVariables    bool
	// CallRecords keeps every classified call on the method summaries.
	CallRecords bool
}

// ScriptOptions returns the configured defaults.
func (s *Service) ScriptOptions() ScriptOptions {
	a := s.config.Analysis
	return ScriptOptions{
		IncludeDependencies: a.IncludeDependencies,
		IncludeMethods:      a.IncludeMethods,
		IncludeVariables:    a.IncludeVariables,
	}
}

func (o ScriptOptions) key() string {
	return fmt.Sprintf("deps=%t,methods=%t,vars=%t,calls=%t", o.IncludeDependencies, o.IncludeMethods, o.IncludeVariables, o.CallRecords)
}

// AnalyzeScript analyzes one script. Failures are reported on the result,
// never as a Go error.
func (s *Service) AnalyzeScript(ctx context.Context, path string, opts ScriptOptions) *models.ScriptResult {
	t, err := s.locate(path)
	if err != nil {
		return models.FailedScript(path, err)
	}
	reg, err := s.Registry(t.root)
	if err != nil {
		return models.FailedScript(t.name, err)
	}
	return s.analyzeScript(ctx, t, reg, opts)
}

func (s *Service) analyzeScript(ctx context.Context, t target, reg *registry.Registry, opts ScriptOptions) *models.ScriptResult {
	if err := ctx.Err(); err != nil {
		return models.FailedScript(t.name, err)
	}
	content, err := s.src.Read(t.path)
	if err != nil {
		return models.FailedScript(t.name, err)
	}

	// Results also depend on the project classes and the configured
	// loaders and patterns, so those are part of the key.
	key := cache.Key(t.path, opts.key(), reg.Fingerprint(), s.settings)
	hash := cache.HashBytes(content)
	if res, ok := s.cache.GetScript(key, hash); ok {
		return res
	}
	res := s.analyzeContent(t.name, content, reg, opts)
	_ = s.cache.SetScript(key, hash, res)
	return res
}

// analyzeContent runs the script pipeline over content. The whole script
// is always analyzed; the options only trim what the structure reports.
func (s *Service) analyzeContent(name string, content []byte, reg *registry.Registry, opts ScriptOptions) *models.ScriptResult {
	ps := parser.ParseScript(string(content), parser.DefaultScriptOptions())
	if ps == nil || ps.Decl == nil {
		return models.FailedScript(name, models.NewAnalysisError(models.ErrInvalidStructure, name, nil))
	}
	decl := ps.Decl
	if opts.IncludeDependencies {
		decl.Dependencies = deps.New(reg, deps.WithLoaders(s.config.Loaders)).Resolve(ps)
	}

	a := s.analyzer
	ins := a.Insights(decl)
	summaries := calls.Summarize(ps, reg, opts.CallRecords)
	res := &models.ScriptResult{
		ScriptPath:         name,
		Structure:          decl,
		BehavioralAnalysis: a.Analysis(decl, ins, summaries, a.Interactions(ps)),
		BehavioralContext:  a.Context(decl, ins),
		BehavioralFlows:    a.Flows(decl, summaries),
		Fingerprint:        cache.Fingerprint(content),
	}

	if !opts.IncludeMethods {
		decl.Methods = make([]models.MethodDecl, 0)
		res.BehavioralAnalysis.MethodSummaries = make([]models.MethodSummary, 0)
	}
	if !opts.IncludeVariables {
		decl.Variables = make([]models.VariableDecl, 0)
	}
	return res
}
