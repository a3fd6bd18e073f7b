package analysis

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/panbanda/gdlens/internal/fileproc"
	"github.com/panbanda/gdlens/internal/scanner"
	"github.com/panbanda/gdlens/pkg/analyzer/graph"
	"github.com/panbanda/gdlens/pkg/models"
	"github.com/panbanda/gdlens/pkg/source"
	"github.com/panbanda/gdlens/pkg/stats"
)

// ProjectOptions configures AnalyzeProject.
type ProjectOptions struct {
	// IncludeScripts keeps every script result on the project result.
	IncludeScripts bool
	// ClassNodes keeps dependencies on engine classes as graph nodes.
	ClassNodes bool
	// OnScan is called once the files to analyze are known.
	OnScan     func(files *scanner.Files)
	OnProgress func()
}

// FileError is a file that could not be analyzed.
type FileError struct {
	Path  string `json:"path" toon:"path"`
	Error string `json:"error" toon:"error"`
}

// SceneSummary is the structural outline of one scene of a project.
type SceneSummary struct {
	ScenePath string              `json:"scene_path" toon:"scene_path"`
	RootType  string              `json:"root_type,omitempty" toon:"root_type,omitempty"`
	NodeCount int                 `json:"node_count" toon:"node_count"`
	Scripts   []models.NodeScript `json:"scripts" toon:"scripts"`
	Instances []string            `json:"instances,omitempty" toon:"instances,omitempty"`
}

// ScriptStats summarizes script sizes across a project.
type ScriptStats struct {
	Methods   stats.Summary `json:"methods" toon:"methods"`
	Signals   stats.Summary `json:"signals" toon:"signals"`
	Variables stats.Summary `json:"variables" toon:"variables"`
}

// ProjectResult is the outcome of analyzing every script and scene of a
// project.
type ProjectResult struct {
	Root        string                     `json:"root" toon:"root"`
	ClassSource string                     `json:"class_source,omitempty" toon:"class_source,omitempty"`
	ScriptCount int                        `json:"script_count" toon:"script_count"`
	SceneCount  int                        `json:"scene_count" toon:"scene_count"`
	Skipped     []string                   `json:"skipped,omitempty" toon:"skipped,omitempty"`
	Insights    *models.BehavioralInsights `json:"insights" toon:"insights"`
	Stats       ScriptStats                `json:"stats" toon:"stats"`
	Scenes      []SceneSummary             `json:"scenes" toon:"scenes"`
	Scripts     []*models.ScriptResult     `json:"scripts,omitempty" toon:"scripts,omitempty"`
	Errors      []FileError                `json:"errors,omitempty" toon:"errors,omitempty"`
	Metrics     *graph.Metrics             `json:"metrics" toon:"metrics"`
	Graph       *graph.DependencyGraph     `json:"-" toon:"-"`
}

// projectAcc accumulates script results in scan order.
type projectAcc struct {
	res     *ProjectResult
	builder *graph.Builder
	keep    bool

	methods, signals, variables []int
}

// AnalyzeProject discovers and analyzes every script and scene under the
// project containing dir, then builds the dependency graph. Individual
// file failures are listed on the result; only a failed scan or registry
// load is returned as an error.
func (s *Service) AnalyzeProject(ctx context.Context, dir string, opts ProjectOptions) (*ProjectResult, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	root := abs
	if found, ok := s.ProjectRoot(abs); ok {
		root = found
	}

	files, err := scanner.NewScanner(s.config).ScanDir(root)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	if opts.OnScan != nil {
		opts.OnScan(files)
	}
	reg, err := s.Registry(root)
	if err != nil {
		return nil, err
	}

	var builderOpts []graph.Option
	builderOpts = append(builderOpts, graph.WithRegistry(reg))
	if opts.ClassNodes {
		builderOpts = append(builderOpts, graph.WithClassNodes())
	}
	acc := &projectAcc{
		res: &ProjectResult{
			Root:        root,
			ClassSource: reg.Source(),
			ScriptCount: len(files.Scripts),
			SceneCount:  len(files.Scenes),
			Insights:    models.NewBehavioralInsights(),
			Scenes:      make([]SceneSummary, 0, len(files.Scenes)),
		},
		builder: graph.New(builderOpts...),
		keep:    opts.IncludeScripts,
	}
	for _, p := range files.Skipped {
		acc.res.Skipped = append(acc.res.Skipped, source.ToResPath(root, p))
	}

	po := fileproc.Options{
		Workers:    s.config.Analysis.WorkerCount(),
		OnProgress: opts.OnProgress,
	}
	so := ScriptOptions{IncludeDependencies: true, IncludeMethods: true, IncludeVariables: true}

	acc, scriptErrs := fileproc.Fold(ctx, files.Scripts, po, acc,
		func(ctx context.Context, path string) (*models.ScriptResult, error) {
			r := s.analyzeScript(ctx, target{path: path, root: root, name: source.ToResPath(root, path)}, reg, so)
			if r.Failed() {
				return nil, errors.New(r.Error)
			}
			return r, nil
		},
		func(acc *projectAcc, _ string, r *models.ScriptResult) *projectAcc {
			acc.builder.AddScript(r.ScriptPath, r.Structure.ClassName, r.Structure.Dependencies)
			acc.res.Insights.Merge(&r.BehavioralContext.BehavioralInsights)
			acc.methods = append(acc.methods, len(r.Structure.Methods))
			acc.signals = append(acc.signals, len(r.Structure.Signals))
			acc.variables = append(acc.variables, len(r.Structure.AllVariables()))
			if acc.keep {
				acc.res.Scripts = append(acc.res.Scripts, r)
			}
			return acc
		},
	)

	sceneOpts := SceneOptions{IncludeConnections: true}
	scenes, sceneErrs := fileproc.MapSource(ctx, files.Scenes, s.src, po,
		func(ctx context.Context, path string, content []byte) (*models.SceneResult, error) {
			r := s.analyzeScene(ctx, target{path: path, root: root, name: source.ToResPath(root, path)}, content, reg, sceneOpts)
			if r.Failed() {
				return nil, errors.New(r.Error)
			}
			return r, nil
		})
	for _, sr := range scenes {
		inst := instances(sr.Structure.Hierarchy)
		acc.builder.AddScene(sr.ScenePath, sr.NodeScriptMapping, inst)
		acc.res.Scenes = append(acc.res.Scenes, SceneSummary{
			ScenePath: sr.ScenePath,
			RootType:  sr.Structure.RootType,
			NodeCount: sr.Structure.NodeCount,
			Scripts:   sr.NodeScriptMapping,
			Instances: inst,
		})
	}

	acc.res.Stats = ScriptStats{
		Methods:   stats.Summarize(stats.Ints(acc.methods)),
		Signals:   stats.Summarize(stats.Ints(acc.signals)),
		Variables: stats.Summarize(stats.Ints(acc.variables)),
	}
	acc.res.Errors = fileErrors(root, scriptErrs, sceneErrs)
	acc.res.Graph = acc.builder.Build()
	acc.res.Metrics = graph.CalculateMetrics(acc.res.Graph)
	return acc.res, nil
}

func fileErrors(root string, sets ...*fileproc.ProcessingErrors) []FileError {
	var out []FileError
	for _, set := range sets {
		if !set.HasErrors() {
			continue
		}
		for _, e := range set.Errors {
			out = append(out, FileError{Path: source.ToResPath(root, e.Path), Error: e.Err.Error()})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// DependencyGraph analyzes the project containing dir and returns its
// dependency graph with metrics.
func (s *Service) DependencyGraph(ctx context.Context, dir string, classNodes bool) (*graph.DependencyGraph, *graph.Metrics, error) {
	res, err := s.AnalyzeProject(ctx, dir, ProjectOptions{ClassNodes: classNodes})
	if err != nil {
		return nil, nil, err
	}
	return res.Graph, res.Metrics, nil
}

// ClassList is the registry content of a project.
type ClassList struct {
	Root    string      `json:"root" toon:"root"`
	Source  string      `json:"source" toon:"source"`
	Classes []ClassInfo `json:"classes" toon:"classes"`
}

// ClassInfo is one global class or autoload. EngineBase is the engine class
// its inheritance chain ends in, when the chain resolves.
type ClassInfo struct {
	Name       string `json:"name" toon:"name"`
	Path       string `json:"path" toon:"path"`
	Base       string `json:"base,omitempty" toon:"base,omitempty"`
	EngineBase string `json:"engine_base,omitempty" toon:"engine_base,omitempty"`
	Autoload   bool   `json:"autoload,omitempty" toon:"autoload,omitempty"`
}

// ListClasses returns the user classes and autoloads of the project
// containing dir.
func (s *Service) ListClasses(dir string) (*ClassList, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	root, ok := s.ProjectRoot(abs)
	if !ok {
		return nil, models.NewAnalysisError(models.ErrNotFound, abs, fmt.Errorf("no %s found", source.ProjectMarker))
	}
	reg, err := s.Registry(root)
	if err != nil {
		return nil, err
	}
	user := reg.UserClasses()
	classes := make([]ClassInfo, 0, len(user))
	for _, c := range user {
		info := ClassInfo{Name: c.Name, Path: c.Path, Base: c.Base, Autoload: c.Autoload}
		if c.Base != "" {
			info.EngineBase, _ = reg.EngineBase(c.Base)
		}
		classes = append(classes, info)
	}
	return &ClassList{Root: root, Source: reg.Source(), Classes: classes}, nil
}
