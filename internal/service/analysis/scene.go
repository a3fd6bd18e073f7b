package analysis

import (
	"context"
	"errors"
	"strings"

	"github.com/panbanda/gdlens/internal/fileproc"
	"github.com/panbanda/gdlens/pkg/lex"
	"github.com/panbanda/gdlens/pkg/models"
	"github.com/panbanda/gdlens/pkg/parser"
	"github.com/panbanda/gdlens/pkg/registry"
	"github.com/panbanda/gdlens/pkg/source"
)

// Reasons a script reference is reported as unresolved.
const (
	ReasonSubResource     = "built-in sub_resource scripts are not supported"
	ReasonUnknownResource = "ext_resource id is not declared"
	ReasonNotResPath      = "script reference is not a res:// path"
)

// SceneOptions selects what AnalyzeScene reports.
type SceneOptions struct {
	IncludeProperties     bool
	IncludeConnections    bool
	IncludeScriptInsights bool
	// IncludeDependencies is passed on to the attached scripts.
	IncludeDependencies bool
	// MaxDepth bounds the reported hierarchy and the script search below
	// the root; 0 means unlimited.
	MaxDepth   int
	OnProgress func()
}

// SceneOptions returns the configured defaults.
func (s *Service) SceneOptions() SceneOptions {
	a := s.config.Analysis
	return SceneOptions{
		IncludeProperties:     a.IncludeProperties,
		IncludeConnections:    a.IncludeConnections,
		IncludeScriptInsights: a.IncludeScriptInsights,
		IncludeDependencies:   a.IncludeDependencies,
		MaxDepth:              a.MaxDepth,
	}
}

func failedScene(path string, err error) *models.SceneResult {
	return &models.SceneResult{ScenePath: path, Error: err.Error()}
}

// AnalyzeScene analyzes a scene and, when requested, every script attached
// to its nodes. A script that fails is reported in ScriptInsights with its
// error and does not fail the scene.
func (s *Service) AnalyzeScene(ctx context.Context, path string, opts SceneOptions) *models.SceneResult {
	t, err := s.locate(path)
	if err != nil {
		return failedScene(path, err)
	}
	content, err := s.src.Read(t.path)
	if err != nil {
		return failedScene(t.name, err)
	}
	reg, err := s.Registry(t.root)
	if err != nil {
		return failedScene(t.name, err)
	}
	return s.analyzeScene(ctx, t, content, reg, opts)
}

func (s *Service) analyzeScene(ctx context.Context, t target, content []byte, reg *registry.Registry, opts SceneOptions) *models.SceneResult {
	sf := parser.ParseScene(string(content), parser.SceneOptions{
		Properties:  opts.IncludeProperties,
		Connections: opts.IncludeConnections,
	})
	tree := parser.BuildHierarchy(sf.Nodes)
	if tree.Root == nil {
		return failedScene(t.name, models.NewAnalysisError(models.ErrInvalidStructure, t.name, errors.New("scene declares no root node")))
	}

	hierarchy := tree.Root
	if opts.MaxDepth > 0 {
		hierarchy = parser.TruncateDepth(tree.Root, opts.MaxDepth)
	}
	res := &models.SceneResult{
		ScenePath: t.name,
		Structure: &models.SceneStructure{
			RootName:         tree.Root.Name,
			RootType:         tree.Root.Type,
			NodeCount:        len(sf.Nodes),
			Hierarchy:        hierarchy,
			Connections:      sf.Connections,
			ExtResources:     sf.ExtResources,
			SubResourceCount: len(sf.SubResources),
		},
		NodeScriptMapping: make([]models.NodeScript, 0),
	}

	var unique []string
	seen := make(map[string]bool)
	visit := func(n *models.SceneNode, _ int) {
		prop, ok := n.Properties[parser.ScriptProperty]
		if !ok {
			return
		}
		scriptPath, reason := resolveScript(prop.Value, sf.ExtResources)
		if reason != "" {
			res.UnresolvedScripts = append(res.UnresolvedScripts, models.UnresolvedScript{
				NodePath:  n.Path,
				Reference: prop.Value,
				Reason:    reason,
			})
			return
		}
		res.NodeScriptMapping = append(res.NodeScriptMapping, models.NodeScript{NodePath: n.Path, ScriptPath: scriptPath})
		if !seen[scriptPath] {
			seen[scriptPath] = true
			unique = append(unique, scriptPath)
		}
	}
	tree.Root.Walk(opts.MaxDepth, visit)
	for _, orphan := range tree.Orphans {
		orphan.Walk(opts.MaxDepth, visit)
	}

	if !opts.IncludeScriptInsights {
		return res
	}

	so := ScriptOptions{
		IncludeDependencies: opts.IncludeDependencies,
		IncludeMethods:      true,
		IncludeVariables:    true,
	}
	results := fileproc.Process(ctx, unique, fileproc.Options{
		Workers:    s.config.Analysis.WorkerCount(),
		OnProgress: opts.OnProgress,
	}, func(ctx context.Context, resPath string) (*models.ScriptResult, error) {
		st, err := projectTarget(t.root, resPath)
		if err != nil {
			return models.FailedScript(resPath, err), nil
		}
		return s.analyzeScript(ctx, st, reg, so), nil
	})

	insights := models.NewSceneInsights()
	res.ScriptInsights = make(map[string]*models.ScriptResult, len(results))
	for _, r := range results {
		sr := r.Value
		if r.Err != nil {
			sr = models.FailedScript(r.Path, r.Err)
		}
		res.ScriptInsights[r.Path] = sr
		if sr.Failed() || sr.BehavioralContext == nil {
			insights.FailedScripts++
			continue
		}
		insights.Merge(&sr.BehavioralContext.BehavioralInsights)
	}
	insights.ScriptCount = len(unique)
	insights.UniqueScripts = append(insights.UniqueScripts, unique...)
	insights.NodeScriptMapping = res.NodeScriptMapping
	insights.ConnectionFlows = connectionFlows(sf.Connections, res.NodeScriptMapping, res.ScriptInsights)
	res.SceneInsights = insights
	return res
}

// resolveScript follows a node's script property to a res:// path. The
// second result is the reason when it cannot be followed.
func resolveScript(value string, ext models.ExtResourceMap) (string, string) {
	v := strings.TrimSpace(value)
	if _, ok := parser.SubResourceID(v); ok {
		return "", ReasonSubResource
	}
	if id, ok := parser.ExtResourceID(v); ok {
		p, ok := ext.PathOf(id)
		if !ok {
			return "", ReasonUnknownResource
		}
		v = p
	} else {
		v = lex.Unquote(v)
	}
	if !strings.HasPrefix(v, source.ResScheme) {
		return "", ReasonNotResPath
	}
	return v, ""
}

// connectionFlows joins each connection with the script attached to its
// target node.
func connectionFlows(conns []models.SceneConnection, mapping []models.NodeScript, scripts map[string]*models.ScriptResult) []models.ConnectionFlow {
	byNode := make(map[string]string, len(mapping))
	for _, m := range mapping {
		byNode[m.NodePath] = m.ScriptPath
	}
	flows := make([]models.ConnectionFlow, 0, len(conns))
	for _, c := range conns {
		f := models.ConnectionFlow{
			Signal:       c.Signal,
			From:         c.From,
			To:           c.To,
			Method:       c.Method,
			TargetScript: byNode[c.To],
		}
		if sr, ok := scripts[f.TargetScript]; ok && !sr.Failed() && sr.Structure != nil {
			f.HandlerFound = sr.Structure.HasMethod(c.Method)
		}
		flows = append(flows, f)
	}
	return flows
}

// instances returns the res:// paths of the sub-scenes instanced under
// root, in first-seen order.
func instances(root *models.SceneNode) []string {
	var out []string
	if root == nil {
		return out
	}
	root.Walk(0, func(n *models.SceneNode, _ int) {
		if strings.HasPrefix(n.Instance, source.ResScheme) {
			out = models.AppendUnique(out, n.Instance)
		}
	})
	return out
}
