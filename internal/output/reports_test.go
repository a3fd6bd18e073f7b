package output

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/gdlens/internal/service/analysis"
	"github.com/panbanda/gdlens/pkg/analyzer/graph"
	"github.com/panbanda/gdlens/pkg/models"
	"github.com/panbanda/gdlens/pkg/stats"
)

func renderText(t *testing.T, r Renderable) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, r.RenderText(&buf, false))
	return buf.String()
}

func renderMarkdown(t *testing.T, r Renderable) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, r.RenderMarkdown(&buf))
	return buf.String()
}

func playerResult() *models.ScriptResult {
	decl := models.NewScriptDeclaration()
	decl.ClassName = "Player"
	decl.Extends = "CharacterBody2D"
	decl.Signals = []models.SignalDecl{{Name: "hit", Parameters: []models.Parameter{{Name: "damage", Type: "int"}}, LineNumber: 4}}
	decl.Exports = []models.VariableDecl{{Name: "speed", Type: "float", DefaultValue: "200.0", IsExport: true, LineNumber: 6}}
	decl.Dependencies = []models.Dependency{{Target: "res://bullet.tscn", Kind: models.DepPreload, LineNumber: 8}}

	insights := models.NewBehavioralInsights()
	insights.AddPattern(models.PatternReadyInitialization)
	insights.AddLifecycleMethod("_ready")
	return &models.ScriptResult{
		ScriptPath: "res://player.gd",
		Structure:  decl,
		BehavioralAnalysis: &models.BehavioralAnalysis{
			MethodSummaries: []models.MethodSummary{
				{Name: "_on_hit", LineNumber: 20, InternalCalls: []string{"helper"}, SignalsEmitted: []string{"hit"}},
			},
			SceneInteractions: models.NewSceneInteractions(),
		},
		BehavioralContext: &models.BehavioralContext{BehavioralInsights: *insights, EventHandlers: []string{"_on_hit"}},
		BehavioralFlows: &models.BehavioralFlows{
			CallFlows:   []models.CallEdge{{From: "_on_hit", To: "helper"}},
			EntryPoints: []string{"_ready", "_on_hit"},
		},
	}
}

func TestScriptReport(t *testing.T) {
	r := ScriptReport(playerResult())
	assert.Equal(t, "Script: res://player.gd", r.Title)

	text := renderText(t, r)
	assert.Contains(t, text, "Class:   Player")
	assert.Contains(t, text, "Extends: CharacterBody2D")
	assert.Contains(t, text, "ready_initialization")
	assert.Contains(t, text, "Handlers:   _on_hit")
	assert.Contains(t, text, "res://bullet.tscn")
	assert.Contains(t, text, "_on_hit -> helper")
	assert.Contains(t, text, "Unused signals:       -")

	md := renderMarkdown(t, r)
	assert.Contains(t, md, "| hit | damage: int | 4 |")
	assert.Contains(t, md, "| speed | export | float | 200.0 | 6 |")
	assert.Contains(t, md, "| _on_hit | 20 | helper | - | 0 | hit |")
	assert.Contains(t, md, "| preload | res://bullet.tscn | 8 |")

	res := playerResult()
	assert.Same(t, res, ScriptReport(res).RenderData())
}

func TestScriptReport_Failed(t *testing.T) {
	res := models.FailedScript("res://broken.gd", models.NewAnalysisError(models.ErrEmpty, "res://broken.gd", nil))
	r := ScriptReport(res)
	require.Len(t, r.Sections, 1)
	assert.Contains(t, renderText(t, r), "file is empty")
}

func sceneResult() *models.SceneResult {
	root := &models.SceneNode{Name: "Main", Type: "Node2D", Path: models.RootPath}
	player := &models.SceneNode{Name: "Player", Type: "CharacterBody2D", Path: "Player", ParentPath: "."}
	sprite := &models.SceneNode{Name: "Sprite", Type: "Sprite2D", Path: "Player/Sprite", ParentPath: "Player"}
	bullet := &models.SceneNode{Name: "Bullet", Path: "Bullet", ParentPath: ".", Instance: "res://bullet.tscn"}
	player.Children = []*models.SceneNode{sprite}
	root.Children = []*models.SceneNode{player, bullet}

	mapping := []models.NodeScript{{NodePath: "Player", ScriptPath: "res://player.gd"}}
	insights := models.NewSceneInsights()
	insights.ScriptCount = 1
	insights.ConnectionFlows = []models.ConnectionFlow{
		{Signal: "hit", From: "Player", To: "Player", Method: "missing", TargetScript: "res://player.gd"},
	}
	return &models.SceneResult{
		ScenePath: "res://main.tscn",
		Structure: &models.SceneStructure{
			RootName:  "Main",
			RootType:  "Node2D",
			NodeCount: 4,
			Hierarchy: root,
		},
		ScriptInsights: map[string]*models.ScriptResult{
			"res://player.gd": playerResult(),
			"res://gone.gd":   models.FailedScript("res://gone.gd", errors.New("file not found")),
		},
		NodeScriptMapping: mapping,
		SceneInsights:     insights,
		UnresolvedScripts: []models.UnresolvedScript{{NodePath: "Inline", Reference: `SubResource("x")`, Reason: "built-in"}},
	}
}

func TestTree(t *testing.T) {
	res := sceneResult()
	got := Tree(res.Structure.Hierarchy, map[string]string{"Player": "res://player.gd"})
	want := "Main (Node2D)\n" +
		"├── Player (CharacterBody2D) [res://player.gd]\n" +
		"│   └── Sprite (Sprite2D)\n" +
		"└── Bullet (instance of res://bullet.tscn)\n"
	assert.Equal(t, want, got)
	assert.Empty(t, Tree(nil, nil))
}

func TestSceneReport(t *testing.T) {
	r := SceneReport(sceneResult())
	text := renderText(t, r)
	assert.Contains(t, text, "Root: Main (Node2D), 4 nodes")
	assert.Contains(t, text, "Scripts:         1 (0 failed)")
	assert.Contains(t, text, "res://gone.gd: file not found")

	md := renderMarkdown(t, r)
	assert.Contains(t, md, "```text\nRoot: Main")
	assert.Contains(t, md, "| Player | res://player.gd | low |")
	assert.Contains(t, md, "| Inline | SubResource(\"x\") | built-in |")
	assert.Contains(t, md, "| hit | Player | Player | missing | no |")
}

func TestSceneReport_Failed(t *testing.T) {
	r := SceneReport(&models.SceneResult{ScenePath: "res://x.tscn", Error: "invalid structure"})
	require.Len(t, r.Sections, 1)
	assert.Contains(t, renderText(t, r), "res://x.tscn: invalid structure")
}

func testGraph() (*graph.DependencyGraph, *graph.Metrics) {
	b := graph.New()
	b.AddScript("res://player.gd", "Player", []models.Dependency{{Target: "res://bullet.tscn", Kind: models.DepPreload}})
	b.AddScene("res://main.tscn", []models.NodeScript{{NodePath: "Player", ScriptPath: "res://player.gd"}}, nil)
	g := b.Build()
	return g, graph.CalculateMetrics(g)
}

func TestGraphReport(t *testing.T) {
	g, m := testGraph()
	r := GraphReport(g, m, graph.DefaultMermaidOptions())

	md := renderMarkdown(t, r)
	assert.Contains(t, md, "```mermaid\ngraph LR")
	assert.Contains(t, md, "Top nodes by PageRank:")

	data, ok := r.RenderData().(GraphData)
	require.True(t, ok)
	assert.Same(t, g, data.Graph)

	bare := GraphReport(g, nil, graph.DefaultMermaidOptions())
	assert.Len(t, bare.Sections, 1)
}

func TestProjectReport(t *testing.T) {
	g, m := testGraph()
	res := &analysis.ProjectResult{
		Root:        "/game",
		ClassSource: "scan",
		ScriptCount: 2,
		SceneCount:  1,
		Insights:    models.NewBehavioralInsights(),
		Stats: analysis.ScriptStats{
			Methods:   stats.Summarize([]float64{2, 3}),
			Signals:   stats.Summarize([]float64{1, 0}),
			Variables: stats.Summarize([]float64{0, 0}),
		},
		Scenes: []analysis.SceneSummary{
			{ScenePath: "res://main.tscn", RootType: "Node2D", NodeCount: 4, Instances: []string{"res://bullet.tscn"}},
		},
		Scripts: []*models.ScriptResult{playerResult()},
		Errors:  []analysis.FileError{{Path: "res://broken.gd", Error: "file is empty"}},
		Metrics: m,
		Graph:   g,
	}

	quiet := renderMarkdown(t, ProjectReport(res, false))
	assert.Contains(t, quiet, "Errors:  1")
	assert.Contains(t, quiet, "| res://main.tscn | Node2D | 4 | 0 | res://bullet.tscn |")
	assert.Contains(t, quiet, "| res://player.gd | Player | CharacterBody2D | 0 | 1 | low |")
	assert.NotContains(t, quiet, "file is empty")
	assert.Contains(t, quiet, "| Methods | 5 | 2.5 | 3 | 3 | 3 |")
	assert.Contains(t, quiet, "| Signals | 1 | 0.5 | 1 | 1 | 1 |")

	verbose := renderMarkdown(t, ProjectReport(res, true))
	assert.Contains(t, verbose, "| res://broken.gd | file is empty |")
}

func TestClassesReport(t *testing.T) {
	cl := &analysis.ClassList{
		Root:   "/game",
		Source: "class_cache",
		Classes: []analysis.ClassInfo{
			{Name: "Player", Path: "res://player.gd", Base: "CharacterBody2D", EngineBase: "CharacterBody2D"},
			{Name: "Events", Path: "res://events.gd", Autoload: true},
		},
	}
	table := ClassesReport(cl)
	assert.Equal(t, "Classes (class_cache)", table.Title)
	assert.Equal(t, []string{"Player", "class", "CharacterBody2D", "CharacterBody2D", "res://player.gd"}, table.Rows[0])
	assert.Equal(t, []string{"Events", "autoload", "-", "-", "res://events.gd"}, table.Rows[1])
	assert.Equal(t, "Classes: 1", table.Footer[0])
	assert.Same(t, cl, table.RenderData())

	empty := ClassesReport(&analysis.ClassList{Source: "scan"})
	assert.Contains(t, renderText(t, empty), "No global classes registered")
}
