package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/gdlens/pkg/models"
	"github.com/panbanda/gdlens/pkg/registry"
)

func dep(kind models.DependencyKind, target string, line int) models.Dependency {
	return models.Dependency{Kind: kind, Target: target, LineNumber: line}
}

func sampleBuilder(opts ...Option) *Builder {
	reg := registry.New([]registry.GlobalClass{
		{Name: "Player", Path: "res://player.gd"},
		{Name: "Weapon", Path: "res://weapon.gd"},
	})
	b := New(append([]Option{WithRegistry(reg)}, opts...)...)

	b.AddScript("res://player.gd", "Player", []models.Dependency{
		dep(models.DepInheritance, "CharacterBody2D", 1),
		dep(models.DepPreload, "res://bullet.tscn", 3),
		dep(models.DepLoad, "res://bullet.tscn", 10),
		dep(models.DepLoad, "res://bullet.tscn", 12),
		{Kind: models.DepClassReference, Target: "Weapon", ResolvedPath: "res://weapon.gd", LineNumber: 14},
		dep(models.DepTypeHint, "Weapon", 5),
		dep(models.DepPreload, "res://player.gd", 6),
	})
	b.AddScript("res://weapon.gd", "Weapon", []models.Dependency{
		dep(models.DepClassReference, "Player", 8),
	})
	b.AddScript("res://enemies/enemy.gd", "", []models.Dependency{
		dep(models.DepPreload, "shared/ai.gd", 2),
		dep(models.DepLiteralResource, "uid://abc", 4),
	})
	b.AddScene("res://main.tscn",
		[]models.NodeScript{{NodePath: "Player", ScriptPath: "res://player.gd"}},
		[]string{"res://bullet.tscn", "ExtResource(\"9\")"},
	)
	return b
}

func TestBuilder(t *testing.T) {
	g := sampleBuilder().Build()

	ids := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{
		"res://bullet.tscn",
		"res://enemies/enemy.gd",
		"res://enemies/shared/ai.gd",
		"res://main.tscn",
		"res://player.gd",
		"res://weapon.gd",
		"uid://abc",
	}, ids)

	player, ok := g.Node("res://player.gd")
	require.True(t, ok)
	assert.Equal(t, "Player", player.Name)
	assert.Equal(t, NodeScript, player.Type)

	enemy, _ := g.Node("res://enemies/enemy.gd")
	assert.Equal(t, "enemy.gd", enemy.Name)
	bullet, _ := g.Node("res://bullet.tscn")
	assert.Equal(t, NodeScene, bullet.Type)
	uid, _ := g.Node("uid://abc")
	assert.Equal(t, NodeResource, uid.Type)

	assert.Equal(t, []Edge{
		{From: "res://player.gd", To: "res://bullet.tscn", Type: EdgeType(models.DepLoad), Weight: 2},
		{From: "res://player.gd", To: "res://bullet.tscn", Type: EdgeType(models.DepPreload), Weight: 1},
		{From: "res://player.gd", To: "res://weapon.gd", Type: EdgeType(models.DepClassReference), Weight: 1},
		{From: "res://player.gd", To: "res://weapon.gd", Type: EdgeType(models.DepTypeHint), Weight: 1},
	}, g.EdgesFrom("res://player.gd"))

	assert.Equal(t, []Edge{
		{From: "res://main.tscn", To: "res://bullet.tscn", Type: EdgeInstances, Weight: 1},
		{From: "res://main.tscn", To: "res://player.gd", Type: EdgeAttaches, Weight: 1},
	}, g.EdgesFrom("res://main.tscn"))

	assert.Len(t, g.Edges, 9)
}

func TestBuilder_ClassNodes(t *testing.T) {
	g := sampleBuilder(WithClassNodes()).Build()

	n, ok := g.Node(ClassPrefix + "CharacterBody2D")
	require.True(t, ok)
	assert.Equal(t, NodeClass, n.Type)
	assert.Contains(t, g.EdgesFrom("res://player.gd"), Edge{
		From: "res://player.gd", To: ClassPrefix + "CharacterBody2D", Type: EdgeType(models.DepInheritance), Weight: 1,
	})
}

func TestCalculateMetrics(t *testing.T) {
	g := sampleBuilder().Build()
	m := CalculateMetrics(g)

	assert.Equal(t, 7, m.Summary.TotalNodes)
	assert.Equal(t, 9, m.Summary.TotalEdges)
	assert.Equal(t, 2, m.Summary.Components)
	assert.Equal(t, 4, m.Summary.LargestComponent)
	assert.True(t, m.Summary.IsCyclic)
	assert.Equal(t, [][]string{{"res://player.gd", "res://weapon.gd"}}, m.Summary.Cycles)

	require.Len(t, m.NodeMetrics, 7)
	for i := 1; i < len(m.NodeMetrics); i++ {
		assert.GreaterOrEqual(t, m.NodeMetrics[i-1].PageRank, m.NodeMetrics[i].PageRank)
	}
	for _, nm := range m.NodeMetrics {
		if nm.NodeID == "res://player.gd" {
			assert.Equal(t, 4, nm.OutDegree)
			assert.Equal(t, 2, nm.InDegree)
		}
	}
}

func TestCalculateMetrics_Empty(t *testing.T) {
	m := CalculateMetrics(NewDependencyGraph())
	assert.Equal(t, 0, m.Summary.TotalNodes)
	assert.Empty(t, m.NodeMetrics)
	assert.Nil(t, DetectCycles(NewDependencyGraph()))
}

func TestPruneGraph(t *testing.T) {
	g := sampleBuilder().Build()

	assert.Same(t, g, PruneGraph(g, 100, 100))

	pruned := PruneGraph(g, 3, 2)
	assert.Len(t, pruned.Nodes, 3)
	assert.LessOrEqual(t, len(pruned.Edges), 2)
	keep := make(map[string]bool)
	for _, n := range pruned.Nodes {
		keep[n.ID] = true
	}
	for _, e := range pruned.Edges {
		assert.True(t, keep[e.From] && keep[e.To])
	}
}

func TestToMermaid(t *testing.T) {
	g := sampleBuilder().Build()
	out := g.ToMermaid()

	assert.True(t, strings.HasPrefix(out, "graph LR\n"))
	assert.Contains(t, out, `res___player_gd["Player"]`)
	assert.Contains(t, out, `res___main_tscn[["main.tscn"]]`)
	assert.Contains(t, out, "res___main_tscn ==>|script| res___player_gd")
	assert.NotContains(t, out, "CharacterBody2D")

	limited := g.ToMermaidWithOptions(MermaidOptions{MaxNodes: 1, Direction: DirectionTD})
	assert.Equal(t, 2, strings.Count(limited, "\n"))
}

func TestMermaidHelpers(t *testing.T) {
	assert.Equal(t, "empty", SanitizeMermaidID(""))
	assert.Equal(t, "n1abc", SanitizeMermaidID("1abc"))
	assert.Equal(t, "&quot;a&quot; &lt;b&gt;", EscapeMermaidLabel(`"a" <b>`))
}
