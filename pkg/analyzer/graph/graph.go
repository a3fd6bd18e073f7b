// Package graph builds the project dependency graph from per-script
// dependencies and scene attachments, and ranks it with gonum.
package graph

import (
	"path"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/panbanda/gdlens/pkg/models"
	"github.com/panbanda/gdlens/pkg/parser"
	"github.com/panbanda/gdlens/pkg/registry"
	"github.com/panbanda/gdlens/pkg/source"
)

// ClassPrefix prefixes the ids of class nodes that have no script path.
const ClassPrefix = "class:"

type edgeKey struct {
	from, to string
	typ      EdgeType
}

// Builder accumulates dependencies into a DependencyGraph.
type Builder struct {
	registry    *registry.Registry
	withClasses bool
	nodes       map[string]Node
	edges       map[edgeKey]int
}

// Option is a functional option for configuring a Builder.
type Option func(*Builder)

// WithRegistry resolves class names to script paths through reg.
func WithRegistry(reg *registry.Registry) Option {
	return func(b *Builder) {
		b.registry = reg
	}
}

// WithClassNodes keeps dependencies on classes without a script path, such
// as engine base classes, as class nodes.
func WithClassNodes() Option {
	return func(b *Builder) {
		b.withClasses = true
	}
}

// New creates a new graph builder.
func New(opts ...Option) *Builder {
	b := &Builder{
		registry: registry.Empty(),
		nodes:    make(map[string]Node),
		edges:    make(map[edgeKey]int),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.registry == nil {
		b.registry = registry.Empty()
	}
	return b
}

// AddScript records the script at resPath and its dependency edges.
// className names the node when the script declares one.
func (b *Builder) AddScript(resPath, className string, deps []models.Dependency) {
	n := fileNode(resPath)
	if className != "" {
		n.Name = className
	}
	b.nodes[n.ID] = n

	for _, d := range deps {
		to, ok := b.target(resPath, d)
		if !ok {
			continue
		}
		b.link(n.ID, to, EdgeTypeOf(d.Kind))
	}
}

// AddScene records the scene at resPath with its attached scripts and
// instanced sub-scenes.
func (b *Builder) AddScene(resPath string, mapping []models.NodeScript, instances []string) {
	n := fileNode(resPath)
	b.nodes[n.ID] = n
	for _, m := range mapping {
		b.link(n.ID, b.fileTarget(m.ScriptPath), EdgeAttaches)
	}
	for _, inst := range instances {
		if source.IsResourcePath(inst) {
			b.link(n.ID, b.fileTarget(inst), EdgeInstances)
		}
	}
}

func (b *Builder) link(from string, to Node, typ EdgeType) {
	if from == to.ID {
		return
	}
	if _, ok := b.nodes[to.ID]; !ok {
		b.nodes[to.ID] = to
	}
	b.edges[edgeKey{from: from, to: to.ID, typ: typ}]++
}

func (b *Builder) fileTarget(p string) Node {
	if n, ok := b.nodes[p]; ok {
		return n
	}
	return fileNode(p)
}

// target resolves the node a dependency points at. Paths relative to the
// script are joined with its directory.
func (b *Builder) target(from string, d models.Dependency) (Node, bool) {
	switch {
	case d.ResolvedPath != "":
		return b.fileTarget(d.ResolvedPath), true
	case source.IsResourcePath(d.Target):
		return b.fileTarget(d.Target), true
	case path.Ext(d.Target) != "" || strings.Contains(d.Target, "/"):
		if strings.HasPrefix(from, source.ResScheme) {
			dir := path.Dir(strings.TrimPrefix(from, source.ResScheme))
			return b.fileTarget(source.ResScheme + path.Join(dir, d.Target)), true
		}
		return b.fileTarget(d.Target), true
	}
	if p, ok := b.registry.PathOf(d.Target); ok && p != "" {
		return b.fileTarget(p), true
	}
	if !b.withClasses {
		return Node{}, false
	}
	return Node{ID: ClassPrefix + d.Target, Name: d.Target, Type: NodeClass}, true
}

func fileNode(p string) Node {
	n := Node{ID: p, Name: path.Base(p), Type: NodeResource}
	switch parser.DetectKind(p) {
	case parser.KindScript:
		n.Type = NodeScript
	case parser.KindScene, parser.KindBinaryScene:
		n.Type = NodeScene
	}
	return n
}

// Build returns the accumulated graph with nodes and edges sorted.
func (b *Builder) Build() *DependencyGraph {
	g := NewDependencyGraph()
	for _, n := range b.nodes {
		g.Nodes = append(g.Nodes, n)
	}
	for k, w := range b.edges {
		g.Edges = append(g.Edges, Edge{From: k.from, To: k.to, Type: k.typ, Weight: w})
	}
	g.sort()
	return g
}

// gonumGraph holds the gonum representation and mappings.
type gonumGraph struct {
	directed   *simple.DirectedGraph
	undirected *simple.UndirectedGraph
	nodeIDToID map[string]int64
	idToNodeID map[int64]string
}

// toGonumGraph converts a DependencyGraph to gonum graph types. Parallel
// edges of different types collapse into one.
func toGonumGraph(graph *DependencyGraph) *gonumGraph {
	g := &gonumGraph{
		directed:   simple.NewDirectedGraph(),
		undirected: simple.NewUndirectedGraph(),
		nodeIDToID: make(map[string]int64, len(graph.Nodes)),
		idToNodeID: make(map[int64]string, len(graph.Nodes)),
	}
	for i, node := range graph.Nodes {
		id := int64(i)
		g.nodeIDToID[node.ID] = id
		g.idToNodeID[id] = node.ID
		g.directed.AddNode(simple.Node(id))
		g.undirected.AddNode(simple.Node(id))
	}
	for _, edge := range graph.Edges {
		fromID, fromOK := g.nodeIDToID[edge.From]
		toID, toOK := g.nodeIDToID[edge.To]
		if !fromOK || !toOK || fromID == toID {
			continue
		}
		g.directed.SetEdge(simple.Edge{F: simple.Node(fromID), T: simple.Node(toID)})
		if !g.undirected.HasEdgeBetween(fromID, toID) {
			g.undirected.SetEdge(simple.Edge{F: simple.Node(fromID), T: simple.Node(toID)})
		}
	}
	return g
}

// CalculateMetrics computes PageRank, degrees, components and cycles.
func CalculateMetrics(graph *DependencyGraph) *Metrics {
	metrics := &Metrics{
		NodeMetrics: make([]NodeMetric, 0, len(graph.Nodes)),
		Summary: Summary{
			TotalNodes: len(graph.Nodes),
			TotalEdges: len(graph.Edges),
		},
	}
	if len(graph.Nodes) == 0 {
		return metrics
	}

	gGraph := toGonumGraph(graph)
	pageRank := network.PageRank(gGraph.directed, 0.85, 1e-6)

	inDegree := make(map[string]int)
	outDegree := make(map[string]int)
	for _, edge := range graph.Edges {
		inDegree[edge.To]++
		outDegree[edge.From]++
	}

	totalDegree := 0
	for _, node := range graph.Nodes {
		metrics.NodeMetrics = append(metrics.NodeMetrics, NodeMetric{
			NodeID:    node.ID,
			Name:      node.Name,
			PageRank:  pageRank[gGraph.nodeIDToID[node.ID]],
			InDegree:  inDegree[node.ID],
			OutDegree: outDegree[node.ID],
		})
		totalDegree += inDegree[node.ID] + outDegree[node.ID]
	}
	sort.SliceStable(metrics.NodeMetrics, func(i, j int) bool {
		return metrics.NodeMetrics[i].PageRank > metrics.NodeMetrics[j].PageRank
	})

	n := len(graph.Nodes)
	metrics.Summary.AvgDegree = float64(totalDegree) / float64(n)
	if n > 1 {
		metrics.Summary.Density = float64(len(graph.Edges)) / float64(n*(n-1))
	}

	components := topo.ConnectedComponents(gGraph.undirected)
	metrics.Summary.Components = len(components)
	for _, comp := range components {
		if len(comp) > metrics.Summary.LargestComponent {
			metrics.Summary.LargestComponent = len(comp)
		}
	}

	cycles := detectCycles(gGraph)
	metrics.Summary.Cycles = cycles
	metrics.Summary.CycleCount = len(cycles)
	metrics.Summary.IsCyclic = len(cycles) > 0
	return metrics
}

// DetectCycles uses gonum's Tarjan SCC to find dependency cycles. Each
// cycle lists its node ids sorted; cycles are ordered by their first id.
func DetectCycles(graph *DependencyGraph) [][]string {
	if len(graph.Nodes) == 0 {
		return nil
	}
	return detectCycles(toGonumGraph(graph))
}

func detectCycles(g *gonumGraph) [][]string {
	var cycles [][]string
	for _, scc := range topo.TarjanSCC(g.directed) {
		if len(scc) < 2 {
			continue
		}
		ids := make([]string, 0, len(scc))
		for _, node := range scc {
			ids = append(ids, g.idToNodeID[node.ID()])
		}
		sort.Strings(ids)
		cycles = append(cycles, ids)
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}

// PruneGraph keeps the maxNodes highest ranked nodes and at most maxEdges
// of the edges between them.
func PruneGraph(graph *DependencyGraph, maxNodes, maxEdges int) *DependencyGraph {
	if len(graph.Nodes) <= maxNodes && len(graph.Edges) <= maxEdges {
		return graph
	}

	gGraph := toGonumGraph(graph)
	rank := network.PageRank(gGraph.directed, 0.85, 1e-6)

	ranked := make([]Node, len(graph.Nodes))
	copy(ranked, graph.Nodes)
	sort.SliceStable(ranked, func(i, j int) bool {
		return rank[gGraph.nodeIDToID[ranked[i].ID]] > rank[gGraph.nodeIDToID[ranked[j].ID]]
	})
	if len(ranked) > maxNodes {
		ranked = ranked[:maxNodes]
	}

	pruned := NewDependencyGraph()
	keep := make(map[string]bool, len(ranked))
	for _, node := range ranked {
		pruned.Nodes = append(pruned.Nodes, node)
		keep[node.ID] = true
	}
	for _, edge := range graph.Edges {
		if len(pruned.Edges) >= maxEdges {
			break
		}
		if keep[edge.From] && keep[edge.To] {
			pruned.Edges = append(pruned.Edges, edge)
		}
	}
	pruned.sort()
	return pruned
}
