package layout

import (
	"cmp"
	"slices"

	"github.com/superrelativity/relgraph/pkg/digraph"
	"github.com/superrelativity/relgraph/pkg/entity"
	"github.com/superrelativity/relgraph/pkg/graph"
)

// DefaultFallbackRoots is the number of nodes used as roots when every node
// has an incoming edge.
const DefaultFallbackRoots = 3

// Levels is the output of AssignLevels.
type Levels struct {
	// Level maps node id to its level. Unreached nodes are at 0.
	Level map[string]int
	// Reverse marks nodes placed past their targets.
	Reverse map[string]bool
	// Roots lists the BFS start nodes in input order.
	Roots []string
	// Dangling lists edges with a missing endpoint. They are ignored.
	Dangling []graph.Edge
	// Cyclic reports whether the graph contains a directed cycle.
	Cyclic bool
	// Graph is the adjacency the levels were computed on.
	Graph *digraph.Graph
}

// MaxLevel returns the deepest assigned level.
func (l Levels) MaxLevel() int {
	m := 0
	for _, lv := range l.Level {
		m = max(m, lv)
	}
	return m
}

// AssignLevels levels nodes using DefaultFallbackRoots.
func AssignLevels(nodes []graph.Node, edges []graph.Edge) Levels {
	return AssignLevelsWith(nodes, edges, DefaultFallbackRoots)
}

// AssignLevelsWith levels nodes, using the top fallbackRoots nodes by
// outdegree as roots when no node is free of incoming edges. Duplicate node
// ids keep their first occurrence.
func AssignLevelsWith(nodes []graph.Node, edges []graph.Edge, fallbackRoots int) Levels {
	if fallbackRoots <= 0 {
		fallbackRoots = DefaultFallbackRoots
	}
	g, dangling := graph.Graph{Nodes: nodes, Edges: edges}.ToDigraph()
	lv := Levels{
		Level:    make(map[string]int, g.NodeCount()),
		Reverse:  make(map[string]bool),
		Dangling: dangling,
		Cyclic:   g.HasCycle(),
		Graph:    g,
	}
	for _, id := range g.NodeIDs() {
		lv.Level[id] = 0
	}

	primary, deferred := selectRoots(g, fallbackRoots)
	visited := make(map[string]bool, g.NodeCount())
	bfs(g, primary, 0, lv, visited)
	lv.Roots = append(lv.Roots, primary...)

	var reverse []string
	for _, n := range g.Nodes() {
		if visited[n.ID] || slices.Contains(primary, n.ID) || !isBusinessFunction(n) {
			continue
		}
		best, hit := 0, false
		for _, t := range g.Children(n.ID) {
			if visited[t] {
				best, hit = max(best, lv.Level[t]), true
			}
		}
		if hit {
			lv.Level[n.ID] = best + 1
			lv.Reverse[n.ID] = true
			reverse = append(reverse, n.ID)
		}
	}

	// Targets reached only through a reverse node continue after it.
	for _, id := range reverse {
		var next []string
		for _, t := range g.Children(id) {
			if !visited[t] && !lv.Reverse[t] {
				next = append(next, t)
			}
		}
		bfs(g, next, lv.Level[id]+1, lv, visited)
	}

	var late []string
	for _, id := range deferred {
		if !lv.Reverse[id] && !visited[id] {
			late = append(late, id)
		}
	}
	if len(late) > 0 {
		bfs(g, late, 0, lv, visited)
		lv.Roots = append(lv.Roots, late...)
		slices.SortStableFunc(lv.Roots, func(a, b string) int { return cmp.Compare(g.Index(a), g.Index(b)) })
	}
	return lv
}

// selectRoots returns the roots to start from and the business-function
// roots held back for reverse detection.
func selectRoots(g *digraph.Graph, fallback int) (primary, deferred []string) {
	sources := g.Sources()
	if len(sources) == 0 {
		nodes := g.Nodes()
		slices.SortStableFunc(nodes, func(a, b *digraph.Node) int {
			return cmp.Compare(g.OutDegree(b.ID), g.OutDegree(a.ID))
		})
		return digraph.NodeIDs(nodes[:min(fallback, len(nodes))]), nil
	}

	for _, n := range sources {
		if isBusinessFunction(n) {
			deferred = append(deferred, n.ID)
		} else {
			primary = append(primary, n.ID)
		}
	}
	if len(primary) == 0 {
		primary, deferred = deferred[:1], deferred[1:]
	}
	return primary, deferred
}

// bfs levels everything reachable from roots, which sit at start. A node
// keeps the level of the path that reaches it first. Reverse nodes are
// skipped.
func bfs(g *digraph.Graph, roots []string, start int, lv Levels, visited map[string]bool) {
	level := lv.Level
	queue := make([]string, 0, len(roots))
	for _, r := range roots {
		if !visited[r] {
			visited[r] = true
			level[r] = start
			queue = append(queue, r)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range g.Children(id) {
			if visited[child] || lv.Reverse[child] {
				continue
			}
			visited[child] = true
			level[child] = max(level[child], level[id]+1)
			queue = append(queue, child)
		}
	}
}

func isBusinessFunction(n *digraph.Node) bool {
	if n.Kind != "" {
		return entity.ParseType(n.Kind) == entity.BusinessFunction
	}
	return entity.Resolve(n.ID) == entity.BusinessFunction
}
