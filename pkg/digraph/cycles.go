package digraph

const (
	white = iota
	gray
	black
)

// BackEdges returns the edges that close a cycle during a depth-first search
// started from the sources and then from every remaining node, both in
// insertion order. Removing them leaves the graph acyclic. Self loops are
// always back edges.
func (g *Graph) BackEdges() []Edge {
	color := make(map[string]int, len(g.order))
	var back []Edge

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range g.outgoing[id] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				back = append(back, Edge{From: id, To: child})
			}
		}
		color[id] = black
	}

	for _, n := range g.Sources() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}
	for _, id := range g.order {
		if color[id] == white {
			dfs(id)
		}
	}
	return back
}

// HasCycle reports whether the graph contains a directed cycle.
func (g *Graph) HasCycle() bool {
	color := make(map[string]int, len(g.order))

	var dfs func(id string) bool
	dfs = func(id string) bool {
		color[id] = gray
		for _, child := range g.outgoing[id] {
			switch color[child] {
			case white:
				if dfs(child) {
					return true
				}
			case gray:
				return true
			}
		}
		color[id] = black
		return false
	}

	for _, id := range g.order {
		if color[id] == white && dfs(id) {
			return true
		}
	}
	return false
}
