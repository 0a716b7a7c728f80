package layout

import (
	"slices"

	"github.com/superrelativity/relgraph/pkg/graph"
)

// State holds the collapse state of one composed layout.
//
// State is not safe for concurrent use.
type State struct {
	layout   graph.Layout
	index    map[string]int      // node id -> position in layout.Nodes
	children map[string][]string // primary parent -> children, layout order
}

// Snapshot is the serializable form of a State.
type Snapshot struct {
	Layout graph.Layout `json:"layout"`
}

func (s *State) add(n graph.LayoutNode) {
	s.index[n.ID] = len(s.layout.Nodes)
	s.layout.Nodes = append(s.layout.Nodes, n)
	if n.ParentID != "" {
		s.children[n.ParentID] = append(s.children[n.ParentID], n.ID)
	}
}

func (s *State) node(id string) *graph.LayoutNode { return &s.layout.Nodes[s.index[id]] }

// Has reports whether id is a node of the layout.
func (s *State) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Descendants returns the transitive primary-parent children of id in
// breadth-first order, excluding id itself.
func (s *State) Descendants(id string) []string {
	seen := map[string]bool{id: true}
	var out []string
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range s.children[cur] {
			if seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
			queue = append(queue, c)
		}
	}
	return out
}

// Toggle flips the collapsed flag of id and updates the visibility of its
// descendants and of every edge. It returns false, changing nothing, when id
// is unknown or has no outgoing edges.
//
// Collapsing hides all descendants. Expanding shows each descendant whose
// primary-parent chain holds no collapsed node.
func (s *State) Toggle(id string) bool {
	if !s.Has(id) || !s.node(id).Collapsible {
		return false
	}
	n := s.node(id)
	n.Collapsed = !n.Collapsed
	for _, d := range s.Descendants(id) {
		s.node(d).Hidden = n.Collapsed || s.underCollapsed(d)
	}
	s.recomputeEdges()
	return true
}

// underCollapsed reports whether any primary ancestor of id is collapsed.
func (s *State) underCollapsed(id string) bool {
	seen := map[string]bool{id: true}
	for p := s.node(id).ParentID; p != "" && !seen[p] && s.Has(p); p = s.node(p).ParentID {
		if s.node(p).Collapsed {
			return true
		}
		seen[p] = true
	}
	return false
}

// Collapse collapses id if it is expanded. It returns false for unknown ids.
func (s *State) Collapse(id string) bool {
	if !s.Has(id) {
		return false
	}
	if !s.node(id).Collapsed {
		s.Toggle(id)
	}
	return true
}

// Expand expands id if it is collapsed. It returns false for unknown ids.
func (s *State) Expand(id string) bool {
	if !s.Has(id) {
		return false
	}
	if s.node(id).Collapsed {
		s.Toggle(id)
	}
	return true
}

// ExpandAll shows every node and clears all collapsed flags.
func (s *State) ExpandAll() {
	for i := range s.layout.Nodes {
		s.layout.Nodes[i].Collapsed = false
		s.layout.Nodes[i].Hidden = false
	}
	s.recomputeEdges()
}

// CollapseAll collapses every collapsible node and hides every node that has
// a primary parent, leaving the parentless nodes visible.
func (s *State) CollapseAll() {
	for i := range s.layout.Nodes {
		n := &s.layout.Nodes[i]
		n.Collapsed = n.Collapsible
		n.Hidden = n.ParentID != ""
	}
	s.recomputeEdges()
}

// Visible returns the ids of nodes that are not hidden, in layout order.
func (s *State) Visible() []string {
	var out []string
	for _, n := range s.layout.Nodes {
		if !n.Hidden {
			out = append(out, n.ID)
		}
	}
	return out
}

// Hidden reports whether id is hidden. Unknown ids report false.
func (s *State) Hidden(id string) bool {
	return s.Has(id) && s.node(id).Hidden
}

// Collapsed reports whether id is collapsed. Unknown ids report false.
func (s *State) Collapsed(id string) bool {
	return s.Has(id) && s.node(id).Collapsed
}

// Stats counts nodes, edges and visibility.
func (s *State) Stats() graph.LayoutStats {
	st := graph.LayoutStats{Nodes: len(s.layout.Nodes), Edges: len(s.layout.Edges)}
	levels := make(map[int]bool)
	for _, n := range s.layout.Nodes {
		levels[n.Level] = true
		if n.Hidden {
			st.Hidden++
		} else {
			st.Visible++
		}
		if n.IsReverse {
			st.Reverse++
		}
	}
	st.Levels = len(levels)
	return st
}

// Layout returns a copy of the current layout.
func (s *State) Layout() graph.Layout {
	out := s.layout
	out.Nodes = slices.Clone(s.layout.Nodes)
	out.Edges = slices.Clone(s.layout.Edges)
	out.Roots = slices.Clone(s.layout.Roots)
	out.Dangling = slices.Clone(s.layout.Dangling)
	out.Stats = s.Stats()
	return out
}

// Snapshot captures the state for persistence.
func (s *State) Snapshot() Snapshot {
	return Snapshot{Layout: s.Layout()}
}

// Restore rebuilds a State from a Snapshot. Parent links are taken from
// the layout nodes' ParentID.
func Restore(snap Snapshot) *State {
	s := &State{
		index:    make(map[string]int, len(snap.Layout.Nodes)),
		children: make(map[string][]string),
	}
	s.layout = snap.Layout
	s.layout.Nodes = nil
	for _, n := range snap.Layout.Nodes {
		s.add(n)
	}
	s.layout.Edges = slices.Clone(snap.Layout.Edges)
	return s
}

func (s *State) recomputeEdges() {
	for i := range s.layout.Edges {
		e := &s.layout.Edges[i]
		e.Hidden = s.Hidden(e.Source) || s.Hidden(e.Target)
	}
}
