package layout

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/superrelativity/relgraph/pkg/digraph"
	"github.com/superrelativity/relgraph/pkg/graph"
	"github.com/superrelativity/relgraph/pkg/observability"
)

// Default spacing in layout units.
const (
	DefaultColumnWidth = 350
	DefaultRowHeight   = 120
)

// Options configures Compose. Zero values select the defaults.
type Options struct {
	ColumnWidth   float64 `json:"columnWidth,omitempty"`
	RowHeight     float64 `json:"rowHeight,omitempty"`
	FallbackRoots int     `json:"fallbackRoots,omitempty"`
}

// WithDefaults returns o with zero fields replaced by defaults.
func (o Options) WithDefaults() Options {
	if o.ColumnWidth <= 0 {
		o.ColumnWidth = DefaultColumnWidth
	}
	if o.RowHeight <= 0 {
		o.RowHeight = DefaultRowHeight
	}
	if o.FallbackRoots <= 0 {
		o.FallbackRoots = DefaultFallbackRoots
	}
	return o
}

// Compose levels g and returns its initial collapse state.
func Compose(g graph.Graph, opts Options) *State {
	opts = opts.WithDefaults()
	g = graph.Graph{Nodes: g.Nodes, Edges: slices.Clone(g.Edges)}
	g.Normalize()

	lv := AssignLevelsWith(g.Nodes, g.Edges, opts.FallbackRoots)
	d := lv.Graph

	nodes := d.Nodes()
	slices.SortStableFunc(nodes, func(a, b *digraph.Node) int {
		return cmp.Compare(lv.Level[a.ID], lv.Level[b.ID])
	})

	parents := primaryParents(g.Edges, lv)
	src := g.NodeIndex()
	s := &State{
		index:    make(map[string]int, len(nodes)),
		children: make(map[string][]string),
	}
	s.layout.Roots = lv.Roots
	s.layout.Dangling = lv.Dangling
	s.layout.Cyclic = lv.Cyclic

	row := make(map[int]int)
	for _, n := range nodes {
		level := lv.Level[n.ID]
		reverse := lv.Reverse[n.ID]
		hasOutgoing := d.OutDegree(n.ID) > 0

		base := g.Nodes[src[n.ID]]
		base.Level = level
		ln := graph.LayoutNode{
			Node:        base,
			Position:    graph.Position{X: float64(level) * opts.ColumnWidth, Y: float64(row[level]) * opts.RowHeight},
			ParentID:    parents[n.ID],
			Collapsible: hasOutgoing,
			Collapsed:   hasOutgoing && (level == 1 || reverse),
			Hidden:      level > 1 && !reverse,
			IsReverse:   reverse,
		}
		row[level]++
		s.add(ln)
	}

	for _, e := range g.Edges {
		if _, ok := s.index[e.Source]; !ok {
			continue
		}
		if _, ok := s.index[e.Target]; !ok {
			continue
		}
		s.layout.Edges = append(s.layout.Edges, graph.LayoutEdge{Edge: e})
	}
	s.recomputeEdges()
	return s
}

// ComposeContext is Compose with pipeline hooks.
func ComposeContext(ctx context.Context, g graph.Graph, opts Options) *State {
	start := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, len(g.Nodes))
	s := Compose(g, opts)
	st := s.Stats()
	observability.Pipeline().OnLayoutComplete(ctx, st.Nodes, st.Reverse, time.Since(start), nil)
	return s
}

// primaryParents maps each node to the source of the first non-self edge
// targeting it.
func primaryParents(edges []graph.Edge, lv Levels) map[string]string {
	parents := make(map[string]string)
	for _, e := range edges {
		if e.Source == e.Target {
			continue
		}
		if lv.Graph.Index(e.Source) < 0 || lv.Graph.Index(e.Target) < 0 {
			continue
		}
		if _, ok := parents[e.Target]; !ok {
			parents[e.Target] = e.Source
		}
	}
	return parents
}
