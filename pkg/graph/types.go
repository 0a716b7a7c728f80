package graph

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/superrelativity/relgraph/pkg/digraph"
)

// Metadata keys used when converting to a digraph.
const (
	metaLabel      = "label"
	metaProperties = "properties"
	metaEdgeID     = "id"
	metaEdgeLabel  = "label"
	metaRelType    = "relationshipType"
)

// edgeNamespace seeds deterministic edge ids.
var edgeNamespace = uuid.MustParse("6f1c2d2e-8c1b-4d55-9d7a-3b0e1f6a9c40")

// =============================================================================
// Graph - Query Result
// =============================================================================

// Graph is a query result: arbitrary nodes and directed edges. It may be
// cyclic, disconnected, and edges may reference nodes that are absent.
type Graph struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// Node is a query result vertex. Level is derived by the layout and is zero
// on input.
type Node struct {
	ID         string         `json:"id" bson:"id"`
	Label      string         `json:"label,omitempty" bson:"label,omitempty"`
	NodeType   string         `json:"nodeType,omitempty" bson:"nodeType,omitempty"`
	Level      int            `json:"level" bson:"level"`
	Properties map[string]any `json:"properties,omitempty" bson:"properties,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Edge is a directed query result edge.
type Edge struct {
	ID               string `json:"id" bson:"id"`
	Source           string `json:"source" bson:"source"`
	Target           string `json:"target" bson:"target"`
	Label            string `json:"label,omitempty" bson:"label,omitempty"`
	RelationshipType string `json:"relationshipType,omitempty" bson:"relationshipType,omitempty"`
}

// EdgeID returns a stable id for the i-th edge of a graph. Equal inputs
// always produce equal ids, so cached layouts stay valid.
func EdgeID(e Edge, i int) string {
	return uuid.NewSHA1(edgeNamespace, fmt.Appendf(nil, "%s|%s|%s|%d", e.Source, e.Target, e.RelationshipType, i)).String()
}

// Normalize fills missing edge ids in place and returns g.
func (g *Graph) Normalize() *Graph {
	for i := range g.Edges {
		if g.Edges[i].ID == "" {
			g.Edges[i].ID = EdgeID(g.Edges[i], i)
		}
	}
	return g
}

// NodeIndex maps node IDs to their position. Duplicate IDs keep the first.
func (g *Graph) NodeIndex() map[string]int {
	m := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		if _, ok := m[n.ID]; !ok {
			m[n.ID] = i
		}
	}
	return m
}

// =============================================================================
// Graph ↔ digraph Conversion
// =============================================================================

// ToDigraph converts g into an insertion-ordered digraph. Duplicate node ids
// keep their first occurrence. Edges with a missing endpoint are skipped and
// returned so callers can report them.
func (g Graph) ToDigraph() (*digraph.Graph, []Edge) {
	d := digraph.New(nil)
	for _, n := range g.Nodes {
		meta := digraph.Metadata{}
		if n.Label != "" {
			meta[metaLabel] = n.Label
		}
		if len(n.Properties) > 0 {
			meta[metaProperties] = n.Properties
		}
		// Duplicates and empty ids are dropped.
		_ = d.AddNode(digraph.Node{ID: n.ID, Kind: n.NodeType, Meta: meta})
	}

	var dangling []Edge
	for _, e := range g.Edges {
		err := d.AddEdge(digraph.Edge{
			From: e.Source,
			To:   e.Target,
			Meta: digraph.Metadata{metaEdgeID: e.ID, metaEdgeLabel: e.Label, metaRelType: e.RelationshipType},
		})
		if err != nil {
			dangling = append(dangling, e)
		}
	}
	return d, dangling
}

// FromDigraph converts a digraph back into a Graph in insertion order.
func FromDigraph(d *digraph.Graph) Graph {
	out := Graph{Nodes: make([]Node, 0, d.NodeCount()), Edges: make([]Edge, 0, d.EdgeCount())}
	for _, n := range d.Nodes() {
		node := Node{ID: n.ID, NodeType: n.Kind}
		if s, ok := n.Meta[metaLabel].(string); ok {
			node.Label = s
		}
		if p, ok := n.Meta[metaProperties].(map[string]any); ok {
			node.Properties = p
		}
		out.Nodes = append(out.Nodes, node)
	}
	for _, e := range d.Edges() {
		edge := Edge{Source: e.From, Target: e.To}
		edge.ID, _ = e.Meta[metaEdgeID].(string)
		edge.Label, _ = e.Meta[metaEdgeLabel].(string)
		edge.RelationshipType, _ = e.Meta[metaRelType].(string)
		out.Edges = append(out.Edges, edge)
	}
	return out
}
