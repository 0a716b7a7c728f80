package graph

import (
	"encoding/json"
	"fmt"
	"os"
)

// =============================================================================
// Layout - Positioned, Collapsible Graph
// =============================================================================

// Layout is the serialized output of the layout composer. Nodes are ordered
// by level, then by input order.
type Layout struct {
	Nodes    []LayoutNode `json:"nodes" bson:"nodes"`
	Edges    []LayoutEdge `json:"edges" bson:"edges"`
	Roots    []string     `json:"roots,omitempty" bson:"roots,omitempty"`
	Dangling []Edge       `json:"dangling,omitempty" bson:"dangling,omitempty"`
	Cyclic   bool         `json:"cyclic,omitempty" bson:"cyclic,omitempty"`
	Stats    LayoutStats  `json:"stats" bson:"stats"`
}

// Position is a node's top-left corner in layout units.
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// LayoutNode is a Node with position and collapse state.
type LayoutNode struct {
	Node        `bson:",inline"`
	Position    Position `json:"position" bson:"position"`
	ParentID    string   `json:"parentId,omitempty" bson:"parentId,omitempty"`
	Collapsible bool     `json:"collapsible" bson:"collapsible"`
	Collapsed   bool     `json:"collapsed" bson:"collapsed"`
	Hidden      bool     `json:"hidden" bson:"hidden"`
	IsReverse   bool     `json:"isReverse" bson:"isReverse"`
}

// LayoutEdge is an Edge with visibility.
type LayoutEdge struct {
	Edge   `bson:",inline"`
	Hidden bool `json:"hidden" bson:"hidden"`
}

// LayoutStats summarizes a layout.
type LayoutStats struct {
	Nodes   int `json:"nodes" bson:"nodes"`
	Edges   int `json:"edges" bson:"edges"`
	Visible int `json:"visible" bson:"visible"`
	Hidden  int `json:"hidden" bson:"hidden"`
	Reverse int `json:"reverse" bson:"reverse"`
	Levels  int `json:"levels" bson:"levels"`
}

// Node returns the layout node with the given id.
func (l *Layout) Node(id string) (*LayoutNode, bool) {
	for i := range l.Nodes {
		if l.Nodes[i].ID == id {
			return &l.Nodes[i], true
		}
	}
	return nil, false
}

// VisibleNodes returns the nodes that are not hidden, in layout order.
func (l *Layout) VisibleNodes() []LayoutNode {
	var out []LayoutNode
	for _, n := range l.Nodes {
		if !n.Hidden {
			out = append(out, n)
		}
	}
	return out
}

// VisibleEdges returns the edges that are not hidden, in layout order.
func (l *Layout) VisibleEdges() []LayoutEdge {
	var out []LayoutEdge
	for _, e := range l.Edges {
		if !e.Hidden {
			out = append(out, e)
		}
	}
	return out
}

// Validate checks that every edge references a node of the layout.
func (l *Layout) Validate() error {
	ids := make(map[string]bool, len(l.Nodes))
	for _, n := range l.Nodes {
		if n.ID == "" {
			return fmt.Errorf("layout node without id")
		}
		ids[n.ID] = true
	}
	for _, e := range l.Edges {
		if !ids[e.Source] || !ids[e.Target] {
			return fmt.Errorf("layout edge %s→%s references unknown node", e.Source, e.Target)
		}
	}
	return nil
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes and validates a Layout.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
