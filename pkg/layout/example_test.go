package layout_test

import (
	"fmt"

	"github.com/superrelativity/relgraph/pkg/graph"
	"github.com/superrelativity/relgraph/pkg/layout"
)

func ExampleAssignLevels() {
	nodes := []graph.Node{
		{ID: "APP-1", NodeType: "Application"},
		{ID: "DATA-1", NodeType: "DataObject"},
		{ID: "BF-9", NodeType: "BusinessFunction"},
	}
	edges := []graph.Edge{
		{Source: "APP-1", Target: "DATA-1"},
		{Source: "BF-9", Target: "DATA-1"},
	}

	lv := layout.AssignLevels(nodes, edges)
	for _, n := range nodes {
		fmt.Printf("%s level=%d reverse=%v\n", n.ID, lv.Level[n.ID], lv.Reverse[n.ID])
	}
	// Output:
	// APP-1 level=0 reverse=false
	// DATA-1 level=1 reverse=false
	// BF-9 level=2 reverse=true
}

func ExampleState_Toggle() {
	g := graph.Graph{
		Nodes: []graph.Node{{ID: "APP-1"}, {ID: "API-1"}, {ID: "COMP-1"}},
		Edges: []graph.Edge{
			{Source: "APP-1", Target: "API-1"},
			{Source: "API-1", Target: "COMP-1"},
		},
	}

	s := layout.Compose(g, layout.Options{})
	fmt.Println("initial:", s.Visible())
	s.Toggle("API-1")
	fmt.Println("expanded:", s.Visible())
	s.Toggle("API-1")
	fmt.Println("collapsed:", s.Visible())
	// Output:
	// initial: [APP-1 API-1]
	// expanded: [APP-1 API-1 COMP-1]
	// collapsed: [APP-1 API-1]
}
