package digraph_test

import (
	"fmt"

	"github.com/superrelativity/relgraph/pkg/digraph"
)

func ExampleGraph() {
	g := digraph.New(nil)
	_ = g.AddNode(digraph.Node{ID: "APP-1", Kind: "Application"})
	_ = g.AddNode(digraph.Node{ID: "API-2", Kind: "API"})
	_ = g.AddNode(digraph.Node{ID: "DATA-3", Kind: "DataObject"})
	_ = g.AddEdge(digraph.Edge{From: "APP-1", To: "API-2"})
	_ = g.AddEdge(digraph.Edge{From: "API-2", To: "DATA-3"})

	fmt.Println("Children of APP-1:", g.Children("APP-1"))
	fmt.Println("Sources:", digraph.NodeIDs(g.Sources()))
	fmt.Println("Cyclic:", g.HasCycle())
	// Output:
	// Children of APP-1: [API-2]
	// Sources: [APP-1]
	// Cyclic: false
}

func ExampleGraph_BackEdges() {
	g := digraph.New(nil)
	_ = g.AddNode(digraph.Node{ID: "COMP-1"})
	_ = g.AddNode(digraph.Node{ID: "COMP-2"})
	_ = g.AddEdge(digraph.Edge{From: "COMP-1", To: "COMP-2"})
	_ = g.AddEdge(digraph.Edge{From: "COMP-2", To: "COMP-1"})

	for _, e := range g.BackEdges() {
		fmt.Printf("%s → %s\n", e.From, e.To)
	}
	// Output:
	// COMP-2 → COMP-1
}
