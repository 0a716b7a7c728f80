// Package digraph provides an insertion-ordered directed graph.
//
// # Overview
//
// Architecture query results are arbitrary directed graphs: they may contain
// cycles, self loops, parallel edges and disconnected components. Layout
// algorithms built on top of them are required to be deterministic, so every
// listing in this package ([Graph.Nodes], [Graph.Children], [Graph.Sources],
// ...) follows insertion order rather than map order.
//
// # Basic Usage
//
//	g := digraph.New(nil)
//	g.AddNode(digraph.Node{ID: "APP-1", Kind: "Application"})
//	g.AddNode(digraph.Node{ID: "API-2", Kind: "API"})
//	g.AddEdge(digraph.Edge{From: "APP-1", To: "API-2"})
//
// Query the structure with [Graph.Children], [Graph.Parents],
// [Graph.OutDegree] and [Graph.Index]. Unlike a layered DAG, no row
// constraint is enforced; [Graph.HasCycle] and [Graph.BackEdges] report
// cycles instead of rejecting them.
//
// # Concurrency
//
// A Graph is not safe for concurrent use without external synchronization.
package digraph
