// Package graph provides the wire types for query results and layouts.
//
// This package defines the canonical JSON format for relgraph's graph data,
// used for input files, API requests and responses, caching and sessions.
//
// # Architecture
//
// The package sits at the serialization boundary:
//
//   - [Graph], [Layout]: serialization types (this package)
//   - pkg/digraph.Graph: insertion-ordered adjacency used by algorithms
//   - pkg/layout.State: collapse state machine producing a [Layout]
//
// Use [Graph.ToDigraph] to hand a query result to the algorithms.
//
// # Graph Serialization
//
// A query result is a node-link document:
//
//	{
//	  "nodes": [{"id": "APP-1", "label": "Portal", "nodeType": "Application"}],
//	  "edges": [{"source": "APP-1", "target": "API-2", "relationshipType": "CALLS"}]
//	}
//
// Edges without an id receive a deterministic one from [EdgeID].
//
// Common operations:
//
//	g, _ := graph.ReadGraphFile("query.json")
//	graph.WriteGraphFile(g, "copy.json")
//	layout, _ := graph.ReadLayoutFile("query.layout.json")
//
// # Concurrency
//
// All functions are safe for concurrent use; the types themselves are plain
// values with no internal synchronization.
package graph
