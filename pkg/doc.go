// Package pkg provides the core libraries for relgraph.
//
// # Overview
//
// relgraph turns raw relationships between architecture entities
// (applications, APIs, components, data objects, business functions...) into
// canonical typed edges, stores them, and lays out neighbourhood graphs as
// collapsible hierarchies. The pkg directory is organized into four areas:
//
//  1. Domain logic: [entity], [classify], [diagram], [digraph], [layout]
//  2. Infrastructure: [cache], [store], [session], [observability]
//  3. Integrations: [integrations] (the architecture repository client)
//  4. Orchestration: [pipeline], [syncjob], with [graph] and [render] for
//     serialization and output
//
// # Architecture
//
// The typical data flow:
//
//	Architecture repository / relationships file / C4 diagram
//	         ↓
//	    [classify] package (whitelist rules → typed edges)
//	         ↓
//	    [store] package (entities + relationships, graph queries)
//	         ↓
//	    [layout] package (levels, positions, collapse state)
//	         ↓
//	    [render] package (DOT, SVG, PNG, JSON)
//
// # Quick Start
//
//	import (
//	    "github.com/superrelativity/relgraph/pkg/classify"
//	    "github.com/superrelativity/relgraph/pkg/entity"
//	    "github.com/superrelativity/relgraph/pkg/layout"
//	)
//
//	// 1. Classify a relationship
//	rel, ok := classify.Classify(classify.RawRelationship{
//	    From: "APP-1", To: "API-1", Type: "calls",
//	}, entity.Application, entity.API)
//
//	// 2. Compose a layout and expand a node
//	state := layout.Compose(g, layout.Options{})
//	state.Toggle("API-1")
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/layout/...             # Specific package
//	go test -run Example                 # Examples only
package pkg
