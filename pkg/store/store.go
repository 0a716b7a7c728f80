// Package store persists entities, classified relationships and sync jobs,
// and answers the graph queries the layout is computed from.
//
// Two backends implement [Store]: [Memory] for tests and the CLI, and
// [github.com/superrelativity/relgraph/pkg/store/mongo] for deployments.
// Both share the traversal in [Traverse], so a query returns the same graph
// whichever backend holds the data.
package store

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/superrelativity/relgraph/pkg/classify"
	"github.com/superrelativity/relgraph/pkg/entity"
	"github.com/superrelativity/relgraph/pkg/graph"
)

// ErrNotFound is returned when an entity does not exist.
var ErrNotFound = errors.New("entity not found")

// DefaultDepth is the number of hops a graph query follows.
const DefaultDepth = 3

// Store is the interface for graph storage backends.
type Store interface {
	// UpsertEntities inserts or replaces entities by id.
	UpsertEntities(ctx context.Context, entities []entity.Entity) error

	// UpsertRelationships inserts or updates relationships by
	// (from, to, canonical type). Upserting the same batch twice is a no-op.
	UpsertRelationships(ctx context.Context, rels []classify.ClassifiedRelationship) error

	// Graph returns the neighbourhood of q.Root.
	Graph(ctx context.Context, q Query) (graph.Graph, error)

	// Impact returns the direct neighbours of an entity.
	Impact(ctx context.Context, id string) (Impact, error)

	// RecordJob inserts or updates a sync job by id.
	RecordJob(ctx context.Context, job Job) error

	// Jobs returns the most recent jobs, newest first.
	Jobs(ctx context.Context, limit int) ([]Job, error)

	Close() error
}

// Query selects a neighbourhood. Relationships are followed in both
// directions so that entities pointing into the neighbourhood, such as
// business functions including an API, are part of the result.
type Query struct {
	Root  string   `json:"root"`
	Depth int      `json:"depth,omitempty"`
	Types []string `json:"types,omitempty"` // canonical relationship types; empty means all
}

// Link is one relationship seen from an entity.
type Link struct {
	Entity       entity.Entity         `json:"entity"`
	Relationship classify.RelationType `json:"relationship"`
}

// Impact lists the entities an entity depends on and the ones depending on it.
type Impact struct {
	Entity     entity.Entity `json:"entity"`
	Upstream   []Link        `json:"upstream"`   // sources of incoming relationships
	Downstream []Link        `json:"downstream"` // targets of outgoing relationships
}

// JobStatus is the state of a sync job.
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job records one sync run.
type Job struct {
	ID            string     `json:"jobId" bson:"_id"`
	Status        JobStatus  `json:"status" bson:"status"`
	StartedAt     time.Time  `json:"startedAt" bson:"startedAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	Entities      int        `json:"entities" bson:"entities"`
	Relationships int        `json:"recordsSynced" bson:"relationships"`
	Rejected      int        `json:"rejected" bson:"rejected"`
	Error         string     `json:"error,omitempty" bson:"error,omitempty"`
}

// Neighbours returns the relationships touching any id in frontier.
type Neighbours func(ctx context.Context, frontier []string) ([]classify.ClassifiedRelationship, error)

// Lookup returns the entities with the given ids. Missing ids are omitted.
type Lookup func(ctx context.Context, ids []string) (map[string]entity.Entity, error)

// Traverse runs an undirected breadth-first search from q.Root up to
// q.Depth hops and builds the resulting graph. Nodes and edges are in
// discovery order; levels are left to the layout.
func Traverse(ctx context.Context, q Query, neighbours Neighbours, lookup Lookup) (graph.Graph, error) {
	if q.Depth <= 0 {
		q.Depth = DefaultDepth
	}

	roots, err := lookup(ctx, []string{q.Root})
	if err != nil {
		return graph.Graph{}, err
	}
	if _, ok := roots[q.Root]; !ok {
		return graph.Graph{}, ErrNotFound
	}

	dist := map[string]int{q.Root: 0}
	order := []string{q.Root}
	seenEdge := make(map[string]bool)
	var rels []classify.ClassifiedRelationship

	frontier := []string{q.Root}
	for hop := 1; hop <= q.Depth && len(frontier) > 0; hop++ {
		found, err := neighbours(ctx, frontier)
		if err != nil {
			return graph.Graph{}, err
		}
		var next []string
		for _, r := range found {
			if len(q.Types) > 0 && !slices.Contains(q.Types, string(r.CanonicalType)) {
				continue
			}
			if !seenEdge[r.Key()] {
				seenEdge[r.Key()] = true
				rels = append(rels, r)
			}
			for _, id := range []string{r.From, r.To} {
				if _, ok := dist[id]; !ok {
					dist[id] = hop
					order = append(order, id)
					next = append(next, id)
				}
			}
		}
		frontier = next
	}

	entities, err := lookup(ctx, order)
	if err != nil {
		return graph.Graph{}, err
	}

	g := graph.Graph{Nodes: make([]graph.Node, 0, len(order))}
	for _, id := range order {
		e, ok := entities[id]
		if !ok {
			e = entity.ResolveEntity(id)
		}
		g.Nodes = append(g.Nodes, graph.Node{
			ID:         id,
			Label:      e.Name,
			NodeType:   e.Type.String(),
			Properties: e.Meta,
		})
	}
	for _, r := range rels {
		if _, ok := dist[r.From]; !ok {
			continue
		}
		if _, ok := dist[r.To]; !ok {
			continue
		}
		g.Edges = append(g.Edges, graph.Edge{
			Source:           r.From,
			Target:           r.To,
			Label:            r.Properties.Description,
			RelationshipType: string(r.CanonicalType),
		})
	}
	return *g.Normalize(), nil
}
