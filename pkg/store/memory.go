package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/superrelativity/relgraph/pkg/classify"
	"github.com/superrelativity/relgraph/pkg/entity"
	"github.com/superrelativity/relgraph/pkg/graph"
)

// Memory is an in-process Store. It keeps insertion order so query results
// are deterministic.
type Memory struct {
	mu       sync.RWMutex
	entities map[string]entity.Entity
	rels     map[string]classify.ClassifiedRelationship
	relOrder []string
	jobs     map[string]Job
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		entities: make(map[string]entity.Entity),
		rels:     make(map[string]classify.ClassifiedRelationship),
		jobs:     make(map[string]Job),
	}
}

func (m *Memory) UpsertEntities(ctx context.Context, entities []entity.Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entities {
		m.entities[e.ID] = e
	}
	return nil
}

func (m *Memory) UpsertRelationships(ctx context.Context, rels []classify.ClassifiedRelationship) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rels {
		key := r.Key()
		if _, ok := m.rels[key]; !ok {
			m.relOrder = append(m.relOrder, key)
		}
		m.rels[key] = r
	}
	return nil
}

func (m *Memory) neighbours(ctx context.Context, frontier []string) ([]classify.ClassifiedRelationship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	in := make(map[string]bool, len(frontier))
	for _, id := range frontier {
		in[id] = true
	}
	var out []classify.ClassifiedRelationship
	for _, key := range m.relOrder {
		r := m.rels[key]
		if in[r.From] || in[r.To] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) lookup(ctx context.Context, ids []string) (map[string]entity.Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]entity.Entity, len(ids))
	for _, id := range ids {
		if e, ok := m.entities[id]; ok {
			out[id] = e
		}
	}
	return out, nil
}

func (m *Memory) Graph(ctx context.Context, q Query) (graph.Graph, error) {
	return Traverse(ctx, q, m.neighbours, m.lookup)
}

func (m *Memory) Impact(ctx context.Context, id string) (Impact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entities[id]
	if !ok {
		return Impact{}, ErrNotFound
	}
	imp := Impact{Entity: e}
	for _, key := range m.relOrder {
		r := m.rels[key]
		switch id {
		case r.To:
			imp.Upstream = append(imp.Upstream, Link{Entity: m.entityOrResolve(r.From), Relationship: r.CanonicalType})
		case r.From:
			imp.Downstream = append(imp.Downstream, Link{Entity: m.entityOrResolve(r.To), Relationship: r.CanonicalType})
		}
	}
	return imp, nil
}

func (m *Memory) entityOrResolve(id string) entity.Entity {
	if e, ok := m.entities[id]; ok {
		return e
	}
	return entity.ResolveEntity(id)
}

func (m *Memory) RecordJob(ctx context.Context, job Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = job
	return nil
}

func (m *Memory) Jobs(ctx context.Context, limit int) ([]Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	jobs := make([]Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		jobs = append(jobs, j)
	}
	slices.SortFunc(jobs, func(a, b Job) int {
		if c := b.StartedAt.Compare(a.StartedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

// Counts returns the number of stored entities and relationships.
func (m *Memory) Counts() (entities, relationships int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entities), len(m.rels)
}

func (m *Memory) Close() error { return nil }

var _ Store = (*Memory)(nil)
