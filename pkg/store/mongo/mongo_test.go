package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superrelativity/relgraph/pkg/classify"
	"github.com/superrelativity/relgraph/pkg/entity"
	"github.com/superrelativity/relgraph/pkg/store"
)

// Set RELGRAPH_TEST_MONGO_URI (for example mongodb://localhost:27017) to run
// against a real server.
func openTest(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("RELGRAPH_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("RELGRAPH_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := Open(ctx, Options{URI: uri, Database: fmt.Sprintf("relgraph_test_%d", time.Now().UnixNano())})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Drop(context.Background())
		_ = s.Close()
	})
	return s
}

func TestStore(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertEntities(ctx, []entity.Entity{
		{ID: "APP-1", Type: entity.Application, Name: "Portal"},
		{ID: "API-1", Type: entity.API},
		{ID: "BF-1", Type: entity.BusinessFunction},
	}))
	rels := []classify.ClassifiedRelationship{
		{From: "APP-1", To: "API-1", CanonicalType: classify.Calls},
		{From: "BF-1", To: "API-1", CanonicalType: classify.Includes},
	}
	require.NoError(t, s.UpsertRelationships(ctx, rels))
	require.NoError(t, s.UpsertRelationships(ctx, rels))

	count, err := s.rels.CountDocuments(ctx, map[string]any{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	g, err := s.Graph(ctx, store.Query{Root: "APP-1"})
	require.NoError(t, err)
	require.Len(t, g.Nodes, 3)
	assert.Equal(t, "APP-1", g.Nodes[0].ID)
	assert.Equal(t, "Portal", g.Nodes[0].Label)
	assert.Len(t, g.Edges, 2)

	imp, err := s.Impact(ctx, "API-1")
	require.NoError(t, err)
	assert.Len(t, imp.Upstream, 2)
	assert.Empty(t, imp.Downstream)

	_, err = s.Impact(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestJobs(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	start := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, s.RecordJob(ctx, store.Job{ID: "old", Status: store.JobCompleted, StartedAt: start.Add(-time.Hour)}))
	require.NoError(t, s.RecordJob(ctx, store.Job{ID: "new", Status: store.JobRunning, StartedAt: start}))
	require.NoError(t, s.RecordJob(ctx, store.Job{ID: "new", Status: store.JobFailed, StartedAt: start, Error: "boom"}))

	jobs, err := s.Jobs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "new", jobs[0].ID)
	assert.Equal(t, store.JobFailed, jobs[0].Status)
	assert.Equal(t, "boom", jobs[0].Error)
}
