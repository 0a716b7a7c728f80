package leanix

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superrelativity/relgraph/pkg/cache"
	"github.com/superrelativity/relgraph/pkg/entity"
	"github.com/superrelativity/relgraph/pkg/integrations"
)

var fixtures = map[string][]map[string]any{
	"/capabilities": {{"id": "BF-1", "name": "Ordering", "level": 1}},
	"/applications": {
		{"id": "APP-1", "name": "Portal", "businessCriticality": "HIGH"},
		{"id": "APP-2", "name": "Billing"},
	},
	"/apis":          {{"id": "API-1", "name": "Orders API"}},
	"/components":    {{"id": "COMP-1", "name": "order-service"}},
	"/data-objects":  {{"id": "DATA-1", "name": "Order"}},
	"/servers":       {},
	"/app-changes":   {{"id": "ACH-1", "name": "Checkout revamp"}},
	"/infra-changes": {},
	"/relationships": {
		{"from": "APP-1", "to": "API-1", "type": "calls", "description": "pulls orders"},
		{"from": "BF-1", "to": "API-1", "type": "includes"},
	},
}

type fakeSource struct {
	*httptest.Server
	requests atomic.Int32
	auth     atomic.Value
}

func newFakeSource(t *testing.T, override map[string]int) *fakeSource {
	t.Helper()
	f := &fakeSource{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		f.auth.Store(r.Header.Get("Authorization"))
		if code, ok := override[r.URL.Path]; ok {
			w.WriteHeader(code)
			return
		}
		data, ok := fixtures[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"data": data, "count": len(data)})
	}))
	t.Cleanup(f.Close)
	return f
}

func newTestClient(t *testing.T, url string, c cache.Cache) *Client {
	t.Helper()
	client, err := NewClient(Options{BaseURL: url, Token: "secret", Cache: c})
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresURL(t *testing.T) {
	_, err := NewClient(Options{})
	assert.Error(t, err)
}

func TestEntities(t *testing.T) {
	src := newFakeSource(t, nil)
	c := newTestClient(t, src.URL, nil)

	ents, err := c.Entities(context.Background(), Collection{Path: "applications", Type: entity.Application}, false)
	require.NoError(t, err)
	require.Len(t, ents, 2)
	assert.Equal(t, "APP-1", ents[0].ID)
	assert.Equal(t, "Portal", ents[0].Name)
	assert.Equal(t, entity.Application, ents[0].Type)
	assert.Equal(t, "HIGH", ents[0].Meta["businessCriticality"])
	assert.Nil(t, ents[1].Meta)
	assert.Equal(t, "Bearer secret", src.auth.Load())
}

func TestRelationships(t *testing.T) {
	src := newFakeSource(t, nil)
	c := newTestClient(t, src.URL, nil)

	rels, err := c.Relationships(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, rels, 2)
	assert.Equal(t, "APP-1", rels[0].From)
	assert.Equal(t, "calls", rels[0].Type)
	assert.Equal(t, "pulls orders", rels[0].Description)
}

func TestSnapshot(t *testing.T) {
	src := newFakeSource(t, nil)
	c := newTestClient(t, src.URL, nil)

	snap, err := c.Snapshot(context.Background(), false)
	require.NoError(t, err)

	ids := make([]string, len(snap.Entities))
	for i, e := range snap.Entities {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"BF-1", "APP-1", "APP-2", "API-1", "COMP-1", "DATA-1", "ACH-1"}, ids)
	assert.Equal(t, entity.BusinessFunction, snap.Entities[0].Type)
	assert.Len(t, snap.Relationships, 2)
	assert.False(t, snap.FetchedAt.IsZero())
	assert.EqualValues(t, len(Collections)+1, src.requests.Load())
}

func TestSnapshotCached(t *testing.T) {
	src := newFakeSource(t, nil)
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	c := newTestClient(t, src.URL, fc)
	ctx := context.Background()

	_, err = c.Snapshot(ctx, false)
	require.NoError(t, err)
	first := src.requests.Load()

	_, err = c.Snapshot(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, first, src.requests.Load(), "second snapshot should be served from cache")

	_, err = c.Snapshot(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 2*first, src.requests.Load(), "refresh should bypass the cache")
}

func TestSnapshotFailure(t *testing.T) {
	src := newFakeSource(t, map[string]int{"/apis": http.StatusForbidden})
	c := newTestClient(t, src.URL, nil)

	_, err := c.Snapshot(context.Background(), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, integrations.ErrUnauthorized)
	assert.True(t, strings.Contains(err.Error(), "apis"))
}

func TestFactSheetJSON(t *testing.T) {
	var f FactSheet
	require.NoError(t, json.Unmarshal([]byte(`{"id":"SRV-1","name":"db01","os":"linux"}`), &f))
	assert.Equal(t, "SRV-1", f.ID)
	assert.Equal(t, "db01", f.Name)
	assert.Equal(t, map[string]any{"os": "linux"}, f.Properties)

	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"SRV-1","name":"db01","os":"linux"}`, string(data))
}
