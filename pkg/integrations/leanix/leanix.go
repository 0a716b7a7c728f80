// Package leanix fetches fact sheets and relationships from a LeanIX-style
// REST API.
//
// Every list endpoint answers with the same envelope:
//
//	{"data": [...], "count": 3}
//
// Fact sheets are turned into [entity.Entity] values typed by the
// collection they come from; relationships are returned raw, to be
// classified by the caller.
package leanix

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/superrelativity/relgraph/pkg/cache"
	"github.com/superrelativity/relgraph/pkg/classify"
	"github.com/superrelativity/relgraph/pkg/entity"
	"github.com/superrelativity/relgraph/pkg/integrations"
)

// Collection is a fact sheet list endpoint.
type Collection struct {
	Path string
	Type entity.Type
}

// Collections lists the fact sheet endpoints in sync order.
var Collections = []Collection{
	{Path: "capabilities", Type: entity.BusinessFunction},
	{Path: "applications", Type: entity.Application},
	{Path: "apis", Type: entity.API},
	{Path: "components", Type: entity.Component},
	{Path: "data-objects", Type: entity.DataObject},
	{Path: "servers", Type: entity.Server},
	{Path: "app-changes", Type: entity.AppChange},
	{Path: "infra-changes", Type: entity.InfraChange},
}

const relationshipsPath = "relationships"

// envelope is the list response wrapper.
type envelope[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}

// FactSheet is one record of a collection. Fields other than id and name
// are kept in Properties.
type FactSheet struct {
	ID         string
	Name       string
	Properties map[string]any
}

func (f *FactSheet) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.ID, _ = raw["id"].(string)
	f.Name, _ = raw["name"].(string)
	delete(raw, "id")
	delete(raw, "name")
	if len(raw) > 0 {
		f.Properties = raw
	}
	return nil
}

func (f FactSheet) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(f.Properties)+2)
	for k, v := range f.Properties {
		out[k] = v
	}
	out["id"] = f.ID
	if f.Name != "" {
		out["name"] = f.Name
	}
	return json.Marshal(out)
}

// Snapshot is the complete content of the source at one point in time.
type Snapshot struct {
	Entities      []entity.Entity
	Relationships []classify.RawRelationship
	FetchedAt     time.Time
}

// Options configures NewClient.
type Options struct {
	BaseURL string
	Token   string // sent as a bearer token when set
	Timeout time.Duration
	Cache   cache.Cache
	Logger  *log.Logger
	// Workers bounds concurrent requests in Snapshot.
	Workers int
}

// Client fetches from one source.
type Client struct {
	*integrations.Client
	baseURL string
	logger  *log.Logger
	workers int
}

// NewClient creates a client. Responses are cached for cache.TTLHTTP.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("leanix: base URL is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	var headers map[string]string
	if opts.Token != "" {
		headers = map[string]string{"Authorization": "Bearer " + opts.Token}
	}
	c := integrations.NewClient(opts.Cache, "leanix", cache.TTLHTTP, headers)
	c.SetHTTPClient(integrations.NewHTTPClient(opts.Timeout))
	return &Client{
		Client:  c,
		baseURL: opts.BaseURL,
		logger:  opts.Logger,
		workers: opts.Workers,
	}, nil
}

// FactSheets fetches one collection.
func (c *Client) FactSheets(ctx context.Context, path string, refresh bool) ([]FactSheet, error) {
	var env envelope[FactSheet]
	err := c.Cached(ctx, path, refresh, &env, func() error {
		return c.Get(ctx, integrations.JoinURL(c.baseURL, path), &env)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	if env.Count != len(env.Data) {
		c.logger.Debug("envelope count mismatch", "path", path, "count", env.Count, "data", len(env.Data))
	}
	return env.Data, nil
}

// Entities fetches one collection as entities of the collection's type.
func (c *Client) Entities(ctx context.Context, coll Collection, refresh bool) ([]entity.Entity, error) {
	sheets, err := c.FactSheets(ctx, coll.Path, refresh)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Entity, 0, len(sheets))
	for _, s := range sheets {
		if s.ID == "" {
			c.logger.Warn("skipping fact sheet without id", "collection", coll.Path)
			continue
		}
		out = append(out, entity.Entity{ID: s.ID, Type: coll.Type, Name: s.Name, Meta: s.Properties})
	}
	return out, nil
}

// Relationships fetches all relationships.
func (c *Client) Relationships(ctx context.Context, refresh bool) ([]classify.RawRelationship, error) {
	var env envelope[classify.RawRelationship]
	err := c.Cached(ctx, relationshipsPath, refresh, &env, func() error {
		return c.Get(ctx, integrations.JoinURL(c.baseURL, relationshipsPath), &env)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", relationshipsPath, err)
	}
	return env.Data, nil
}

// Snapshot fetches every collection and the relationships concurrently.
// Entities are returned in Collections order. The first failure cancels
// the remaining requests.
func (c *Client) Snapshot(ctx context.Context, refresh bool) (Snapshot, error) {
	start := time.Now()
	parts := make([][]entity.Entity, len(Collections))
	var rels []classify.RawRelationship

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, coll := range Collections {
		g.Go(func() error {
			ents, err := c.Entities(gctx, coll, refresh)
			if err != nil {
				return err
			}
			parts[i] = ents
			return nil
		})
	}
	g.Go(func() error {
		var err error
		rels, err = c.Relationships(gctx, refresh)
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{Relationships: rels, FetchedAt: time.Now()}
	for _, p := range parts {
		snap.Entities = append(snap.Entities, p...)
	}
	c.logger.Info("fetched snapshot",
		"entities", len(snap.Entities),
		"relationships", len(snap.Relationships),
		"duration", time.Since(start))
	return snap, nil
}
