package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/superrelativity/relgraph/pkg/cache"
	"github.com/superrelativity/relgraph/pkg/classify"
	"github.com/superrelativity/relgraph/pkg/entity"
	"github.com/superrelativity/relgraph/pkg/graph"
	"github.com/superrelativity/relgraph/pkg/layout"
	"github.com/superrelativity/relgraph/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache    cache.Cache
	Keyer    cache.Keyer
	Logger   *log.Logger
	Resolver entity.Resolver
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:    c,
		Keyer:    keyer,
		Logger:   logger,
		Resolver: entity.NewPrefixResolver(nil),
	}
}

// Execute composes the layout of g and renders it in opts.Formats.
func (r *Runner) Execute(ctx context.Context, g graph.Graph, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	result := &Result{}

	layoutStart := time.Now()
	state, layoutHit, err := r.LayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.State = state
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit
	if hash, err := GraphHash(g); err == nil {
		result.GraphHash = hash
	}

	l := state.Layout()
	result.Stats.NodeCount = len(l.Nodes)
	result.Stats.EdgeCount = len(l.Edges)
	r.Logger.Info("composed layout",
		"nodes", l.Stats.Nodes,
		"visible", l.Stats.Visible,
		"reverse", l.Stats.Reverse,
		"levels", l.Stats.Levels,
		"duration", result.Stats.LayoutTime)

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Classify classifies rels, on opts.Workers goroutines when more than one.
func (r *Runner) Classify(ctx context.Context, rels []classify.RawRelationship, opts Options) (classify.Result, error) {
	if err := opts.ValidateForClassify(); err != nil {
		return classify.Result{}, err
	}
	r.applyLogger(&opts)

	c := classify.NewClassifier(r.Resolver, opts.Logger, opts.ClassifyOptions())
	res, err := c.ClassifyConcurrent(ctx, rels, opts.Workers)
	if err != nil {
		return classify.Result{}, err
	}
	r.Logger.Info("classified relationships",
		"total", res.Stats.Total,
		"accepted", res.Stats.Accepted,
		"rejected", res.Stats.Rejected)
	return res, nil
}

// LayoutWithCacheInfo composes the initial layout of g with caching and
// returns cache hit info. The cached value is the initial layout; every
// call returns a fresh State.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, g graph.Graph, opts Options) (*layout.State, bool, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	graphHash, err := GraphHash(g)
	if err != nil {
		return nil, false, err
	}
	cacheKey := r.Keyer.LayoutKey(graphHash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit := r.get(ctx, cache.KeyTypeLayout, cacheKey); hit {
			cached, err := graph.UnmarshalLayout(data)
			if err == nil {
				return layout.Restore(layout.Snapshot{Layout: cached}), true, nil
			}
			opts.Logger.Debug("discarding cached layout", "key", cacheKey, "error", err)
		}
	}

	state := layout.ComposeContext(ctx, g, opts.LayoutOptions())

	if data, err := graph.MarshalLayout(state.Layout()); err == nil {
		r.set(ctx, cache.KeyTypeLayout, cacheKey, data, cache.TTLLayout)
	}

	return state, false, nil
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, g graph.Graph, opts Options) (*layout.State, error) {
	state, _, err := r.LayoutWithCacheInfo(ctx, g, opts)
	return state, err
}

// Toggle flips the collapse state of id and reports the toggle to the
// pipeline hooks. Unknown ids and leaves change nothing and return false.
func (r *Runner) Toggle(ctx context.Context, state *layout.State, id string) bool {
	if !state.Toggle(id) {
		r.Logger.Debug("toggle ignored", "node", id, "known", state.Has(id))
		return false
	}
	observability.Pipeline().OnToggle(ctx, id, state.Collapsed(id), len(state.Descendants(id)))
	return true
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l graph.Layout, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	layoutData, err := graph.MarshalLayout(l)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)

	artifacts := make(map[string][]byte, len(opts.Formats))
	if !opts.Refresh {
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			data, hit := r.get(ctx, cache.KeyTypeArtifact, cacheKey)
			if !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	rendered, err := Render(ctx, l, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		r.set(ctx, cache.KeyTypeArtifact, cacheKey, data, cache.TTLArtifact)
	}

	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, l graph.Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// get reads a cache entry. Read failures count as misses.
func (r *Runner) get(ctx context.Context, keyType, key string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("cache read failed", "key", key, "error", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

func (r *Runner) set(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Debug("cache write failed", "key", key, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
