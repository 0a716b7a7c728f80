package cli

import (
	"context"
	"fmt"

	"github.com/superrelativity/relgraph/internal/config"
	"github.com/superrelativity/relgraph/pkg/cache"
	"github.com/superrelativity/relgraph/pkg/integrations/leanix"
	"github.com/superrelativity/relgraph/pkg/pipeline"
	"github.com/superrelativity/relgraph/pkg/session"
	"github.com/superrelativity/relgraph/pkg/store"
	"github.com/superrelativity/relgraph/pkg/store/mongo"
)

// =============================================================================
// Backend Factories
// =============================================================================

// newCache opens the configured cache. noCache forces the null cache.
func newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case "redis":
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return rc, nil
	case "file":
		dir := cfg.Cache.Dir
		if dir == "" {
			d, err := cacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
			dir = d
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return fc, nil
	default:
		return cache.NewNullCache(), nil
	}
}

// newRunner creates a pipeline runner on the configured cache.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config, noCache bool) (*pipeline.Runner, error) {
	cc, err := newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return pipeline.NewRunner(cc, nil, c.Logger), nil
}

// newStore opens the configured graph store.
func (c *CLI) newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Store.Backend != "mongo" {
		return store.NewMemory(), nil
	}
	s, err := mongo.Open(ctx, mongo.Options{
		URI:      cfg.Store.URI,
		Database: cfg.Store.Database,
		Logger:   c.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return s, nil
}

// newSessions opens the configured session store. The redis backend reuses
// the cache's connection when the cache is redis too.
func newSessions(ctx context.Context, cfg *config.Config, cc cache.Cache) (session.Store, error) {
	switch cfg.Session.Backend {
	case "redis":
		rc, ok := cc.(*cache.RedisCache)
		if !ok {
			var err error
			rc, err = cache.NewRedisCache(ctx, cache.RedisOptions{
				Addr:     cfg.Cache.RedisAddr,
				Password: cfg.Cache.RedisPassword,
				DB:       cfg.Cache.RedisDB,
			})
			if err != nil {
				return nil, fmt.Errorf("open session store: %w", err)
			}
		}
		return session.NewRedisStore(rc.Client(), ""), nil
	case "file":
		return session.NewFileStore(cfg.Session.Dir)
	default:
		return session.NewMemoryStore(), nil
	}
}

// newSource creates the architecture repository client.
func (c *CLI) newSource(cfg *config.Config, cc cache.Cache) (*leanix.Client, error) {
	return leanix.NewClient(leanix.Options{
		BaseURL: cfg.Source.URL,
		Token:   cfg.Source.Token,
		Timeout: cfg.Source.Timeout.Std(),
		Cache:   cc,
		Logger:  c.Logger,
		Workers: cfg.Sync.Workers,
	})
}
