// Package syncjob copies the architecture repository into the graph store.
//
// A run fetches a [leanix.Snapshot], upserts its entities, classifies its
// relationships against the whitelist using the fetched entity types, and
// upserts the accepted ones. Every run is recorded as a [store.Job], and the
// last successful run is published to the cache under the "sync:last" key
// so other processes can tell how fresh the store is.
package syncjob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/superrelativity/relgraph/pkg/cache"
	"github.com/superrelativity/relgraph/pkg/classify"
	"github.com/superrelativity/relgraph/pkg/entity"
	"github.com/superrelativity/relgraph/pkg/integrations/leanix"
	"github.com/superrelativity/relgraph/pkg/observability"
	"github.com/superrelativity/relgraph/pkg/store"
)

// DefaultInterval is the pause between scheduled runs.
const DefaultInterval = 5 * time.Minute

// Source provides snapshots of the architecture repository.
type Source interface {
	Snapshot(ctx context.Context, refresh bool) (leanix.Snapshot, error)
}

// Marker is the cached summary of the last successful run.
type Marker struct {
	JobID         string    `json:"jobId"`
	Timestamp     time.Time `json:"timestamp"`
	TotalEntities int       `json:"totalEntities"`
}

// Options configures New.
type Options struct {
	Source  Source
	Store   store.Store
	Cache   cache.Cache // nil disables the last-sync marker
	Keyer   cache.Keyer // nil uses the default keyer
	Logger  *log.Logger // nil uses log.Default()
	Workers int         // classification workers; <= 1 classifies sequentially
	// MatchDescription lets the relationship description select the rule.
	MatchDescription bool
}

// Service runs sync jobs. Runs are serialized.
type Service struct {
	source   Source
	store    store.Store
	cache    cache.Cache
	keyer    cache.Keyer
	logger   *log.Logger
	workers  int
	classify classify.Options

	mu sync.Mutex
}

// New creates a service.
func New(opts Options) (*Service, error) {
	if opts.Source == nil {
		return nil, errors.New("syncjob: source is required")
	}
	if opts.Store == nil {
		return nil, errors.New("syncjob: store is required")
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Service{
		source:   opts.Source,
		store:    opts.Store,
		cache:    opts.Cache,
		keyer:    opts.Keyer,
		logger:   opts.Logger,
		workers:  opts.Workers,
		classify: classify.Options{MatchDescription: opts.MatchDescription},
	}, nil
}

// Run performs one sync. The returned job is also recorded in the store,
// whether the run succeeded or not; on failure the error is returned too.
func (s *Service) Run(ctx context.Context) (store.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := store.Job{
		ID:        uuid.NewString(),
		Status:    store.JobRunning,
		StartedAt: time.Now().UTC(),
	}
	logger := s.logger.With("job", job.ID)
	observability.Sync().OnSyncStart(ctx, job.ID)
	logger.Info("starting sync")

	if err := s.store.RecordJob(ctx, job); err != nil {
		observability.Sync().OnSyncComplete(ctx, job.ID, 0, 0, 0, 0, err)
		return job, fmt.Errorf("record job: %w", err)
	}

	err := s.sync(ctx, logger, &job)

	// The final record is written even when ctx was cancelled mid-run.
	done := time.Now().UTC()
	job.CompletedAt = &done
	if err != nil {
		job.Status = store.JobFailed
		job.Error = err.Error()
		logger.Error("sync failed", "err", err)
	} else {
		job.Status = store.JobCompleted
	}
	if rerr := s.store.RecordJob(context.WithoutCancel(ctx), job); rerr != nil {
		logger.Warn("failed to record job", "err", rerr)
		if err == nil {
			err = fmt.Errorf("record job: %w", rerr)
		}
	}

	duration := done.Sub(job.StartedAt)
	observability.Sync().OnSyncComplete(ctx, job.ID, job.Entities, job.Relationships, job.Rejected, duration, err)
	if err != nil {
		return job, err
	}

	s.publish(ctx, logger, job)
	logger.Info("sync completed",
		"entities", job.Entities,
		"relationships", job.Relationships,
		"rejected", job.Rejected,
		"duration", duration)
	return job, nil
}

func (s *Service) sync(ctx context.Context, logger *log.Logger, job *store.Job) error {
	snap, err := s.source.Snapshot(ctx, true)
	if err != nil {
		return fmt.Errorf("fetch snapshot: %w", err)
	}
	if err := s.store.UpsertEntities(ctx, snap.Entities); err != nil {
		return fmt.Errorf("upsert entities: %w", err)
	}
	job.Entities = len(snap.Entities)
	logger.Debug("upserted entities", "count", job.Entities)

	resolver := entity.NewIndexResolver(snap.Entities, nil)
	res, err := classify.NewClassifier(resolver, logger, s.classify).
		ClassifyConcurrent(ctx, snap.Relationships, s.workers)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}
	job.Rejected = res.Stats.Rejected

	if err := s.store.UpsertRelationships(ctx, res.Accepted); err != nil {
		return fmt.Errorf("upsert relationships: %w", err)
	}
	job.Relationships = len(res.Accepted)
	return nil
}

// publish writes the last-sync marker. Cache failures are logged only.
func (s *Service) publish(ctx context.Context, logger *log.Logger, job store.Job) {
	data, err := json.Marshal(Marker{
		JobID:         job.ID,
		Timestamp:     *job.CompletedAt,
		TotalEntities: job.Entities,
	})
	if err != nil {
		return
	}
	key := s.keyer.SyncKey("last")
	if err := s.cache.Set(ctx, key, data, cache.TTLSync); err != nil {
		logger.Warn("failed to write last-sync marker", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, cache.KeyTypeSync, len(data))
}

// LastSync returns the marker of the last successful run, if it has not
// expired.
func (s *Service) LastSync(ctx context.Context) (Marker, bool, error) {
	data, ok, err := s.cache.Get(ctx, s.keyer.SyncKey("last"))
	if err != nil {
		return Marker{}, false, err
	}
	if !ok {
		observability.Cache().OnCacheMiss(ctx, cache.KeyTypeSync)
		return Marker{}, false, nil
	}
	observability.Cache().OnCacheHit(ctx, cache.KeyTypeSync)
	var m Marker
	if err := json.Unmarshal(data, &m); err != nil {
		return Marker{}, false, fmt.Errorf("decode last-sync marker: %w", err)
	}
	return m, true, nil
}

// Jobs returns the most recent jobs, newest first.
func (s *Service) Jobs(ctx context.Context, limit int) ([]store.Job, error) {
	return s.store.Jobs(ctx, limit)
}

// Schedule runs a sync immediately and then every interval until ctx is
// done. Failed runs are logged and do not stop the schedule.
func (s *Service) Schedule(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s.logger.Info("scheduled sync", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := s.Run(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn("scheduled sync failed", "err", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
