package classify

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/superrelativity/relgraph/pkg/entity"
	"github.com/superrelativity/relgraph/pkg/observability"
)

// Result is the outcome of classifying a batch.
type Result struct {
	Accepted []ClassifiedRelationship `json:"accepted"`
	Rejected []Rejection              `json:"rejected"`
	Stats    Stats                    `json:"stats"`
}

// Stats summarizes a batch.
type Stats struct {
	Total    int                  `json:"total"`
	Accepted int                  `json:"accepted"`
	Rejected int                  `json:"rejected"`
	ByType   map[RelationType]int `json:"byType"`
	Duration time.Duration        `json:"duration"`
}

// Classifier classifies batches, resolving endpoint types from ids.
// Rejections are logged at warn level and reported to the pipeline hooks.
type Classifier struct {
	Resolver entity.Resolver
	Logger   *log.Logger
	Options  Options
}

// NewClassifier creates a classifier. A nil resolver uses the default prefix
// table and a nil logger uses log.Default().
func NewClassifier(resolver entity.Resolver, logger *log.Logger, opts Options) *Classifier {
	if resolver == nil {
		resolver = entity.NewPrefixResolver(nil)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Classifier{Resolver: resolver, Logger: logger, Options: opts}
}

type outcome struct {
	rel       ClassifiedRelationship
	rejection Rejection
	ok        bool
}

func (c *Classifier) one(ctx context.Context, rel RawRelationship) outcome {
	from, to := c.Resolver.Resolve(rel.From), c.Resolver.Resolve(rel.To)
	if out, ok := ClassifyWith(rel, from, to, c.Options); ok {
		return outcome{rel: out, ok: true}
	}
	observability.Pipeline().OnRelationshipRejected(ctx, from.String(), to.String())
	return outcome{rejection: Rejection{Relationship: rel, FromType: from, ToType: to}}
}

// ClassifyAll classifies rels in order. It never fails on rejected records.
func (c *Classifier) ClassifyAll(ctx context.Context, rels []RawRelationship) Result {
	start := time.Now()
	observability.Pipeline().OnClassifyStart(ctx, len(rels))

	outcomes := make([]outcome, len(rels))
	for i, rel := range rels {
		outcomes[i] = c.one(ctx, rel)
	}
	return c.collect(ctx, outcomes, start)
}

// ClassifyConcurrent classifies rels on up to workers goroutines. The result
// lists records in input order, identical to ClassifyAll; only the order of
// rejection log lines may differ. It returns ctx.Err() if ctx is cancelled.
func (c *Classifier) ClassifyConcurrent(ctx context.Context, rels []RawRelationship, workers int) (Result, error) {
	if workers <= 1 {
		return c.ClassifyAll(ctx, rels), nil
	}
	start := time.Now()
	observability.Pipeline().OnClassifyStart(ctx, len(rels))

	outcomes := make([]outcome, len(rels))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, rel := range rels {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = c.one(gctx, rel)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		observability.Pipeline().OnClassifyComplete(ctx, 0, 0, time.Since(start), err)
		return Result{}, err
	}
	return c.collect(ctx, outcomes, start), nil
}

func (c *Classifier) collect(ctx context.Context, outcomes []outcome, start time.Time) Result {
	res := Result{
		Accepted: make([]ClassifiedRelationship, 0, len(outcomes)),
		Stats:    Stats{Total: len(outcomes), ByType: make(map[RelationType]int)},
	}
	for _, o := range outcomes {
		if o.ok {
			res.Accepted = append(res.Accepted, o.rel)
			res.Stats.ByType[o.rel.CanonicalType]++
			continue
		}
		res.Rejected = append(res.Rejected, o.rejection)
		c.Logger.Warn("rejected relationship",
			"from", o.rejection.Relationship.From,
			"to", o.rejection.Relationship.To,
			"from_type", o.rejection.FromType,
			"to_type", o.rejection.ToType,
			"hint", o.rejection.Relationship.Type)
	}
	res.Stats.Accepted = len(res.Accepted)
	res.Stats.Rejected = len(res.Rejected)
	res.Stats.Duration = time.Since(start)

	observability.Pipeline().OnClassifyComplete(ctx, res.Stats.Accepted, res.Stats.Rejected, res.Stats.Duration, nil)
	c.Logger.Debug("classified relationships",
		"total", res.Stats.Total,
		"accepted", res.Stats.Accepted,
		"rejected", res.Stats.Rejected,
		"duration", res.Stats.Duration)
	return res
}
