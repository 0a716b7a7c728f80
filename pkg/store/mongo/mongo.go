// Package mongo implements store.Store on MongoDB.
//
// Data lives in three collections of one database:
//
//	entities       {_id: id, type, name, meta}
//	relationships  {from, to, type, properties}, unique on (from, to, type)
//	sync_jobs      {_id: job id, status, startedAt, ...}
//
// Upserts are issued as unordered bulk writes, so re-running a sync only
// touches changed documents.
package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/superrelativity/relgraph/pkg/classify"
	"github.com/superrelativity/relgraph/pkg/entity"
	rgerrors "github.com/superrelativity/relgraph/pkg/errors"
	"github.com/superrelativity/relgraph/pkg/graph"
	"github.com/superrelativity/relgraph/pkg/store"
)

// DefaultDatabase is used when Options.Database is empty.
const DefaultDatabase = "relgraph"

const (
	entitiesCollection      = "entities"
	relationshipsCollection = "relationships"
	jobsCollection          = "sync_jobs"
)

// Options configures Open.
type Options struct {
	URI      string
	Database string
	Logger   *log.Logger
}

// Store is a MongoDB-backed store.Store.
type Store struct {
	client   *mongo.Client
	entities *mongo.Collection
	rels     *mongo.Collection
	jobs     *mongo.Collection
	logger   *log.Logger
}

type entityDoc struct {
	ID   string         `bson:"_id"`
	Type string         `bson:"type"`
	Name string         `bson:"name,omitempty"`
	Meta map[string]any `bson:"meta,omitempty"`
}

func (d entityDoc) entity() entity.Entity {
	return entity.Entity{ID: d.ID, Type: entity.ParseType(d.Type), Name: d.Name, Meta: d.Meta}
}

// Open connects to MongoDB, pings it and ensures the indexes exist.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Database == "" {
		opts.Database = DefaultDatabase
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, rgerrors.Wrap(rgerrors.ErrCodeStore, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, rgerrors.Wrap(rgerrors.ErrCodeStore, err, "ping mongodb")
	}

	db := client.Database(opts.Database)
	s := &Store{
		client:   client,
		entities: db.Collection(entitiesCollection),
		rels:     db.Collection(relationshipsCollection),
		jobs:     db.Collection(jobsCollection),
		logger:   opts.Logger,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	opts.Logger.Debug("connected to mongodb", "database", opts.Database)
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.rels.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "from", Value: 1}, {Key: "to", Value: 1}, {Key: "type", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "to", Value: 1}}},
	})
	if err != nil {
		return rgerrors.Wrap(rgerrors.ErrCodeStore, err, "create relationship indexes")
	}
	_, err = s.jobs.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "startedAt", Value: -1}}})
	if err != nil {
		return rgerrors.Wrap(rgerrors.ErrCodeStore, err, "create job index")
	}
	return nil
}

func (s *Store) UpsertEntities(ctx context.Context, entities []entity.Entity) error {
	if len(entities) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(entities))
	for _, e := range entities {
		doc := entityDoc{ID: e.ID, Type: e.Type.String(), Name: e.Name, Meta: e.Meta}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": e.ID}).
			SetReplacement(doc).
			SetUpsert(true))
	}
	res, err := s.entities.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return rgerrors.Wrap(rgerrors.ErrCodeStore, err, "upsert entities")
	}
	s.logger.Debug("upserted entities", "upserted", res.UpsertedCount, "modified", res.ModifiedCount)
	return nil
}

func (s *Store) UpsertRelationships(ctx context.Context, rels []classify.ClassifiedRelationship) error {
	if len(rels) == 0 {
		return nil
	}
	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(rels))
	for _, r := range rels {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"from": r.From, "to": r.To, "type": r.CanonicalType}).
			SetUpdate(bson.M{
				"$set":         bson.M{"properties": r.Properties, "updatedAt": now},
				"$setOnInsert": bson.M{"createdAt": now},
			}).
			SetUpsert(true))
	}
	res, err := s.rels.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return rgerrors.Wrap(rgerrors.ErrCodeStore, err, "upsert relationships")
	}
	s.logger.Debug("upserted relationships", "upserted", res.UpsertedCount, "modified", res.ModifiedCount)
	return nil
}

func (s *Store) neighbours(ctx context.Context, frontier []string) ([]classify.ClassifiedRelationship, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"from": bson.M{"$in": frontier}},
		bson.M{"to": bson.M{"$in": frontier}},
	}}
	cur, err := s.rels.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, rgerrors.Wrap(rgerrors.ErrCodeStore, err, "find relationships")
	}
	var out []classify.ClassifiedRelationship
	if err := cur.All(ctx, &out); err != nil {
		return nil, rgerrors.Wrap(rgerrors.ErrCodeStore, err, "decode relationships")
	}
	return out, nil
}

func (s *Store) lookup(ctx context.Context, ids []string) (map[string]entity.Entity, error) {
	cur, err := s.entities.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, rgerrors.Wrap(rgerrors.ErrCodeStore, err, "find entities")
	}
	var docs []entityDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, rgerrors.Wrap(rgerrors.ErrCodeStore, err, "decode entities")
	}
	out := make(map[string]entity.Entity, len(docs))
	for _, d := range docs {
		out[d.ID] = d.entity()
	}
	return out, nil
}

func (s *Store) Graph(ctx context.Context, q store.Query) (graph.Graph, error) {
	return store.Traverse(ctx, q, s.neighbours, s.lookup)
}

func (s *Store) Impact(ctx context.Context, id string) (store.Impact, error) {
	found, err := s.lookup(ctx, []string{id})
	if err != nil {
		return store.Impact{}, err
	}
	e, ok := found[id]
	if !ok {
		return store.Impact{}, store.ErrNotFound
	}

	rels, err := s.neighbours(ctx, []string{id})
	if err != nil {
		return store.Impact{}, err
	}
	ids := make([]string, 0, len(rels))
	for _, r := range rels {
		ids = append(ids, r.From, r.To)
	}
	others, err := s.lookup(ctx, ids)
	if err != nil {
		return store.Impact{}, err
	}
	resolve := func(id string) entity.Entity {
		if e, ok := others[id]; ok {
			return e
		}
		return entity.ResolveEntity(id)
	}

	imp := store.Impact{Entity: e}
	for _, r := range rels {
		switch id {
		case r.To:
			imp.Upstream = append(imp.Upstream, store.Link{Entity: resolve(r.From), Relationship: r.CanonicalType})
		case r.From:
			imp.Downstream = append(imp.Downstream, store.Link{Entity: resolve(r.To), Relationship: r.CanonicalType})
		}
	}
	return imp, nil
}

func (s *Store) RecordJob(ctx context.Context, job store.Job) error {
	_, err := s.jobs.ReplaceOne(ctx, bson.M{"_id": job.ID}, job, options.Replace().SetUpsert(true))
	if err != nil {
		return rgerrors.Wrap(rgerrors.ErrCodeStore, err, "record job %s", job.ID)
	}
	return nil
}

func (s *Store) Jobs(ctx context.Context, limit int) ([]store.Job, error) {
	opts := options.Find().SetSort(bson.D{{Key: "startedAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.jobs.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, rgerrors.Wrap(rgerrors.ErrCodeStore, err, "find jobs")
	}
	var jobs []store.Job
	if err := cur.All(ctx, &jobs); err != nil {
		return nil, rgerrors.Wrap(rgerrors.ErrCodeStore, err, "decode jobs")
	}
	return jobs, nil
}

// Drop removes all collections. It is used by tests.
func (s *Store) Drop(ctx context.Context) error {
	return errors.Join(s.entities.Drop(ctx), s.rels.Drop(ctx), s.jobs.Drop(ctx))
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ store.Store = (*Store)(nil)
