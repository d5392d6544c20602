// Package mongo serves record snapshots from MongoDB, one collection per
// dataset.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/okian/streetpass/internal/adapters/repository"
	"github.com/okian/streetpass/internal/domain/model"
)

const connectTimeout = 10 * time.Second

// Provider is a repository.Provider backed by a MongoDB database.
type Provider struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri, pings the primary and selects database.
func Connect(ctx context.Context, uri, database string) (*Provider, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return &Provider{client: client, db: client.Database(database)}, nil
}

// Put upserts records into the dataset's collection by _id.
func (p *Provider) Put(ctx context.Context, dataset repository.Dataset, records ...model.RawRecord) error {
	if _, err := repository.Lookup(dataset); err != nil {
		return err
	}
	coll := p.db.Collection(string(dataset))
	for _, rec := range records {
		doc := bson.M{}
		for k, v := range rec.Fields {
			doc[k] = v
		}
		_, err := coll.ReplaceOne(ctx, bson.M{"_id": rec.ID}, doc, options.Replace().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("failed to upsert %s/%s: %w", dataset, rec.ID, err)
		}
	}
	return nil
}

// Fetch implements repository.Provider.
func (p *Provider) Fetch(ctx context.Context, dataset repository.Dataset, filter repository.Filter) ([]model.RawRecord, error) {
	spec, err := repository.Lookup(dataset)
	if err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	cursor, err := p.db.Collection(string(dataset)).Find(ctx, buildFilter(spec, filter), findOptions(spec, filter))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", repository.ErrFetch, dataset, err)
	}
	defer cursor.Close(ctx)

	var out []model.RawRecord
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", repository.ErrFetch, dataset, err)
		}
		out = append(out, toRecord(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", repository.ErrFetch, dataset, err)
	}
	return out, nil
}

// Close implements repository.Provider.
func (p *Provider) Close(ctx context.Context) error {
	return p.client.Disconnect(ctx)
}

func buildFilter(spec repository.Spec, filter repository.Filter) bson.M {
	if filter.Since.IsZero() {
		return bson.M{}
	}
	var bound any = filter.Since.UTC()
	if spec.Encoding == repository.EpochMillis {
		bound = filter.Since.UnixMilli()
	}
	return bson.M{spec.TimeField: bson.M{"$gte": bound}}
}

func findOptions(spec repository.Spec, filter repository.Filter) *options.FindOptions {
	opts := options.Find()
	if filter.Desc {
		opts.SetSort(bson.D{{Key: spec.TimeField, Value: -1}})
	}
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	return opts
}

func toRecord(doc bson.M) model.RawRecord {
	rec := model.RawRecord{Fields: make(map[string]any, len(doc))}
	for k, v := range doc {
		if k == "_id" {
			rec.ID = idString(v)
			continue
		}
		rec.Fields[k] = plain(v)
	}
	return rec
}

func idString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case primitive.ObjectID:
		return id.Hex()
	}
	return fmt.Sprint(v)
}

// plain converts driver types into the shapes normalization understands.
func plain(v any) any {
	switch t := v.(type) {
	case bson.M:
		m := make(map[string]any, len(t))
		for k, inner := range t {
			m[k] = plain(inner)
		}
		return m
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = plain(e.Value)
		}
		return m
	case bson.A:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = plain(inner)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(t.T), 0).UTC()
	case primitive.ObjectID:
		return t.Hex()
	case primitive.Decimal128:
		return t.String()
	}
	return v
}
