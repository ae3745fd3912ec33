// Package mongo provides a MongoDB implementation of driven.RecordStore.
//
// Generated queries are MongoDB filters already, so Find hands them to the
// server unchanged and classifies the failure: errors reported by the server
// mean the query was rejected, anything else means the store is unreachable.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
	"github.com/custodia-labs/galassia/internal/logger"
)

// Ensure RecordStore implements the interface.
var _ driven.RecordStore = (*RecordStore)(nil)

const (
	// DefaultDatabase is used when no database is configured.
	DefaultDatabase = "galassia"

	// DefaultCollection is used when no collection is configured.
	DefaultCollection = "dishes"

	// connectTimeout bounds server selection on connect and ping.
	connectTimeout = 10 * time.Second
)

// schemaExcluded are record keys that are not queryable metadata.
var schemaExcluded = map[string]struct{}{
	"_id":          {},
	"embedding":    {},
	"page_content": {},
}

// RecordStore queries one MongoDB collection.
type RecordStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewRecordStore connects to MongoDB and verifies the connection.
func NewRecordStore(ctx context.Context, settings domain.RecordStoreSettings) (*RecordStore, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: mongo uri is required", domain.ErrInvalidInput)
	}
	database := settings.Database
	if database == "" {
		database = DefaultDatabase
	}
	collection := settings.Collection
	if collection == "" {
		collection = DefaultCollection
	}

	opts := options.Client().ApplyURI(settings.URI).SetServerSelectionTimeout(connectTimeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w: %w", domain.ErrStoreUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w: %w", domain.ErrStoreUnavailable, err)
	}

	logger.Debug("Connected to mongo %s.%s", database, collection)
	return &RecordStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

// newRecordStore wraps an existing collection.
func newRecordStore(collection *mongo.Collection) *RecordStore {
	return &RecordStore{collection: collection}
}

// Find runs filter against the collection.
func (s *RecordStore) Find(ctx context.Context, filter map[string]any) ([]domain.Record, error) {
	if filter == nil {
		filter = map[string]any{}
	}

	cursor, err := s.collection.Find(ctx, bson.M(filter))
	if err != nil {
		return nil, classify("find records", err)
	}

	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, classify("read records", err)
	}

	records := make([]domain.Record, len(raw))
	for i, doc := range raw {
		records[i] = toRecord(doc)
	}
	return records, nil
}

// DescribeSchema lists every top-level key with its sorted distinct values.
func (s *RecordStore) DescribeSchema(ctx context.Context) (domain.FieldDescriptions, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return nil, err
	}

	fields := make(domain.FieldDescriptions, len(keys))
	for _, key := range keys {
		values, err := s.collection.Distinct(ctx, key, bson.D{})
		if err != nil {
			return nil, classify("distinct "+key, err)
		}
		set := make(map[string]struct{}, len(values))
		for _, v := range values {
			if v == nil {
				continue
			}
			set[fmt.Sprint(normalise(v))] = struct{}{}
		}
		distinct := make([]string, 0, len(set))
		for v := range set {
			distinct = append(distinct, v)
		}
		sort.Strings(distinct)
		fields[key] = distinct
	}
	return fields, nil
}

// keys returns the sorted top-level keys present in any document.
func (s *RecordStore) keys(ctx context.Context) ([]string, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$project", Value: bson.D{{Key: "kv", Value: bson.D{{Key: "$objectToArray", Value: "$$ROOT"}}}}}},
		{{Key: "$unwind", Value: "$kv"}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$kv.k"}}}},
	}
	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, classify("list keys", err)
	}

	var groups []struct {
		Key string `bson:"_id"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, classify("read keys", err)
	}

	keys := make([]string, 0, len(groups))
	for _, g := range groups {
		if _, skip := schemaExcluded[g.Key]; skip {
			continue
		}
		keys = append(keys, g.Key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Insert stores records.
func (s *RecordStore) Insert(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]any, len(records))
	for i, r := range records {
		docs[i] = bson.M(r)
	}
	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		return classify("insert records", err)
	}
	return nil
}

// Close disconnects the client.
func (s *RecordStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

// classify marks server rejections as query errors and everything else as
// an unreachable store.
func classify(op string, err error) error {
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) && !mongo.IsNetworkError(err) && !mongo.IsTimeout(err) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreQuery, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}

// toRecord converts a decoded document into plain Go values.
func toRecord(doc bson.M) domain.Record {
	rec := make(domain.Record, len(doc))
	for k, v := range doc {
		rec[k] = normalise(v)
	}
	return rec
}

func normalise(v any) any {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case primitive.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalise(e)
		}
		return out
	case bson.M:
		return map[string]any(toRecord(t))
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalise(e.Value)
		}
		return out
	case int32:
		return int(t)
	case int64:
		return int(t)
	default:
		return v
	}
}
