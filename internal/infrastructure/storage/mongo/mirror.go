// Package mongo provides the MongoDB Mirror Store.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"studentrecords/internal/domain/mirror"
	"studentrecords/pkg/logger"
)

// DefaultWriteTimeout bounds a single mirror write.
const DefaultWriteTimeout = 5 * time.Second

// Collection is the subset of *mongo.Collection the mirror uses.
type Collection interface {
	ReplaceOne(ctx context.Context, filter any, replacement any,
		opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter any,
		opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

var _ mirror.Store = (*MirrorStore)(nil)

// MirrorStore keeps one document per record, keyed by record id in _id.
type MirrorStore struct {
	coll    Collection
	timeout time.Duration
}

// NewMirrorStore creates a store writing to coll.
func NewMirrorStore(coll Collection) *MirrorStore {
	return &MirrorStore{coll: coll, timeout: DefaultWriteTimeout}
}

// Upsert implements mirror.Store. The whole document is replaced.
func (s *MirrorStore) Upsert(ctx context.Context, key int64, doc mirror.Document) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	doc.ID = key
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("replace document %d: %w", key, err)
	}
	return nil
}

// Delete implements mirror.Store.
func (s *MirrorStore) Delete(ctx context.Context, key int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("delete document %d: %w", key, err)
	}
	return nil
}

// Connect establishes a connection to MongoDB and verifies it with a ping.
// The caller disconnects the returned client.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	logger.Debug(ctx, "connecting to MongoDB")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	logger.Info(ctx, "connected to MongoDB")
	return client, nil
}

// Open connects and returns a MirrorStore over database/collection,
// plus a function that disconnects the client.
func Open(ctx context.Context, uri, database, collection string) (*MirrorStore, func(context.Context) error, error) {
	client, err := Connect(ctx, uri)
	if err != nil {
		return nil, nil, err
	}
	coll := client.Database(database).Collection(collection)
	return NewMirrorStore(coll), client.Disconnect, nil
}
