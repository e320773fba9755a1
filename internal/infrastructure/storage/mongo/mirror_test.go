package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"studentrecords/internal/domain/mirror"
	"studentrecords/internal/domain/record"
)

type mockCollection struct {
	replaceOneFunc func(ctx context.Context, filter, replacement any, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
	deleteOneFunc  func(ctx context.Context, filter any, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

func (m *mockCollection) ReplaceOne(ctx context.Context, filter, replacement any, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
	if m.replaceOneFunc != nil {
		return m.replaceOneFunc(ctx, filter, replacement, opts...)
	}
	return &mongo.UpdateResult{}, nil
}

func (m *mockCollection) DeleteOne(ctx context.Context, filter any, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	if m.deleteOneFunc != nil {
		return m.deleteOneFunc(ctx, filter, opts...)
	}
	return &mongo.DeleteResult{}, nil
}

func sampleDoc() mirror.Document {
	return mirror.NewDocument(&record.Record{
		ID:         1,
		FirstName:  "Ann",
		LastName:   "Lee",
		ClassLabel: "10A",
		CreatedAt:  time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	})
}

func TestMirrorStore_UpsertReplacesByID(t *testing.T) {
	var gotFilter, gotDoc any
	var upsert *bool
	coll := &mockCollection{
		replaceOneFunc: func(ctx context.Context, filter, replacement any, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			gotFilter, gotDoc = filter, replacement
			require.Len(t, opts, 1)
			upsert = opts[0].Upsert
			return &mongo.UpdateResult{UpsertedCount: 1}, nil
		},
	}

	err := NewMirrorStore(coll).Upsert(context.Background(), 1, sampleDoc())

	require.NoError(t, err)
	assert.Equal(t, bson.M{"_id": int64(1)}, gotFilter)
	assert.Equal(t, sampleDoc(), gotDoc)
	require.NotNil(t, upsert)
	assert.True(t, *upsert)
}

func TestMirrorStore_DocumentShape(t *testing.T) {
	raw, err := bson.Marshal(sampleDoc())
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	assert.Equal(t, int64(1), m["_id"])
	assert.Equal(t, "10A", m["Class"])
	assert.Equal(t, "Ann", m["first_name"])
	assert.Equal(t, "2026-03-01T09:30:00Z", m["created_at"])
	assert.NotContains(t, m, "class_label")
}

func TestMirrorStore_Delete(t *testing.T) {
	var gotFilter any
	coll := &mockCollection{
		deleteOneFunc: func(_ context.Context, filter any, _ ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
			gotFilter = filter
			return &mongo.DeleteResult{DeletedCount: 0}, nil
		},
	}

	require.NoError(t, NewMirrorStore(coll).Delete(context.Background(), 5))
	assert.Equal(t, bson.M{"_id": int64(5)}, gotFilter)
}

func TestMirrorStore_WrapsErrors(t *testing.T) {
	boom := errors.New("no reachable servers")
	coll := &mockCollection{
		replaceOneFunc: func(context.Context, any, any, ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
			return nil, boom
		},
		deleteOneFunc: func(context.Context, any, ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
			return nil, boom
		},
	}
	store := NewMirrorStore(coll)

	assert.ErrorIs(t, store.Upsert(context.Background(), 1, sampleDoc()), boom)
	assert.ErrorIs(t, store.Delete(context.Background(), 1), boom)
}
