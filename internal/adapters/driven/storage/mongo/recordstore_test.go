package mongo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/custodia-labs/galassia/internal/core/domain"
)

func TestRecordStore_Find(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("normalises documents", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
				{Key: "_id", Value: id},
				{Key: "page_content", Value: "Sinfonia Cosmica"},
				{Key: "planet_name", Value: "Pandora"},
				{Key: "dish_ingredients", Value: bson.A{"Kraken", "Alghe"}},
				{Key: "stars", Value: int32(3)},
			}),
			mtest.CreateCursorResponse(0, ns, mtest.NextBatch),
		)
		store := newRecordStore(mt.Coll)

		records, err := store.Find(context.Background(), map[string]any{"planet_name": "Pandora"})

		require.NoError(mt, err)
		require.Len(mt, records, 1)
		assert.Equal(mt, id.Hex(), records[0]["_id"])
		assert.Equal(mt, []any{"Kraken", "Alghe"}, records[0]["dish_ingredients"])
		assert.Equal(mt, 3, records[0]["stars"])

		doc := records[0].ToDocument()
		assert.Equal(mt, "Sinfonia Cosmica", doc.Content)
		assert.Equal(mt, id.Hex(), doc.ID)
	})

	mt.Run("no match", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		store := newRecordStore(mt.Coll)

		records, err := store.Find(context.Background(), nil)

		require.NoError(mt, err)
		assert.Empty(mt, records)
	})

	mt.Run("server rejects query", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "unknown operator: $foo",
		}))
		store := newRecordStore(mt.Coll)

		_, err := store.Find(context.Background(), map[string]any{"a": map[string]any{"$foo": 1}})

		assert.ErrorIs(mt, err, domain.ErrStoreQuery)
		assert.NotErrorIs(mt, err, domain.ErrUnavailable)
	})
}

func TestRecordStore_DescribeSchema(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("distinct values per key", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
				bson.D{{Key: "_id", Value: "planet_name"}},
				bson.D{{Key: "_id", Value: "_id"}},
				bson.D{{Key: "_id", Value: "dish_techniques"}},
				bson.D{{Key: "_id", Value: "page_content"}},
			),
			// dish_techniques sorts first.
			mtest.CreateSuccessResponse(bson.E{Key: "values", Value: bson.A{"Surgelamento", "Affumicatura"}}),
			mtest.CreateSuccessResponse(bson.E{Key: "values", Value: bson.A{"Tatooine", "Pandora", nil}}),
		)
		store := newRecordStore(mt.Coll)

		fields, err := store.DescribeSchema(context.Background())

		require.NoError(mt, err)
		assert.Equal(mt, domain.FieldDescriptions{
			"dish_techniques": {"Affumicatura", "Surgelamento"},
			"planet_name":     {"Pandora", "Tatooine"},
		}, fields)
	})
}

func TestRecordStore_Insert(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("inserts every record", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}))
		store := newRecordStore(mt.Coll)

		err := store.Insert(context.Background(), []domain.Record{
			{"page_content": "a"},
			{"page_content": "b"},
		})

		require.NoError(mt, err)
		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "insert", started.CommandName)
	})

	mt.Run("empty insert is a no-op", func(mt *mtest.T) {
		store := newRecordStore(mt.Coll)

		assert.NoError(mt, store.Insert(context.Background(), nil))
		assert.Nil(mt, mt.GetStartedEvent())
	})
}

func TestNewRecordStore_RequiresURI(t *testing.T) {
	_, err := NewRecordStore(context.Background(), domain.RecordStoreSettings{})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestClassify(t *testing.T) {
	assert.ErrorIs(t, classify("find", context.DeadlineExceeded), domain.ErrStoreUnavailable)
	assert.NotErrorIs(t, classify("find", context.Canceled), domain.ErrStoreUnavailable)
	assert.ErrorIs(t, classify("find", context.Canceled), context.Canceled)
}

func TestRecordStore_CloseWithoutClient(t *testing.T) {
	assert.NoError(t, (&RecordStore{}).Close())
}
