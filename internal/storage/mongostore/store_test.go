package mongostore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"vidaplus/internal/model"
	"vidaplus/internal/storage"
)

func TestStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("all", func(mt *mtest.T) {
		s := New(mt.DB)
		ns := mt.DB.Name() + "." + model.CollectionAppointments
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns, mtest.FirstBatch,
				bson.D{{Key: "_id", Value: "a1"}, {Key: "id", Value: "a1"}, {Key: "service", Value: "Cardiology"}}),
			mtest.CreateCursorResponse(0, ns, mtest.NextBatch,
				bson.D{{Key: "_id", Value: "a2"}, {Key: "id", Value: "a2"}, {Key: "service", Value: "Pediatrics"}}),
		)

		recs, err := s.All(context.Background(), model.CollectionAppointments)
		require.NoError(mt, err)
		require.Len(mt, recs, 2)
		assert.Equal(mt, "a1", recs[0].ID())
		assert.Equal(mt, "Pediatrics", recs[1]["service"])
		assert.NotContains(mt, recs[0], "_id")
	})

	mt.Run("find by id", func(mt *mtest.T) {
		s := New(mt.DB)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".patients", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: oid}, {Key: "name", Value: "Maria"}}))

		rec, err := s.FindByID(context.Background(), model.CollectionPatients, oid.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, oid.Hex(), rec.ID())
		assert.Equal(mt, "Maria", rec["name"])
	})

	mt.Run("find by id not found", func(mt *mtest.T) {
		s := New(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".users", mtest.FirstBatch))

		_, err := s.FindByID(context.Background(), model.CollectionUsers, "missing")
		assert.ErrorIs(mt, err, storage.ErrNotFound)
	})

	mt.Run("insert", func(mt *mtest.T) {
		s := New(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		rec, err := s.Insert(context.Background(), model.CollectionAppointments, model.Record{"service": "X-Ray"})
		require.NoError(mt, err)
		assert.NotEmpty(mt, rec.ID())
		assert.Contains(mt, rec, "createdAt")
		assert.NotContains(mt, rec, "_id")
	})

	mt.Run("insert duplicate key", func(mt *mtest.T) {
		s := New(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		_, err := s.Insert(context.Background(), model.CollectionUsers, model.Record{"email": "a@vidaplus.com"})
		assert.ErrorIs(mt, err, storage.ErrConflict)
	})

	mt.Run("insert unique finds existing", func(mt *mtest.T) {
		s := New(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".users", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "u1"}, {Key: "email", Value: "a@vidaplus.com"}}))

		_, err := s.InsertUnique(context.Background(), model.CollectionUsers, "email", model.Record{"email": "a@vidaplus.com"})
		assert.ErrorIs(mt, err, storage.ErrConflict)
	})

	mt.Run("insert unique", func(mt *mtest.T) {
		s := New(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, mt.DB.Name()+".users", mtest.FirstBatch),
			mtest.CreateSuccessResponse(),
		)

		rec, err := s.InsertUnique(context.Background(), model.CollectionUsers, "email", model.Record{"email": "b@vidaplus.com"})
		require.NoError(mt, err)
		assert.Equal(mt, "b@vidaplus.com", rec["email"])
	})

	mt.Run("ping", func(mt *mtest.T) {
		s := New(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		assert.NoError(mt, s.Ping(context.Background()))
	})
}
