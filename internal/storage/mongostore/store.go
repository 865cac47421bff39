// Package mongostore implements storage.Store on MongoDB, one Mongo
// collection per record collection. The record id doubles as _id.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"vidaplus/internal/model"
	"vidaplus/internal/storage"
)

// Store keeps records in a Mongo database
type Store struct {
	db  *mongo.Database
	now func() time.Time
}

// New creates a Store on db
func New(db *mongo.Database) *Store {
	return &Store{db: db, now: time.Now}
}

// EnsureIndexes creates the unique email index of the users collection
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(model.CollectionUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create users email index: %w", err)
	}
	return nil
}

// All returns every record of a collection in insertion order
func (s *Store) All(ctx context.Context, collection string) ([]model.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.db.Collection(collection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", collection, err)
	}

	recs := make([]model.Record, 0, len(docs))
	for _, d := range docs {
		recs = append(recs, toRecord(d))
	}
	return recs, nil
}

// FindByID retrieves a record by its id
func (s *Store) FindByID(ctx context.Context, collection, id string) (model.Record, error) {
	return s.findOne(ctx, collection, bson.M{"_id": id})
}

// FindBy retrieves the first record whose top-level field equals value
func (s *Store) FindBy(ctx context.Context, collection, field, value string) (model.Record, error) {
	if field == "id" {
		return s.FindByID(ctx, collection, value)
	}
	return s.findOne(ctx, collection, bson.M{field: value})
}

// Insert stores a new record
func (s *Store) Insert(ctx context.Context, collection string, rec model.Record) (model.Record, error) {
	out := storage.Prepare(rec, s.now())
	doc := bson.M(out.Clone())
	doc["_id"] = out.ID()

	if _, err := s.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, storage.ErrConflict
		}
		return nil, fmt.Errorf("failed to insert into %s: %w", collection, err)
	}
	return out, nil
}

// InsertUnique stores a new record unless one with the same field value
// exists. A unique index on the field closes the race between the check
// and the insert.
func (s *Store) InsertUnique(ctx context.Context, collection, field string, rec model.Record) (model.Record, error) {
	if v := rec.Field(field); v != "" {
		_, err := s.FindBy(ctx, collection, field, v)
		switch {
		case err == nil:
			return nil, storage.ErrConflict
		case !errors.Is(err, storage.ErrNotFound):
			return nil, err
		}
	}
	return s.Insert(ctx, collection, rec)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.db.Client().Disconnect(ctx)
}

func (s *Store) findOne(ctx context.Context, collection string, filter bson.M) (model.Record, error) {
	var doc bson.M
	if err := s.db.Collection(collection).FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find record in %s: %w", collection, err)
	}
	return toRecord(doc), nil
}

// toRecord exposes _id as id for documents inserted outside the API
func toRecord(doc bson.M) model.Record {
	rec := model.Record(doc)
	if _, ok := rec["id"]; !ok {
		if oid, isOID := rec["_id"].(primitive.ObjectID); isOID {
			rec["id"] = oid.Hex()
		} else {
			rec["id"] = rec["_id"]
		}
	}
	delete(rec, "_id")
	return rec
}
