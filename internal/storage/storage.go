// Package storage defines the persistence contract of the mock API: a set
// of named collections of schemaless records with read-all, find and
// insert operations. Implementations live in the jsonfile, postgres
// and mongostore subpackages.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"vidaplus/internal/model"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

// Store is the persistence handle passed into repositories
type Store interface {
	All(ctx context.Context, collection string) ([]model.Record, error)
	FindByID(ctx context.Context, collection, id string) (model.Record, error)
	FindBy(ctx context.Context, collection, field, value string) (model.Record, error)
	Insert(ctx context.Context, collection string, rec model.Record) (model.Record, error)
	InsertUnique(ctx context.Context, collection, field string, rec model.Record) (model.Record, error)
	Ping(ctx context.Context) error
	Close() error
}

// Prepare returns a copy of rec ready for insertion: it assigns an id when
// the record has none and stamps createdAt (if absent) and updatedAt.
// Every mutating path of every store goes through it.
func Prepare(rec model.Record, now time.Time) model.Record {
	out := rec.Clone()
	if out.ID() == "" {
		out["id"] = uuid.NewString()
	}
	ts := now.UTC().Format(time.RFC3339)
	if _, ok := out["createdAt"]; !ok {
		out["createdAt"] = ts
	}
	out["updatedAt"] = ts
	return out
}
