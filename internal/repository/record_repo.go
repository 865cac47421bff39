package repository

import (
	"context"
	"errors"
	"fmt"

	"vidaplus/internal/model"
	"vidaplus/internal/storage"
)

// ErrUnknownCollection is returned for collections the API does not expose
var ErrUnknownCollection = errors.New("unknown collection")

// RecordRepository defines read operations over the mock data collections
type RecordRepository interface {
	List(ctx context.Context, collection string) ([]model.Record, error)
	Get(ctx context.Context, collection, id string) (model.Record, error)
}

type recordRepository struct {
	store storage.Store
}

// NewRecordRepository creates a new RecordRepository
func NewRecordRepository(store storage.Store) RecordRepository {
	return &recordRepository{store: store}
}

// List returns every record of a collection
func (r *recordRepository) List(ctx context.Context, collection string) ([]model.Record, error) {
	if !model.IsCollection(collection) {
		return nil, ErrUnknownCollection
	}
	recs, err := r.store.All(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	return recs, nil
}

// Get retrieves a record by its ID. A missing record yields (nil, nil).
func (r *recordRepository) Get(ctx context.Context, collection, id string) (model.Record, error) {
	if !model.IsCollection(collection) {
		return nil, ErrUnknownCollection
	}
	rec, err := r.store.FindByID(ctx, collection, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to find %s record by ID: %w", collection, err)
	}
	return rec, nil
}
