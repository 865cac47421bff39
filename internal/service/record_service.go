package service

import (
	"context"
	"errors"
	"fmt"

	"vidaplus/internal/model"
	"vidaplus/internal/repository"
)

var (
	ErrRecordNotFound    = errors.New("record not found")
	ErrUnknownCollection = errors.New("unknown collection")
)

// Keys never returned to clients from the users collection
var secretUserFields = []string{"password", "passwordHash"}

// RecordService exposes read access to the mock data collections
type RecordService interface {
	List(ctx context.Context, collection string) ([]model.Record, error)
	Get(ctx context.Context, collection, id string) (model.Record, error)
}

type recordService struct {
	repo repository.RecordRepository
}

// NewRecordService creates a new RecordService
func NewRecordService(repo repository.RecordRepository) RecordService {
	return &recordService{repo: repo}
}

func (s *recordService) List(ctx context.Context, collection string) ([]model.Record, error) {
	recs, err := s.repo.List(ctx, collection)
	if err != nil {
		if errors.Is(err, repository.ErrUnknownCollection) {
			return nil, ErrUnknownCollection
		}
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	out := make([]model.Record, 0, len(recs))
	for _, rec := range recs {
		out = append(out, sanitize(collection, rec))
	}
	return out, nil
}

func (s *recordService) Get(ctx context.Context, collection, id string) (model.Record, error) {
	rec, err := s.repo.Get(ctx, collection, id)
	if err != nil {
		if errors.Is(err, repository.ErrUnknownCollection) {
			return nil, ErrUnknownCollection
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	if rec == nil {
		return nil, ErrRecordNotFound
	}
	return sanitize(collection, rec), nil
}

func sanitize(collection string, rec model.Record) model.Record {
	if collection != model.CollectionUsers {
		return rec
	}
	return rec.Without(secretUserFields...)
}
