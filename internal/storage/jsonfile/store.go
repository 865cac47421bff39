// Package jsonfile implements storage.Store over a single JSON document of
// the form {"collection": [records...]}. Each mutation re-reads the file and
// rewrites it atomically while holding the store lock, so concurrent
// inserts from the same process are never lost.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"vidaplus/internal/model"
	"vidaplus/internal/storage"
)

type document map[string][]model.Record

// Store is a file-backed record store
type Store struct {
	path string
	mu   sync.RWMutex
	now  func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the clock used for timestamp injection
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open returns a store backed by path. A missing file is created with the
// known collections, all empty.
func Open(path string, opts ...Option) (*Store, error) {
	const op = "jsonfile.Open"

	s := &Store{path: path, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		doc := make(document, len(model.Collections))
		for _, c := range model.Collections {
			doc[c] = []model.Record{}
		}
		if err := s.write(doc); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Fail early on a corrupt document
	if _, err := s.read(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

// All returns every record of a collection in insertion order
func (s *Store) All(ctx context.Context, collection string) ([]model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.read()
	if err != nil {
		return nil, fmt.Errorf("jsonfile.All: %w", err)
	}
	recs := doc[collection]
	if recs == nil {
		recs = []model.Record{}
	}
	return recs, nil
}

// FindByID scans a collection for the record with the given id
func (s *Store) FindByID(ctx context.Context, collection, id string) (model.Record, error) {
	return s.FindBy(ctx, collection, "id", id)
}

// FindBy returns the first record whose field equals value
func (s *Store) FindBy(ctx context.Context, collection, field, value string) (model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.read()
	if err != nil {
		return nil, fmt.Errorf("jsonfile.FindBy: %w", err)
	}
	if rec := find(doc[collection], field, value); rec != nil {
		return rec, nil
	}
	return nil, storage.ErrNotFound
}

// Insert appends rec to a collection
func (s *Store) Insert(ctx context.Context, collection string, rec model.Record) (model.Record, error) {
	return s.insert(ctx, collection, "", rec)
}

// InsertUnique appends rec unless a record with the same field value exists
func (s *Store) InsertUnique(ctx context.Context, collection, field string, rec model.Record) (model.Record, error) {
	return s.insert(ctx, collection, field, rec)
}

func (s *Store) insert(ctx context.Context, collection, uniqueField string, rec model.Record) (model.Record, error) {
	const op = "jsonfile.Insert"
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := storage.Prepare(rec, s.now())
	if find(doc[collection], "id", out.ID()) != nil {
		return nil, storage.ErrConflict
	}
	if v := out.Field(uniqueField); uniqueField != "" && v != "" && find(doc[collection], uniqueField, v) != nil {
		return nil, storage.ErrConflict
	}

	doc[collection] = append(doc[collection], out)
	if err := s.write(doc); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// Ping checks that the document is still readable
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err := s.read()
	return err
}

func (s *Store) Close() error { return nil }

func (s *Store) read() (document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	doc := document{}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return doc, nil
}

// write replaces the document through a temp file in the same directory
func (s *Store) write(doc document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".db-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func find(recs []model.Record, field, value string) model.Record {
	for _, r := range recs {
		if r.Field(field) == value {
			return r
		}
	}
	return nil
}
