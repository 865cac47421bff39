// Package postgres implements storage.Store on a single JSONB table, so the
// mock API can run against PostgreSQL with the same record contract as the
// JSON document.
package postgres

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"vidaplus/internal/model"
	"vidaplus/internal/storage"
)

const uniqueViolation = "23505"

// DB is the subset of pgxpool.Pool used by the store
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Store keeps every collection in the records table
type Store struct {
	db  DB
	now func() time.Time
}

// New creates a Store on an open connection pool
func New(db DB) *Store {
	return &Store{db: db, now: time.Now}
}

// All returns every record of a collection in insertion order
func (s *Store) All(ctx context.Context, collection string) ([]model.Record, error) {
	sql := `SELECT body FROM records WHERE collection = $1 ORDER BY created_at, id`
	rows, err := s.db.Query(ctx, sql, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	recs := []model.Record{}
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}
		rec, err := decode(body)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating record rows: %w", err)
	}
	return recs, nil
}

// FindByID retrieves a record by its id
func (s *Store) FindByID(ctx context.Context, collection, id string) (model.Record, error) {
	sql := `SELECT body FROM records WHERE collection = $1 AND id = $2`
	return s.queryOne(ctx, sql, collection, id)
}

// FindBy retrieves the first record whose top-level field equals value
func (s *Store) FindBy(ctx context.Context, collection, field, value string) (model.Record, error) {
	if field == "id" {
		return s.FindByID(ctx, collection, value)
	}
	sql := `SELECT body FROM records WHERE collection = $1 AND body->>$2 = $3 ORDER BY created_at LIMIT 1`
	return s.queryOne(ctx, sql, collection, field, value)
}

// Insert stores a new record
func (s *Store) Insert(ctx context.Context, collection string, rec model.Record) (model.Record, error) {
	out := storage.Prepare(rec, s.now())
	body, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}

	sql := `INSERT INTO records (collection, id, body, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := s.db.Exec(ctx, sql, collection, out.ID(), body, s.now().UTC()); err != nil {
		return nil, mapInsertErr(err)
	}
	return out, nil
}

// InsertUnique stores a new record unless one with the same field value exists
func (s *Store) InsertUnique(ctx context.Context, collection, field string, rec model.Record) (model.Record, error) {
	out := storage.Prepare(rec, s.now())
	body, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}

	sql := `INSERT INTO records (collection, id, body, created_at)
            SELECT $1, $2, $3, $4
            WHERE NOT EXISTS (SELECT 1 FROM records WHERE collection = $1 AND body->>$5 = $6)`
	tag, err := s.db.Exec(ctx, sql, collection, out.ID(), body, s.now().UTC(), field, out.Field(field))
	if err != nil {
		return nil, mapInsertErr(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, storage.ErrConflict
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Store) Close() error {
	s.db.Close()
	return nil
}

func (s *Store) queryOne(ctx context.Context, sql string, args ...any) (model.Record, error) {
	var body []byte
	if err := s.db.QueryRow(ctx, sql, args...).Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find record: %w", err)
	}
	return decode(body)
}

func decode(body []byte) (model.Record, error) {
	rec := model.Record{}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode record body: %w", err)
	}
	return rec, nil
}

func mapInsertErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return storage.ErrConflict
	}
	return fmt.Errorf("failed to insert record: %w", err)
}
