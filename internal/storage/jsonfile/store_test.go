package jsonfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidaplus/internal/model"
	"vidaplus/internal/storage"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db.json")
	s, err := Open(path, WithClock(func() time.Time {
		return time.Date(2025, 5, 10, 8, 30, 0, 0, time.UTC)
	}))
	require.NoError(t, err)
	return s, path
}

func TestOpen_CreatesDocumentWithCollections(t *testing.T) {
	s, path := newTestStore(t)

	_, err := os.Stat(path)
	require.NoError(t, err)

	for _, c := range model.Collections {
		recs, err := s.All(context.Background(), c)
		require.NoError(t, err)
		assert.Empty(t, recs)
	}
}

func TestOpen_CorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Open(path)
	assert.Error(t, err)
}

func TestStore_InsertAndFindByID(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	rec, err := s.Insert(ctx, model.CollectionAppointments, model.Record{"service": "Cardiology"})
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID())
	assert.Equal(t, "2025-05-10T08:30:00Z", rec["createdAt"])
	assert.Equal(t, "2025-05-10T08:30:00Z", rec["updatedAt"])

	got, err := s.FindByID(ctx, model.CollectionAppointments, rec.ID())
	require.NoError(t, err)
	assert.Equal(t, "Cardiology", got["service"])
	assert.Equal(t, rec.ID(), got.ID())
}

func TestStore_FindByID_NotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.FindByID(context.Background(), model.CollectionUsers, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_FindByID_NumericSeedIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	seed := `{"patients":[{"id":1,"name":"Maria"},{"id":2,"name":"João"}]}`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))

	s, err := Open(path)
	require.NoError(t, err)

	got, err := s.FindByID(context.Background(), model.CollectionPatients, "2")
	require.NoError(t, err)
	assert.Equal(t, "João", got["name"])
}

func TestStore_InsertUnique_Conflict(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.InsertUnique(ctx, model.CollectionUsers, "email", model.Record{"email": "a@vidaplus.com"})
	require.NoError(t, err)

	_, err = s.InsertUnique(ctx, model.CollectionUsers, "email", model.Record{"email": "a@vidaplus.com"})
	assert.ErrorIs(t, err, storage.ErrConflict)

	recs, err := s.All(ctx, model.CollectionUsers)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestStore_Insert_DuplicateID(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, model.CollectionPatients, model.Record{"id": "p1"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, model.CollectionPatients, model.Record{"id": "p1"})
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	s, path := newTestStore(t)
	ctx := context.Background()

	rec, err := s.Insert(ctx, model.CollectionFinancialData, model.Record{"amount": 150})
	require.NoError(t, err)

	reopened, err := Open(path)
	require.NoError(t, err)

	got, err := reopened.FindByID(ctx, model.CollectionFinancialData, rec.ID())
	require.NoError(t, err)
	assert.Equal(t, "150", got.Field("amount"))
}

func TestStore_ConcurrentInsertsAreNotLost(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	const n = 40
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.InsertUnique(ctx, model.CollectionUsers, "email",
				model.Record{"email": fmt.Sprintf("user%d@vidaplus.com", i)})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	recs, err := s.All(ctx, model.CollectionUsers)
	require.NoError(t, err)
	assert.Len(t, recs, n)
}

func TestStore_CanceledContext(t *testing.T) {
	s, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.All(ctx, model.CollectionUsers)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.Insert(ctx, model.CollectionUsers, model.Record{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_Ping(t *testing.T) {
	s, path := newTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))

	require.NoError(t, os.Remove(path))
	assert.Error(t, s.Ping(context.Background()))
}
