package repository

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidaplus/internal/model"
	"vidaplus/internal/storage/jsonfile"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newStore(t *testing.T) *jsonfile.Store {
	t.Helper()
	s, err := jsonfile.Open(filepath.Join(t.TempDir(), "db.json"), jsonfile.WithClock(func() time.Time {
		return time.Date(2025, 5, 10, 8, 30, 0, 0, time.UTC)
	}))
	require.NoError(t, err)
	return s
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := NewUserRepository(newStore(t), discardLogger)
	ctx := context.Background()

	user := &model.User{
		Name:         "Ana Souza",
		Email:        "ana@vidaplus.com",
		PasswordHash: "$2a$10$hash",
		Role:         model.RolePatient,
		Status:       model.StatusActive,
		BirthDate:    "1990-04-12",
		Gender:       "female",
	}
	require.NoError(t, repo.Create(ctx, user))
	require.NotEmpty(t, user.ID)
	assert.Equal(t, time.Date(2025, 5, 10, 8, 30, 0, 0, time.UTC), user.CreatedAt)

	byEmail, err := repo.FindByEmail(ctx, "ana@vidaplus.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, "$2a$10$hash", byEmail.PasswordHash)
	assert.Equal(t, "1990-04-12", byEmail.BirthDate)
	assert.Empty(t, byEmail.Specialty)

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "Ana Souza", byID.Name)
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	repo := NewUserRepository(newStore(t), discardLogger)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.User{Email: "ana@vidaplus.com", Role: model.RolePatient}))
	err := repo.Create(ctx, &model.User{Email: "ana@vidaplus.com", Role: model.RoleProfessional})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUserRepository_NotFound(t *testing.T) {
	repo := NewUserRepository(newStore(t), discardLogger)
	ctx := context.Background()

	u, err := repo.FindByEmail(ctx, "nobody@vidaplus.com")
	assert.NoError(t, err)
	assert.Nil(t, u)

	u, err = repo.FindByID(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, u)
}

func TestUserRepository_FindByEmail_LenientTimestamps(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	_, err := store.Insert(ctx, model.CollectionUsers, model.Record{
		"id":           "7",
		"email":        "seed@vidaplus.com",
		"passwordHash": "$2a$10$hash",
		"role":         model.RolePatient,
		"status":       model.StatusActive,
		"createdAt":    "2025-01-10",
	})
	require.NoError(t, err)

	tests := []struct {
		name      string
		createdAt string
		want      time.Time
	}{
		{name: "date only", createdAt: "2025-01-10", want: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)},
		{name: "garbage", createdAt: "last tuesday", want: time.Time{}},
	}

	repo := NewUserRepository(store, discardLogger)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := repo.(*userRepository).recordToUser(model.Record{"id": "7", "createdAt": tt.createdAt})
			assert.Equal(t, tt.want, u.CreatedAt)
		})
	}

	user, err := repo.FindByEmail(ctx, "seed@vidaplus.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), user.CreatedAt)
	assert.False(t, user.UpdatedAt.IsZero())
}
