package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vidaplus/internal/model"
	"vidaplus/internal/storage"
)

// ErrEmailTaken is returned by Create when the email is already registered
var ErrEmailTaken = errors.New("email already registered")

// UserRepository defines operations for user data
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
}

type userRepository struct {
	store storage.Store
	log   *slog.Logger
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(store storage.Store, log *slog.Logger) UserRepository {
	return &userRepository{store: store, log: log}
}

// Create inserts a new user; the store assigns ID and timestamps
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	rec, err := r.store.InsertUnique(ctx, model.CollectionUsers, "email", userToRecord(user))
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	*user = *r.recordToUser(rec)
	return nil
}

// FindByEmail retrieves a user by email
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	rec, err := r.store.FindBy(ctx, model.CollectionUsers, "email", email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil // User not found is not an error for this method's contract, service layer handles it
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return r.recordToUser(rec), nil
}

// FindByID retrieves a user by ID
func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	rec, err := r.store.FindByID(ctx, model.CollectionUsers, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return r.recordToUser(rec), nil
}

func userToRecord(u *model.User) model.Record {
	rec := model.Record{
		"name":         u.Name,
		"email":        u.Email,
		"passwordHash": u.PasswordHash,
		"role":         u.Role,
		"status":       u.Status,
	}
	if u.ID != "" {
		rec["id"] = u.ID
	}
	if !u.CreatedAt.IsZero() {
		rec["createdAt"] = u.CreatedAt.UTC().Format(time.RFC3339)
	}
	optional := map[string]string{
		"phone":              u.Phone,
		"birthDate":          u.BirthDate,
		"gender":             u.Gender,
		"specialty":          u.Specialty,
		"registrationNumber": u.RegistrationNumber,
	}
	for k, v := range optional {
		if v != "" {
			rec[k] = v
		}
	}
	return rec
}

func (r *userRepository) recordToUser(rec model.Record) *model.User {
	u := &model.User{
		ID:                 rec.ID(),
		Name:               rec.Field("name"),
		Email:              rec.Field("email"),
		PasswordHash:       rec.Field("passwordHash"),
		Role:               rec.Field("role"),
		Status:             rec.Field("status"),
		Phone:              rec.Field("phone"),
		BirthDate:          rec.Field("birthDate"),
		Gender:             rec.Field("gender"),
		Specialty:          rec.Field("specialty"),
		RegistrationNumber: rec.Field("registrationNumber"),
	}
	u.CreatedAt = r.parseTime(u.ID, "createdAt", rec.Field("createdAt"))
	u.UpdatedAt = r.parseTime(u.ID, "updatedAt", rec.Field("updatedAt"))
	return u
}

// timeLayouts are tried in order; seed documents often carry date-only values
var timeLayouts = []string{time.RFC3339, time.DateOnly}

// parseTime leaves the zero time for values no layout accepts
func (r *userRepository) parseTime(id, field, s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	r.log.Warn("unparseable user timestamp",
		slog.String("user_id", id),
		slog.String("field", field),
		slog.String("value", s),
	)
	return time.Time{}
}
