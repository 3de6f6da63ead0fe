package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/campuspass-api/internal/models"
	"github.com/noah-isme/campuspass-api/pkg/docstore"
)

// User record fields addressable by point writes.
const (
	UserFieldPasswordHash = "passwordHash"
	UserFieldDisplayName  = "displayName"
)

// UserRepository reads and updates users/{studentNumber}.
type UserRepository struct {
	store  docstore.Client
	path   docstore.Path
	logger *zap.Logger
}

// NewUserRepository creates the repository.
func NewUserRepository(store docstore.Client, logger *zap.Logger) *UserRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserRepository{store: store, path: docstore.MustPath(UsersPath), logger: logger}
}

// FindByStudentNumber returns ErrNotFound when no record exists.
func (r *UserRepository) FindByStudentNumber(ctx context.Context, studentNumber string) (*models.User, error) {
	if err := docstore.ValidateKey(studentNumber); err != nil {
		return nil, ErrNotFound
	}
	snap, err := r.store.Get(ctx, r.path.Child(studentNumber))
	if err != nil {
		return nil, fmt.Errorf("read user %s: %w", studentNumber, err)
	}
	if !snap.Exists() {
		return nil, ErrNotFound
	}
	var user models.User
	if err := snap.Decode(&user); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", studentNumber, err)
	}
	if user.StudentNumber == "" {
		user.StudentNumber = studentNumber
	}
	return &user, nil
}

// UpdateField writes a single field of users/{studentNumber}.
func (r *UserRepository) UpdateField(ctx context.Context, studentNumber, field string, value string) error {
	if err := docstore.ValidateKey(studentNumber); err != nil {
		return err
	}
	if err := r.store.Set(ctx, r.path.Child(studentNumber).Child(field), value); err != nil {
		return fmt.Errorf("write user %s %s: %w", studentNumber, field, err)
	}
	return nil
}

// SeedIfEmpty writes every user keyed by student number when the collection has no
// children. It reports whether the write happened; an empty list writes nothing.
func (r *UserRepository) SeedIfEmpty(ctx context.Context, users []models.User) (bool, error) {
	if len(users) == 0 {
		return false, nil
	}
	records := make(map[string]models.User, len(users))
	for _, user := range users {
		if err := docstore.ValidateKey(user.StudentNumber); err != nil {
			return false, err
		}
		records[user.StudentNumber] = user
	}
	written, err := r.store.SetIfAbsent(ctx, r.path, records)
	if err != nil {
		return false, fmt.Errorf("seed users: %w", err)
	}
	return written, nil
}
