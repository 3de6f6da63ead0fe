package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/campuspass-api/internal/models"
	"github.com/noah-isme/campuspass-api/internal/repository"
	appErrors "github.com/noah-isme/campuspass-api/pkg/errors"
)

type userRepository interface {
	FindByStudentNumber(ctx context.Context, studentNumber string) (*models.User, error)
	UpdateField(ctx context.Context, studentNumber, field, value string) error
	SeedIfEmpty(ctx context.Context, users []models.User) (bool, error)
}

// UserService is the user directory. Reads report absence instead of failing and updates
// report success as a boolean.
type UserService struct {
	repo   userRepository
	logger *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, logger: logger}
}

// FindByStudentNumber returns the stored record, or false when there is none or the read
// failed.
func (s *UserService) FindByStudentNumber(ctx context.Context, studentNumber string) (*models.User, bool) {
	user, err := s.repo.FindByStudentNumber(ctx, studentNumber)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("find user failed", zap.String("student_number", studentNumber), zap.Error(err))
		}
		return nil, false
	}
	return user, true
}

// UpdatePassword writes only the passwordHash field.
func (s *UserService) UpdatePassword(ctx context.Context, studentNumber, password string) bool {
	return s.updateField(ctx, studentNumber, repository.UserFieldPasswordHash, password)
}

// UpdateDisplayName writes only the displayName field.
func (s *UserService) UpdateDisplayName(ctx context.Context, studentNumber, displayName string) bool {
	return s.updateField(ctx, studentNumber, repository.UserFieldDisplayName, displayName)
}

func (s *UserService) updateField(ctx context.Context, studentNumber, field, value string) bool {
	if err := s.repo.UpdateField(ctx, studentNumber, field, value); err != nil {
		s.logger.Error("update user failed",
			zap.String("student_number", studentNumber),
			zap.String("field", field),
			zap.Error(err),
		)
		return false
	}
	return true
}

// SeedIfEmpty writes defaults when the users collection has no records.
func (s *UserService) SeedIfEmpty(ctx context.Context, defaults []models.User) (bool, error) {
	seeded, err := s.repo.SeedIfEmpty(ctx, defaults)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrWriteFailure.Code, appErrors.ErrWriteFailure.Status, "failed to seed users")
	}
	if seeded {
		s.logger.Info("seeded default users", zap.Int("count", len(defaults)))
	}
	return seeded, nil
}
