package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campuspass-api/internal/models"
	appErrors "github.com/noah-isme/campuspass-api/pkg/errors"
)

type userDirectory interface {
	FindByStudentNumber(ctx context.Context, studentNumber string) (*models.User, bool)
	UpdatePassword(ctx context.Context, studentNumber, password string) bool
	UpdateDisplayName(ctx context.Context, studentNumber, displayName string) bool
}

// AuthService verifies credentials against the user directory. Passwords are compared
// verbatim.
type AuthService struct {
	users     userDirectory
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users userDirectory, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	} else {
		registerValidations(validate)
	}
	return &AuthService{users: users, validator: validate, logger: logger}
}

// Login succeeds iff the record exists and its password equals the submitted one.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	user, ok := s.users.FindByStudentNumber(ctx, req.StudentNumber)
	if !ok || user.PasswordHash != req.Password {
		s.logger.Info("login rejected", zap.String("student_number", req.StudentNumber))
		return nil, appErrors.Clone(appErrors.ErrVerificationFailed, "")
	}
	return user, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, studentNumber string, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err)
	}
	user, ok := s.users.FindByStudentNumber(ctx, studentNumber)
	if !ok {
		return appErrors.Clone(appErrors.ErrUnauthorized, "user not found")
	}
	if user.PasswordHash != req.OldPassword {
		return appErrors.Clone(appErrors.ErrVerificationFailed, "your old password is not correct")
	}
	if !s.users.UpdatePassword(ctx, studentNumber, req.NewPassword) {
		return appErrors.Clone(appErrors.ErrWriteFailure, "could not update password")
	}
	s.logger.Info("password changed", zap.String("student_number", studentNumber))
	return nil
}

// ResetPassword is the forgot-password flow. The submitted full name must equal the stored
// one.
func (s *AuthService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err)
	}
	user, ok := s.users.FindByStudentNumber(ctx, req.StudentNumber)
	if !ok || user.FullName != req.FullName {
		s.logger.Info("password reset rejected", zap.String("student_number", req.StudentNumber))
		return appErrors.Clone(appErrors.ErrVerificationFailed, "invalid student number or full name")
	}
	if !s.users.UpdatePassword(ctx, req.StudentNumber, req.NewPassword) {
		return appErrors.Clone(appErrors.ErrWriteFailure, "could not reset password")
	}
	s.logger.Info("password reset", zap.String("student_number", req.StudentNumber))
	return nil
}

// ChangeDisplayName stores a new greeting name and returns the refreshed user.
func (s *AuthService) ChangeDisplayName(ctx context.Context, studentNumber string, req models.ChangeDisplayNameRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	user, ok := s.users.FindByStudentNumber(ctx, studentNumber)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "user not found")
	}
	name := strings.TrimSpace(req.DisplayName)
	if !s.users.UpdateDisplayName(ctx, studentNumber, name) {
		return nil, appErrors.Clone(appErrors.ErrWriteFailure, "could not update display name")
	}
	user.DisplayName = name
	return user, nil
}

// Profile returns the signed-in user.
func (s *AuthService) Profile(ctx context.Context, studentNumber string) (*models.User, error) {
	user, ok := s.users.FindByStudentNumber(ctx, studentNumber)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "user not found")
	}
	return user, nil
}

// GreetingName is the name shown in the dashboard greeting.
func GreetingName(user *models.User) string {
	return user.GreetingName()
}
