package models

// LoginRequest holds credentials for signing in.
type LoginRequest struct {
	StudentNumber string `json:"studentNumber" validate:"required"`
	Password      string `json:"password" validate:"required"`
}

// ChangePasswordRequest updates the signed-in user's password.
type ChangePasswordRequest struct {
	OldPassword     string `json:"oldPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// ResetPasswordRequest is the forgot-password flow; FullName must match the stored record.
type ResetPasswordRequest struct {
	StudentNumber   string `json:"studentNumber" validate:"required"`
	FullName        string `json:"fullName" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// ChangeDisplayNameRequest sets the name used in greetings.
type ChangeDisplayNameRequest struct {
	DisplayName string `json:"displayName" validate:"required,notblank"`
}

// Identity is the caller as declared by the client-trusted identity headers.
type Identity struct {
	StudentNumber string
	Role          UserRole
}

// IsAdmin reports whether the caller claims the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}
