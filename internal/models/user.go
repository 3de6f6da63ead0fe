package models

import "strings"

// UserRole is the client-trusted role flag stored on each user.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleStudent UserRole = "student"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleStudent
}

// User is a record under users/{studentNumber}. PasswordHash holds the password verbatim.
type User struct {
	StudentNumber string   `json:"studentNumber"`
	PasswordHash  string   `json:"passwordHash"`
	FullName      string   `json:"fullName"`
	Role          UserRole `json:"role"`
	DisplayName   string   `json:"displayName,omitempty"`
}

// GreetingName returns the display name when set, otherwise the given names from a
// "Last, First M.I." full name.
func (u *User) GreetingName() string {
	if u == nil {
		return ""
	}
	if name := strings.TrimSpace(u.DisplayName); name != "" {
		return name
	}
	if _, given, ok := strings.Cut(u.FullName, ","); ok {
		if given = strings.TrimSpace(given); given != "" {
			return given
		}
	}
	return strings.TrimSpace(u.FullName)
}

// UserInfo is the public view of a user returned by the API.
type UserInfo struct {
	StudentNumber string   `json:"studentNumber"`
	FullName      string   `json:"fullName"`
	Role          UserRole `json:"role"`
	DisplayName   string   `json:"displayName,omitempty"`
	GreetingName  string   `json:"greetingName"`
}

// Info converts u into its public view.
func (u *User) Info() UserInfo {
	return UserInfo{
		StudentNumber: u.StudentNumber,
		FullName:      u.FullName,
		Role:          u.Role,
		DisplayName:   u.DisplayName,
		GreetingName:  u.GreetingName(),
	}
}
