package auth

import (
	"strings"
	"time"
)

// User is the user model held by the registry
type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Clone returns a copy that shares no state with the registry
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// Summary is the public projection of a user, safe to serialize.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
	}
}

// UserSummary is the admin and profile view of a user
type UserSummary struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
}

// RegisteredUser is the registration response: no role, no hash
type RegisteredUser struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// NewRegisteredUser builds the registration response for u
func NewRegisteredUser(u *User) RegisteredUser {
	return RegisteredUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}

// LoginResponse carries the issued bearer token
type LoginResponse struct {
	Token string `json:"token"`
}

// DashboardResponse is the admin dashboard payload
type DashboardResponse struct {
	UserCount int           `json:"user_count"`
	Users     []UserSummary `json:"users"`
}

// NormalizeEmail is the canonical form used for registry keys and token subjects
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
