package domain

import (
	"context"
	"time"
)

// Role values for User.Role.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents a registered account.
type User struct {
	ID           int64      `json:"id" db:"id"`
	Name         string     `json:"name" db:"name" validate:"required,min=1,max=100"`
	Email        string     `json:"email" db:"email" validate:"required,email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Avatar       *string    `json:"avatar,omitempty" db:"avatar"`
	Role         string     `json:"role" db:"role"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	ResetToken   *string    `json:"-" db:"reset_token"`
	ResetExpiry  *time.Time `json:"-" db:"reset_expiry"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserSummary is the public slice of a user embedded in reviews.
type UserSummary struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar,omitempty"`
}

// Summary returns the embeddable public view of the user.
func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create inserts a new user; returns ErrAlreadyExists when the email is taken
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// List retrieves a page of users, optionally filtered by a name/email search term
	List(ctx context.Context, page, limit int, search string) ([]*User, int, error)

	// Update updates a user's profile fields (name, avatar, role)
	Update(ctx context.Context, user *User) error

	// UpdatePassword replaces the stored password hash
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error

	// Delete removes a user account
	Delete(ctx context.Context, id int64) error

	// SetResetToken stores a password reset token and its expiry for the email
	SetResetToken(ctx context.Context, email, token string, expiry time.Time) error

	// GetByResetToken retrieves the user holding an unexpired reset token
	GetByResetToken(ctx context.Context, token string) (*User, error)

	// ClearResetToken invalidates the user's reset token
	ClearResetToken(ctx context.Context, id int64) error
}
