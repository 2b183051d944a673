package model

import (
	"errors"
	"fmt"
	"time"
)

// User represents an account in the system. Usernames are unique and
// case-sensitive; all lookups are exact-match with no normalization.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	Email          string    `db:"email" json:"email"`
	PasswordHashed string    `db:"password_hashed" json:"-"` // "-" hides from JSON output
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Profile holds the free-form profile data attached to every user.
// A profile row is inserted synchronously when the user is created,
// inside the same transaction.
type Profile struct {
	ID     int64   `db:"id" json:"-"`
	UserID int64   `db:"user_id" json:"-"`
	Bio    *string `db:"bio" json:"bio"`
}

// UserSummary is the compact user shape embedded in lists (followers,
// group members, post authors).
type UserSummary struct {
	ID       int64  `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
}

// RegisterRequest represents the data needed to register a new user
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the data needed to log in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateUserRequest is the PUT body for a user resource. Nil fields are
// left untouched.
type UpdateUserRequest struct {
	Username *string        `json:"username"`
	Profile  *UpdateProfile `json:"profile"`
}

// UpdateProfile carries the writable profile fields.
type UpdateProfile struct {
	Bio *string `json:"bio"`
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrMissingUsername is returned when an operation needs a username and
	// none was supplied. Distinct from ErrUserNotFound: missing maps to 400,
	// unknown maps to 404.
	ErrMissingUsername = errors.New("username is required")

	// ErrUsernameExists is returned when attempting to create a user with a taken username
	ErrUsernameExists = errors.New("username already exists")

	// ErrEmailExists is returned when attempting to register a taken email address
	ErrEmailExists = errors.New("email already in use")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrForbidden is returned when the authenticated caller may not act
	// as the resolved path user.
	ErrForbidden = errors.New("forbidden")
)

// UnknownUsernameError reports which username failed to resolve, so
// handlers can name it in the error body. errors.Is matches it against
// ErrUserNotFound.
type UnknownUsernameError struct {
	Username string
}

func (e *UnknownUsernameError) Error() string {
	return fmt.Sprintf("there is no user named '%s'", e.Username)
}

func (e *UnknownUsernameError) Is(target error) bool {
	return target == ErrUserNotFound
}
