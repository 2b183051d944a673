package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"postcircle/internal/model"
)

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user into the database. Runs inside the caller's
// transaction so the profile row can be created atomically with the user.
func (r *userRepository) Create(ctx context.Context, tx *sqlx.Tx, u *model.User) error {
	query := `
		INSERT INTO users (username, email, password_hashed, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRowxContext(ctx, query, u.Username, u.Email, u.PasswordHashed).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// CreateProfile inserts the user's profile row.
func (r *userRepository) CreateProfile(ctx context.Context, tx *sqlx.Tx, p *model.Profile) error {
	query := `
		INSERT INTO profiles (user_id, bio)
		VALUES ($1, $2)
		RETURNING id
	`

	err := tx.QueryRowxContext(ctx, query, p.UserID, p.Bio).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `
		SELECT id, username, email, password_hashed, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &u, nil
}

// GetByUsername retrieves a user by their username. The match is exact
// and case-sensitive; no normalization is applied.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `
		SELECT id, username, email, password_hashed, created_at, updated_at
		FROM users
		WHERE username = $1
	`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return &u, nil
}

// ExistsByUsername checks if a username is already taken
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, username)
	if err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}

	return exists, nil
}

// ExistsByEmail checks if an email address is already registered
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, email)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}

	return exists, nil
}

func (r *userRepository) UpdateUsername(ctx context.Context, userID int64, username string) error {
	query := `UPDATE users SET username = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, username, userID)
	if err != nil {
		return fmt.Errorf("failed to update username: %w", err)
	}
	return nil
}

func (r *userRepository) GetProfile(ctx context.Context, userID int64) (*model.Profile, error) {
	query := `SELECT id, user_id, bio FROM profiles WHERE user_id = $1`

	var p model.Profile
	err := r.db.GetContext(ctx, &p, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			// Users created before the profile hook existed have no row;
			// treat as an empty profile.
			return &model.Profile{UserID: userID}, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &p, nil
}

func (r *userRepository) UpdateProfileBio(ctx context.Context, userID int64, bio *string) error {
	query := `UPDATE profiles SET bio = $1 WHERE user_id = $2`
	_, err := r.db.ExecContext(ctx, query, bio, userID)
	if err != nil {
		return fmt.Errorf("failed to update profile bio: %w", err)
	}
	return nil
}
