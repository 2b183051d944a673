package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"postcircle/internal/model"
	"postcircle/internal/repository"
)

// AccessMode is how a caller wants to act on a path-scoped user resource.
type AccessMode int

const (
	// ReadOnly access is granted to any authenticated caller: safe methods
	// bypass the ownership check entirely.
	ReadOnly AccessMode = iota
	// Owner access requires the resolved user to be the caller.
	Owner
)

// UserService handles identity resolution, the ownership guard, and
// account lifecycle.
type UserService struct {
	repo repository.UserRepository
	tx   repository.TxManager
}

func NewUserService(repo repository.UserRepository, tx repository.TxManager) *UserService {
	return &UserService{
		repo: repo,
		tx:   tx,
	}
}

// Resolve maps a username to its user record. An empty username is a
// missing-field failure, not a lookup miss; the two surface as different
// status codes. Lookup is exact and case-sensitive.
func (s *UserService) Resolve(ctx context.Context, username string) (*model.User, error) {
	if username == "" {
		return nil, model.ErrMissingUsername
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, &model.UnknownUsernameError{Username: username}
		}
		return nil, err
	}

	return user, nil
}

// Authorize decides whether the caller may act as the resolved user.
// It is only ever evaluated after Resolve succeeds, so a 403 here can
// never shadow the 404/400 of a failed resolution.
func (s *UserService) Authorize(resolved *model.User, callerID int64, mode AccessMode) error {
	if mode == ReadOnly {
		return nil
	}
	if resolved.ID != callerID {
		return model.ErrForbidden
	}
	return nil
}

// Register creates a new account. The profile row is inserted in the same
// transaction as the user: profile creation is an explicit post-creation
// hook, not a side channel.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if strings.TrimSpace(req.Username) == "" {
		return nil, model.ErrMissingUsername
	}
	if strings.TrimSpace(req.Password) == "" {
		return nil, fmt.Errorf("password is required")
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, fmt.Errorf("email is required")
	}

	exists, err := s.repo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, model.ErrUsernameExists
	}

	emailTaken, err := s.repo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if emailTaken {
		return nil, model.ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:       req.Username,
		Email:          req.Email,
		PasswordHashed: string(hashedPassword),
	}

	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.Create(ctx, tx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return s.createProfileHook(ctx, tx, user)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// createProfileHook runs synchronously after the user insert, inside the
// same transaction.
func (s *UserService) createProfileHook(ctx context.Context, tx *sqlx.Tx, user *model.User) error {
	profile := &model.Profile{UserID: user.ID}
	if err := s.repo.CreateProfile(ctx, tx, profile); err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// Login authenticates a user with username and password.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	user, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil {
		// Don't reveal whether username exists or not
		return nil, model.ErrInvalidCredentials
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password))
	if err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetProfile retrieves the user's profile row.
func (s *UserService) GetProfile(ctx context.Context, userID int64) (*model.Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

// Update applies a partial update to the user and their profile. Nil
// request fields are left untouched.
func (s *UserService) Update(ctx context.Context, user *model.User, req *model.UpdateUserRequest) (*model.User, error) {
	if req.Username != nil && *req.Username != user.Username {
		if strings.TrimSpace(*req.Username) == "" {
			return nil, model.ErrMissingUsername
		}
		taken, err := s.repo.ExistsByUsername(ctx, *req.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to check username: %w", err)
		}
		if taken {
			return nil, model.ErrUsernameExists
		}
		if err := s.repo.UpdateUsername(ctx, user.ID, *req.Username); err != nil {
			return nil, err
		}
		user.Username = *req.Username
	}

	if req.Profile != nil {
		if err := s.repo.UpdateProfileBio(ctx, user.ID, req.Profile.Bio); err != nil {
			return nil, err
		}
	}

	return user, nil
}
