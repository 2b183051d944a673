package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"postcircle/internal/config"
	"postcircle/internal/model"
)

type mockRefreshTokenRepository struct {
	createFn           func(ctx context.Context, token *model.RefreshToken) error
	findByTokenHashFn  func(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	revokeFn           func(ctx context.Context, id string, replacedBy *string) error
	revokeAllForUserFn func(ctx context.Context, userID int64) error

	revokeAllCalls int
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	if m.createFn != nil {
		return m.createFn(ctx, token)
	}
	token.ID = "new-token-id"
	return nil
}

func (m *mockRefreshTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	if m.findByTokenHashFn != nil {
		return m.findByTokenHashFn(ctx, tokenHash)
	}
	return nil, model.ErrRefreshTokenNotFound
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, id string, replacedBy *string) error {
	if m.revokeFn != nil {
		return m.revokeFn(ctx, id, replacedBy)
	}
	return nil
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID int64) error {
	m.revokeAllCalls++
	if m.revokeAllForUserFn != nil {
		return m.revokeAllForUserFn(ctx, userID)
	}
	return nil
}

func (m *mockRefreshTokenRepository) DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	return 0, nil
}

func testAuthConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret",
		AccessTokenMaxAge:  900,
		RefreshTokenMaxAge: 3600,
	}
}

func TestAuthService_GenerateTokenPair(t *testing.T) {
	var stored *model.RefreshToken
	repo := &mockRefreshTokenRepository{
		createFn: func(ctx context.Context, token *model.RefreshToken) error {
			stored = token
			return nil
		},
	}
	svc := NewAuthService(repo, testAuthConfig())

	pair, err := svc.GenerateTokenPair(context.Background(), 1)

	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("both tokens must be issued")
	}
	if stored == nil {
		t.Fatal("refresh token must be persisted")
	}
	if stored.TokenHash == pair.RefreshToken {
		t.Error("the raw refresh token must not be stored")
	}
	if pair.ExpiresIn != 900 {
		t.Errorf("expires_in = %d, want 900", pair.ExpiresIn)
	}
}

func TestAuthService_RefreshTokens_RevokedTokenRevokesFamily(t *testing.T) {
	// Presenting an already-rotated token is treated as theft: every
	// refresh token for that user is revoked.
	revoked := time.Now().Add(-time.Minute)
	repo := &mockRefreshTokenRepository{
		findByTokenHashFn: func(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
			return &model.RefreshToken{
				ID:        "old",
				UserID:    7,
				RevokedAt: &revoked,
				ExpiresAt: time.Now().Add(time.Hour),
			}, nil
		},
	}
	svc := NewAuthService(repo, testAuthConfig())

	_, _, err := svc.RefreshTokens(context.Background(), "stolen-token")

	if !errors.Is(err, model.ErrRefreshTokenReused) {
		t.Fatalf("expected ErrRefreshTokenReused, got: %v", err)
	}
	if repo.revokeAllCalls != 1 {
		t.Errorf("RevokeAllForUser called %d times, want 1", repo.revokeAllCalls)
	}
}

func TestAuthService_RefreshTokens_Expired(t *testing.T) {
	repo := &mockRefreshTokenRepository{
		findByTokenHashFn: func(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
			return &model.RefreshToken{
				ID:        "old",
				UserID:    7,
				ExpiresAt: time.Now().Add(-time.Hour),
			}, nil
		},
	}
	svc := NewAuthService(repo, testAuthConfig())

	_, _, err := svc.RefreshTokens(context.Background(), "stale-token")

	if !errors.Is(err, model.ErrRefreshTokenExpired) {
		t.Fatalf("expected ErrRefreshTokenExpired, got: %v", err)
	}
}

func TestAuthService_RefreshTokens_UnknownToken(t *testing.T) {
	svc := NewAuthService(&mockRefreshTokenRepository{}, testAuthConfig())

	_, _, err := svc.RefreshTokens(context.Background(), "never-issued")

	if !errors.Is(err, model.ErrRefreshTokenNotFound) {
		t.Fatalf("expected ErrRefreshTokenNotFound, got: %v", err)
	}
}
