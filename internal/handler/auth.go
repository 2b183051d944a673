package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"postcircle/internal/httputil"
	"postcircle/internal/model"
	"postcircle/internal/service"
	"postcircle/internal/transport/http/middleware"
)

// AuthHandler groups auth-related HTTP endpoints and their dependencies.
type AuthHandler struct {
	userService *service.UserService
	authService *service.AuthService
}

// NewAuthHandler wires dependencies for authentication endpoints.
func NewAuthHandler(userService *service.UserService, authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		authService: authService,
	}
}

// Register handles sign-up. The profile row is created together with the
// user, so the account is fully usable the moment this returns.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrMissingUsername):
			httputil.WriteMissingFields(w, http.StatusBadRequest, "username")
		case errors.Is(err, model.ErrUsernameExists):
			httputil.WriteInvalidFields(w, http.StatusBadRequest, "username")
		case errors.Is(err, model.ErrEmailExists):
			httputil.WriteEmailInUse(w)
		default:
			log.Printf("[ERROR] Register handler: %v", err)
			httputil.WriteInternalError(w, "Failed to register")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, user)
}

// Login authenticates and returns an access/refresh token pair.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		httputil.WriteUnauthorized(w, "Invalid username or password")
		return
	}

	tokens, err := h.authService.GenerateTokenPair(r.Context(), user.ID)
	if err != nil {
		log.Printf("[ERROR] Login handler: %v", err)
		httputil.WriteInternalError(w, "Failed to issue tokens")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.LoginResponse{
		User:         user,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
	})
}

// Refresh rotates the refresh token and issues a new pair.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req model.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		httputil.WriteBadRequest(w, "refresh_token is required")
		return
	}

	tokens, _, err := h.authService.RefreshTokens(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrRefreshTokenExpired):
			httputil.WriteUnauthorizedWithType(w, httputil.TypeTokenExpired, "Refresh token has expired")
		case errors.Is(err, model.ErrRefreshTokenReused),
			errors.Is(err, model.ErrRefreshTokenNotFound):
			httputil.WriteUnauthorized(w, "Invalid refresh token")
		default:
			log.Printf("[ERROR] Refresh handler: %v", err)
			httputil.WriteInternalError(w, "Failed to refresh tokens")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, tokens)
}

// Logout revokes the presented refresh token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req model.LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		httputil.WriteBadRequest(w, "refresh_token is required")
		return
	}

	if err := h.authService.RevokeRefreshToken(r.Context(), req.RefreshToken); err != nil {
		if errors.Is(err, model.ErrRefreshTokenNotFound) {
			// Revoking an unknown token is a no-op success
			w.WriteHeader(http.StatusNoContent)
			return
		}
		log.Printf("[ERROR] Logout handler: %v", err)
		httputil.WriteInternalError(w, "Failed to log out")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// LogoutAll revokes every live refresh token for the caller.
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.authService.RevokeAllUserTokens(r.Context(), userID); err != nil {
		log.Printf("[ERROR] LogoutAll handler: %v", err)
		httputil.WriteInternalError(w, "Failed to log out")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
