package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"postcircle/internal/httputil"
	"postcircle/internal/model"
	"postcircle/internal/service"
	"postcircle/internal/transport/http/middleware"
)

// resolvePathUser resolves the {username} path segment and applies the
// ownership guard for the requested mode. On failure it writes the error
// response and reports false. The ordering is part of the contract: a
// missing username is 400, an unknown one is 404, and only then can the
// guard produce a 403 - a 403 never shadows a failed resolution.
func resolvePathUser(w http.ResponseWriter, r *http.Request, users *service.UserService, mode service.AccessMode) (*model.User, *model.User, bool) {
	callerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return nil, nil, false
	}

	username := chi.URLParam(r, "username")
	user, err := users.Resolve(r.Context(), username)
	if err != nil {
		writeResolveError(w, err)
		return nil, nil, false
	}

	if err := users.Authorize(user, callerID, mode); err != nil {
		httputil.WriteForbidden(w, "You may not act as this user")
		return nil, nil, false
	}

	caller := user
	if user.ID != callerID {
		caller, err = users.GetByID(r.Context(), callerID)
		if err != nil {
			log.Printf("[ERROR] resolve caller %d: %v", callerID, err)
			httputil.WriteInternalError(w, "Failed to resolve caller")
			return nil, nil, false
		}
	}

	return user, caller, true
}

// writeResolveError maps a username resolution failure to its response.
func writeResolveError(w http.ResponseWriter, err error) {
	var unknown *model.UnknownUsernameError
	switch {
	case errors.Is(err, model.ErrMissingUsername):
		httputil.WriteMissingFields(w, http.StatusBadRequest, "username")
	case errors.As(err, &unknown):
		httputil.WriteUnknownUsername(w, unknown.Username)
	case errors.Is(err, model.ErrUserNotFound):
		httputil.WriteUnknownUsername(w, "")
	default:
		log.Printf("[ERROR] resolve user: %v", err)
		httputil.WriteInternalError(w, "Failed to resolve user")
	}
}
