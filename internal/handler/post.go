package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"postcircle/internal/httputil"
	"postcircle/internal/model"
	"postcircle/internal/service"
	"postcircle/internal/transport/http/middleware"
)

type PostHandler struct {
	userService *service.UserService
	postService *service.PostService
}

func NewPostHandler(userService *service.UserService, postService *service.PostService) *PostHandler {
	return &PostHandler{
		userService: userService,
		postService: postService,
	}
}

// caller loads the authenticated user's record. Post routes have no path
// user; the caller acts as themselves.
func (h *PostHandler) caller(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return nil, false
	}
	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] Post handler: %v", err)
		httputil.WriteInternalError(w, "Failed to load current user")
		return nil, false
	}
	return user, true
}

func postIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "postID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		httputil.WriteInvalidFields(w, http.StatusNotFound, "id")
		return 0, false
	}
	return id, true
}

func (h *PostHandler) writePostError(w http.ResponseWriter, err error) {
	var unknown *model.UnknownUsernameError
	switch {
	case errors.As(err, &unknown):
		httputil.WriteUnknownUsername(w, unknown.Username)
	case errors.Is(err, model.ErrMissingUsername):
		httputil.WriteMissingFields(w, http.StatusBadRequest, "username")
	case errors.Is(err, model.ErrPostNotFound):
		httputil.WriteNotFound(w, "Post not found")
	case errors.Is(err, model.ErrNotPostAuthor):
		httputil.WriteForbidden(w, "You are not the author of this post")
	case errors.Is(err, model.ErrInvalidVisibility):
		httputil.WriteInvalidFields(w, http.StatusBadRequest, "visibility_type")
	case errors.Is(err, model.ErrAccessGroupNotOwned):
		httputil.WriteInvalidFields(w, http.StatusBadRequest, "access_group")
	case errors.Is(err, model.ErrPostTooLarge):
		httputil.WriteInvalidFields(w, http.StatusBadRequest, "body")
	default:
		log.Printf("[ERROR] Post handler: %v", err)
		httputil.WriteInternalError(w, "Post operation failed")
	}
}

// postFilterFromQuery reads the timestamp window filters
// (created_at__lt/gt, last_modified__lt/gt). Values are RFC 3339; a
// malformed value is reported as an invalid field under its query name.
func postFilterFromQuery(r *http.Request) (model.PostFilter, []string) {
	var filter model.PostFilter
	var bad []string

	parse := func(name string, dst **time.Time) {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			return
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			bad = append(bad, name)
			return
		}
		*dst = &t
	}

	parse("created_at__lt", &filter.CreatedBefore)
	parse("created_at__gt", &filter.CreatedAfter)
	parse("last_modified__lt", &filter.ModifiedBefore)
	parse("last_modified__gt", &filter.ModifiedAfter)
	return filter, bad
}

// Create makes a new post authored by the caller.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req model.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	post, err := h.postService.Create(r.Context(), user, &req)
	if err != nil {
		h.writePostError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, post)
}

// List returns the posts the caller may view, newest first.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	filter, bad := postFilterFromQuery(r)
	if len(bad) > 0 {
		httputil.WriteInvalidFields(w, http.StatusBadRequest, bad...)
		return
	}

	posts, err := h.postService.List(r.Context(), user, filter)
	if err != nil {
		log.Printf("[ERROR] List posts handler: %v", err)
		httputil.WriteInternalError(w, "Failed to list posts")
		return
	}
	if posts == nil {
		posts = []model.Post{}
	}

	httputil.WriteJSON(w, http.StatusOK, posts)
}

// Get returns one post if the caller may view it.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}
	postID, ok := postIDFromPath(w, r)
	if !ok {
		return
	}

	post, err := h.postService.Get(r.Context(), user, postID)
	if err != nil {
		h.writePostError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// Update applies a partial update to the caller's own post.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}
	postID, ok := postIDFromPath(w, r)
	if !ok {
		return
	}

	var req model.UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	post, err := h.postService.Update(r.Context(), user, postID, &req)
	if err != nil {
		h.writePostError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// Delete removes the caller's own post.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}
	postID, ok := postIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.postService.Delete(r.Context(), user, postID); err != nil {
		h.writePostError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type permissionRequest struct {
	Username string `json:"username"`
}

// GrantPermission gives one named user view access to the post
// regardless of its visibility mode.
func (h *PostHandler) GrantPermission(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}
	postID, ok := postIDFromPath(w, r)
	if !ok {
		return
	}

	var req permissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	grantee, err := h.postService.GrantPermission(r.Context(), user, postID, req.Username)
	if err != nil {
		h.writePostError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, grantee)
}

// RevokePermission removes a direct grant. Revoking an absent grant
// still returns 204.
func (h *PostHandler) RevokePermission(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}
	postID, ok := postIDFromPath(w, r)
	if !ok {
		return
	}

	var req permissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := h.postService.RevokePermission(r.Context(), user, postID, req.Username); err != nil {
		h.writePostError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
