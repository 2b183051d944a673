package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"postcircle/internal/httputil"
	"postcircle/internal/model"
	"postcircle/internal/service"
)

type FollowHandler struct {
	userService   *service.UserService
	followService *service.FollowService
}

func NewFollowHandler(userService *service.UserService, followService *service.FollowService) *FollowHandler {
	return &FollowHandler{
		userService:   userService,
		followService: followService,
	}
}

// usernameFilterFromQuery reads the username / username__in filters from
// the request. An empty filter matches everything.
func usernameFilterFromQuery(r *http.Request) model.UsernameFilter {
	var filter model.UsernameFilter
	filter.Exact = r.URL.Query().Get("username")
	if raw := r.URL.Query().Get("username__in"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				filter.In = append(filter.In, trimmed)
			}
		}
	}
	return filter
}

// GetFollowers lists the accounts that follow the path user.
func (h *FollowHandler) GetFollowers(w http.ResponseWriter, r *http.Request) {
	user, _, ok := resolvePathUser(w, r, h.userService, service.ReadOnly)
	if !ok {
		return
	}

	followers, err := h.followService.ListFollowers(r.Context(), user, usernameFilterFromQuery(r))
	if err != nil {
		log.Printf("[ERROR] GetFollowers handler: %v", err)
		httputil.WriteInternalError(w, "Failed to list followers")
		return
	}
	if followers == nil {
		followers = []model.UserSummary{}
	}

	httputil.WriteJSON(w, http.StatusOK, followers)
}

// GetFollowing lists the accounts the path user follows.
func (h *FollowHandler) GetFollowing(w http.ResponseWriter, r *http.Request) {
	user, _, ok := resolvePathUser(w, r, h.userService, service.ReadOnly)
	if !ok {
		return
	}

	following, err := h.followService.ListFollowing(r.Context(), user, usernameFilterFromQuery(r))
	if err != nil {
		log.Printf("[ERROR] GetFollowing handler: %v", err)
		httputil.WriteInternalError(w, "Failed to list following")
		return
	}
	if following == nil {
		following = []model.UserSummary{}
	}

	httputil.WriteJSON(w, http.StatusOK, following)
}

// Follow adds the user named in the request body to the path user's
// following set. Re-adding an existing edge succeeds without effect.
func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	user, _, ok := resolvePathUser(w, r, h.userService, service.Owner)
	if !ok {
		return
	}

	var req model.FollowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	target, err := h.userService.Resolve(r.Context(), req.Username)
	if err != nil {
		writeResolveError(w, err)
		return
	}

	if _, err := h.followService.Follow(r.Context(), user, target); err != nil {
		log.Printf("[ERROR] Follow handler: %v", err)
		httputil.WriteInternalError(w, "Failed to follow user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, []model.UserSummary{
		{ID: target.ID, Username: target.Username},
	})
}

// Unfollow removes one account from the path user's following set.
// Removing an absent edge still returns 204.
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	user, _, ok := resolvePathUser(w, r, h.userService, service.Owner)
	if !ok {
		return
	}

	var req model.FollowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	target, err := h.userService.Resolve(r.Context(), req.Username)
	if err != nil {
		writeResolveError(w, err)
		return
	}

	if err := h.followService.Unfollow(r.Context(), user, target); err != nil {
		log.Printf("[ERROR] Unfollow handler: %v", err)
		httputil.WriteInternalError(w, "Failed to unfollow user")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
